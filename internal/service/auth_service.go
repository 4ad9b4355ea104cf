package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"datingapp/internal/apperr"
	"datingapp/internal/events"
	"datingapp/internal/models"
	"datingapp/internal/repository"
	"datingapp/internal/security"
)

const msgUnauthorized = "Unauthorized"

// unknownUserHash is verified against when the user name does not exist so
// both login failures cost the same argon2 work.
var unknownUserHash = sync.OnceValue(func() []byte {
	hash, _ := security.HashPassword("unknown-user-placeholder")
	return hash
})

type AuthService struct {
	users  repository.UserStore
	tokens *security.TokenIssuer
	events events.Publisher
	log    zerolog.Logger
	now    func() time.Time
	verify func(password string, hash []byte) (bool, error)
}

func NewAuthService(
	users repository.UserStore,
	tokens *security.TokenIssuer,
	publisher events.Publisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		events: publisher,
		log:    log,
		now:    time.Now,
		verify: security.VerifyPassword,
	}
}

type RegisterInput struct {
	UserName string
	Password string
}

// Register creates a member account. Every rule the input breaks is
// reported at once.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	userName := repository.NormalizeUserName(input.UserName)

	details := security.ValidateUserName(userName)
	details = append(details, security.ValidatePassword(input.Password)...)

	if userName != "" {
		if _, err := s.users.FindByUserName(ctx, userName); err == nil {
			details = append(details, security.DuplicateUserName(userName))
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("lookup user: %w", err)
		}
	}

	if len(details) > 0 {
		return models.User{}, apperr.Validation("Registration failed", details...)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		UserName:     userName,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUserName) {
			return models.User{}, apperr.Validation("Registration failed", security.DuplicateUserName(userName))
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("user_name", user.UserName).Msg("user registered")
	publish(ctx, s.log, s.events, events.Event{
		Type:     events.TypeUserRegistered,
		UserID:   user.ID,
		UserName: user.UserName,
	})

	return user, nil
}

type LoginInput struct {
	UserName string
	Password string
}

type LoginResult struct {
	Token string
	User  models.User
	Roles []string
}

// Login verifies credentials and issues a token carrying the user's
// current roles.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.users.FindByUserName(ctx, input.UserName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.verify(input.Password, unknownUserHash())
			return LoginResult{}, apperr.Unauthorized(msgUnauthorized)
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("stored password hash unreadable")
		return LoginResult{}, apperr.Unauthorized(msgUnauthorized)
	}
	if !ok {
		return LoginResult{}, apperr.Unauthorized(msgUnauthorized)
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("load roles: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.UserName, roles)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now().UTC()
	if err := s.users.TouchLastActive(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("update last active failed")
	} else {
		user.LastActive = now
	}

	publish(ctx, s.log, s.events, events.Event{
		Type:     events.TypeUserLoggedIn,
		UserID:   user.ID,
		UserName: user.UserName,
	})

	return LoginResult{Token: token, User: user, Roles: roles}, nil
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.NotFound("User not found")
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func publish(ctx context.Context, log zerolog.Logger, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Msg("publish event failed")
	}
}
