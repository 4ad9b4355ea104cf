package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"datingapp/internal/models"
	"datingapp/internal/repository"
	"datingapp/internal/service"
)

const AdminUserName = "admin"

type usersFile struct {
	Users []struct {
		UserName string   `yaml:"username"`
		Password string   `yaml:"password"`
		Roles    []string `yaml:"roles"`
	} `yaml:"users"`
}

// Seeder creates accounts through the normal registration rules.
type Seeder struct {
	users repository.UserStore
	auth  *service.AuthService
	log   zerolog.Logger
}

func New(users repository.UserStore, auth *service.AuthService, log zerolog.Logger) *Seeder {
	return &Seeder{users: users, auth: auth, log: log}
}

// Users reads a YAML users document and creates every account that does
// not exist yet. It returns how many accounts were created.
func (s *Seeder) Users(ctx context.Context, r io.Reader) (int, error) {
	var uf usersFile
	if err := yaml.NewDecoder(r).Decode(&uf); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("decode users file: %w", err)
	}

	created := 0
	for _, u := range uf.Users {
		if u.UserName == "" || u.Password == "" {
			continue
		}
		ok, err := s.ensureUser(ctx, u.UserName, u.Password, u.Roles)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// Admin ensures the admin account exists with the Admin and Moderator roles.
func (s *Seeder) Admin(ctx context.Context, password string) error {
	_, err := s.ensureUser(ctx, AdminUserName, password, []string{models.RoleAdmin, models.RoleModerator})
	return err
}

func (s *Seeder) ensureUser(ctx context.Context, userName, password string, roles []string) (bool, error) {
	if _, err := s.users.FindByUserName(ctx, userName); err == nil {
		s.log.Info().Str("user_name", userName).Msg("user exists, skipping")
		return false, nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return false, err
	}

	user, err := s.auth.Register(ctx, service.RegisterInput{UserName: userName, Password: password})
	if err != nil {
		return false, fmt.Errorf("register %s: %w", userName, err)
	}

	if len(roles) > 0 {
		if err := s.users.AddToRoles(ctx, user.ID, roles); err != nil {
			return false, fmt.Errorf("assign roles to %s: %w", userName, err)
		}
	}

	s.log.Info().Str("user_name", user.UserName).Strs("roles", roles).Msg("user seeded")
	return true, nil
}
