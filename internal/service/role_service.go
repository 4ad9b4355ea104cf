package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"datingapp/internal/apperr"
	"datingapp/internal/events"
	"datingapp/internal/models"
	"datingapp/internal/repository"
)

const (
	msgUserNotFound     = "User not found"
	msgFailedAddRoles   = "Failed to add to roles"
	msgFailedRemoveRole = "Failed to remove the roles"
)

type RoleService struct {
	users  repository.UserStore
	events events.Publisher
	log    zerolog.Logger
}

func NewRoleService(users repository.UserStore, publisher events.Publisher, log zerolog.Logger) *RoleService {
	return &RoleService{users: users, events: publisher, log: log}
}

func (s *RoleService) GetUsersWithRoles(ctx context.Context) ([]models.UserWithRoles, error) {
	users, err := s.users.ListWithRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users with roles: %w", err)
	}
	if users == nil {
		users = []models.UserWithRoles{}
	}
	return users, nil
}

// EditRoles makes userName's roles equal desired. Additions are applied
// before removals as two separate writes: when the removal fails the
// additions stay committed.
func (s *RoleService) EditRoles(ctx context.Context, actor, userName string, desired []string) ([]string, error) {
	user, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	current, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	toAdd := except(desired, current)
	toRemove := except(current, desired)

	logger := s.log.With().Str("user_name", user.UserName).Str("actor", actor).Logger()

	if len(toAdd) > 0 {
		if err := s.users.AddToRoles(ctx, user.ID, toAdd); err != nil {
			logger.Error().Err(err).Strs("roles", toAdd).Msg("add roles failed")
			return nil, apperr.Failed(msgFailedAddRoles, err)
		}
	}

	if len(toRemove) > 0 {
		if err := s.users.RemoveFromRoles(ctx, user.ID, toRemove); err != nil {
			logger.Error().Err(err).Strs("roles", toRemove).Strs("added", toAdd).
				Msg("remove roles failed after additions were committed")
			return nil, apperr.Failed(msgFailedRemoveRole, err)
		}
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload roles: %w", err)
	}
	if roles == nil {
		roles = []string{}
	}
	sort.Strings(roles)

	logger.Info().Strs("roles", roles).Msg("roles edited")
	publish(ctx, s.log, s.events, events.Event{
		Type:     events.TypeRolesEdited,
		UserID:   user.ID,
		UserName: user.UserName,
		Actor:    actor,
		Roles:    roles,
	})

	return roles, nil
}

// except returns the names in from that are absent from other, compared
// case-insensitively, without duplicates.
func except(from, other []string) []string {
	skip := make(map[string]struct{}, len(other)+len(from))
	for _, name := range other {
		skip[strings.ToLower(name)] = struct{}{}
	}

	var out []string
	for _, name := range from {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := skip[key]; ok {
			continue
		}
		skip[key] = struct{}{}
		out = append(out, strings.TrimSpace(name))
	}
	return out
}
