package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"dominoleague/internal/domain"
)

type PlayerProfileStore interface {
	GetPlayerByID(ctx context.Context, id string) (domain.Player, error)
	SetName(ctx context.Context, playerID, name string) error
	// SetHandle fails with domain.ErrHandleImmutable once a handle exists
	// and domain.ErrHandleTaken when another player holds it.
	SetHandle(ctx context.Context, playerID, handle string) error
	SetAvatar(ctx context.Context, playerID, avatarPath string, updatedAt time.Time) error
}

type PlayerService struct {
	Store PlayerProfileStore
	Now   func() time.Time
}

var handleRe = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

func (s *PlayerService) Get(ctx context.Context, playerID string) (domain.Player, error) {
	p, err := s.Store.GetPlayerByID(ctx, playerID)
	if err != nil {
		return domain.Player{}, err
	}
	// Public profile: the email stays private.
	p.Email = ""
	return p, nil
}

func (s *PlayerService) UpdateName(ctx context.Context, playerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError(map[string]string{"name": "required"})
	}
	if len(name) > 48 {
		return domain.NewValidationError(map[string]string{"name": "must be 48 characters or less"})
	}
	for _, r := range name {
		if r < 32 {
			return domain.NewValidationError(map[string]string{"name": "contains invalid characters"})
		}
	}
	return s.Store.SetName(ctx, playerID, name)
}

// SetHandle claims a permanent handle. The store enforces that an existing
// handle is never overwritten.
func (s *PlayerService) SetHandle(ctx context.Context, playerID, handle string) error {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if !handleRe.MatchString(handle) {
		return domain.NewValidationError(map[string]string{"handle": "must be 3-24 lowercase letters, digits or underscores"})
	}
	return s.Store.SetHandle(ctx, playerID, handle)
}

func (s *PlayerService) UpdateAvatar(ctx context.Context, playerID, avatarPath string) error {
	if strings.TrimSpace(avatarPath) == "" {
		return domain.NewValidationError(map[string]string{"avatar": "file is required"})
	}
	return s.Store.SetAvatar(ctx, playerID, avatarPath, s.now())
}

func (s *PlayerService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
