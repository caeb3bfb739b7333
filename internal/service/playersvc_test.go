package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dominoleague/internal/domain"
)

type stubProfileStore struct {
	player domain.Player

	names   map[string]string
	handles map[string]string
	avatars map[string]string
}

func newStubProfileStore(p domain.Player) *stubProfileStore {
	return &stubProfileStore{
		player:  p,
		names:   make(map[string]string),
		handles: make(map[string]string),
		avatars: make(map[string]string),
	}
}

func (s *stubProfileStore) GetPlayerByID(ctx context.Context, id string) (domain.Player, error) {
	if id != s.player.ID {
		return domain.Player{}, domain.ErrNotFound
	}
	return s.player, nil
}

func (s *stubProfileStore) SetName(ctx context.Context, playerID, name string) error {
	s.names[playerID] = name
	return nil
}

func (s *stubProfileStore) SetHandle(ctx context.Context, playerID, handle string) error {
	if s.player.Handle != "" {
		return domain.ErrHandleImmutable
	}
	s.handles[playerID] = handle
	return nil
}

func (s *stubProfileStore) SetAvatar(ctx context.Context, playerID, avatarPath string, updatedAt time.Time) error {
	s.avatars[playerID] = avatarPath
	return nil
}

func TestGetBlanksEmail(t *testing.T) {
	store := newStubProfileStore(domain.Player{ID: "p1", Email: "p1@example.com", Name: "one"})
	svc := &PlayerService{Store: store}

	p, err := svc.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Email != "" {
		t.Fatalf("public profile must not expose email, got %q", p.Email)
	}
}

func TestUpdateNameValidation(t *testing.T) {
	store := newStubProfileStore(domain.Player{ID: "p1"})
	svc := &PlayerService{Store: store}

	if err := svc.UpdateName(context.Background(), "p1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty name: expected validation error, got %v", err)
	}
	if err := svc.UpdateName(context.Background(), "p1", "a\x01b"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("control chars: expected validation error, got %v", err)
	}
	if err := svc.UpdateName(context.Background(), "p1", "  Dot Counter  "); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	if store.names["p1"] != "Dot Counter" {
		t.Fatalf("name should be trimmed: %q", store.names["p1"])
	}
}

func TestSetHandleNormalizesAndValidates(t *testing.T) {
	store := newStubProfileStore(domain.Player{ID: "p1"})
	svc := &PlayerService{Store: store}

	for _, bad := range []string{"ab", "has space", "Ünïcode", ""} {
		if err := svc.SetHandle(context.Background(), "p1", bad); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("handle %q: expected validation error, got %v", bad, err)
		}
	}

	if err := svc.SetHandle(context.Background(), "p1", "  DotKing_99 "); err != nil {
		t.Fatalf("set handle: %v", err)
	}
	if store.handles["p1"] != "dotking_99" {
		t.Fatalf("handle should be lowercased, got %q", store.handles["p1"])
	}
}

func TestUpdateAvatarUsesFallbackClock(t *testing.T) {
	store := newStubProfileStore(domain.Player{ID: "p1"})
	svc := &PlayerService{Store: store}

	if err := svc.UpdateAvatar(context.Background(), "p1", "avatars/p1.jpg"); err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if store.avatars["p1"] != "avatars/p1.jpg" {
		t.Fatalf("avatar not stored: %q", store.avatars["p1"])
	}
	if svc.Now != nil {
		t.Fatal("fallback clock mutated the service")
	}
}

func TestSetHandleImmutableOnceSet(t *testing.T) {
	store := newStubProfileStore(domain.Player{ID: "p1", Handle: "taken"})
	svc := &PlayerService{Store: store}

	if err := svc.SetHandle(context.Background(), "p1", "newhandle"); !errors.Is(err, domain.ErrHandleImmutable) {
		t.Fatalf("expected handle immutable, got %v", err)
	}
}
