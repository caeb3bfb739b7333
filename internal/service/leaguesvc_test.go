package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dominoleague/internal/domain"
)

type stubLeaguesStore struct {
	leagues map[string]domain.League
	members map[string][]domain.LeagueMember

	deleted    []string
	nextID     int
	createErr  error
	membersErr error
}

func newStubLeaguesStore() *stubLeaguesStore {
	return &stubLeaguesStore{
		leagues: make(map[string]domain.League),
		members: make(map[string][]domain.LeagueMember),
	}
}

func (s *stubLeaguesStore) CreateLeague(ctx context.Context, name, ownerID string, createdAt time.Time) (domain.League, error) {
	if s.createErr != nil {
		return domain.League{}, s.createErr
	}
	s.nextID++
	lg := domain.League{ID: "l1", Name: name, OwnerID: ownerID, CreatedAt: createdAt}
	s.leagues[lg.ID] = lg
	return lg, nil
}

func (s *stubLeaguesStore) GetLeague(ctx context.Context, id string) (domain.League, error) {
	lg, ok := s.leagues[id]
	if !ok {
		return domain.League{}, domain.ErrNotFound
	}
	return lg, nil
}

func (s *stubLeaguesStore) ListLeaguesFor(ctx context.Context, playerID string) ([]domain.League, error) {
	var out []domain.League
	for _, lg := range s.leagues {
		for _, m := range s.members[lg.ID] {
			if m.PlayerID == playerID && m.Active {
				out = append(out, lg)
			}
		}
	}
	return out, nil
}

func (s *stubLeaguesStore) DeleteLeague(ctx context.Context, id string) error {
	if _, ok := s.leagues[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.leagues, id)
	delete(s.members, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubLeaguesStore) AddMember(ctx context.Context, leagueID, playerID string, joinedAt time.Time) error {
	for i, m := range s.members[leagueID] {
		if m.PlayerID == playerID {
			s.members[leagueID][i].Active = true
			return nil
		}
	}
	s.members[leagueID] = append(s.members[leagueID], domain.LeagueMember{
		LeagueID: leagueID, PlayerID: playerID, Active: true, JoinedAt: joinedAt,
	})
	return nil
}

func (s *stubLeaguesStore) SetMemberActive(ctx context.Context, leagueID, playerID string, active bool) error {
	for i, m := range s.members[leagueID] {
		if m.PlayerID == playerID {
			s.members[leagueID][i].Active = active
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *stubLeaguesStore) ListMembers(ctx context.Context, leagueID string) ([]domain.LeagueMember, error) {
	if s.membersErr != nil {
		return nil, s.membersErr
	}
	return s.members[leagueID], nil
}

type stubLeagueGames struct {
	games []domain.Game
	err   error
}

func (s *stubLeagueGames) ListCompletedLeagueGames(ctx context.Context, leagueID string) ([]domain.Game, error) {
	return s.games, s.err
}

func newLeagueService(store *stubLeaguesStore, games *stubLeagueGames) *LeagueService {
	if games == nil {
		games = &stubLeagueGames{}
	}
	return &LeagueService{
		Leagues: store,
		Games:   games,
		Now:     func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
}

func TestCreateLeagueAddsOwnerAsMember(t *testing.T) {
	store := newStubLeaguesStore()
	svc := newLeagueService(store, nil)

	lg, err := svc.Create(context.Background(), "u1", "  Friday Night ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lg.Name != "Friday Night" {
		t.Fatalf("name not trimmed: %q", lg.Name)
	}
	members := store.members[lg.ID]
	if len(members) != 1 || members[0].PlayerID != "u1" || !members[0].Active {
		t.Fatalf("owner should be an active member: %+v", members)
	}
}

func TestCreateLeagueValidatesName(t *testing.T) {
	store := newStubLeaguesStore()
	svc := newLeagueService(store, nil)

	if _, err := svc.Create(context.Background(), "u1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := svc.Create(context.Background(), "u1", string(long)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for long name, got %v", err)
	}
}

func TestLeagueMutationsOwnerOnly(t *testing.T) {
	store := newStubLeaguesStore()
	svc := newLeagueService(store, nil)

	lg, err := svc.Create(context.Background(), "u1", "club")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.AddMember(context.Background(), lg.ID, "u2", "u3"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("non-owner add: expected not authorized, got %v", err)
	}
	if err := svc.Delete(context.Background(), lg.ID, "u2"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("non-owner delete: expected not authorized, got %v", err)
	}
	if err := svc.AddMember(context.Background(), lg.ID, "u1", "u3"); err != nil {
		t.Fatalf("owner add: %v", err)
	}
	if err := svc.DeactivateMember(context.Background(), lg.ID, "u1", "u3"); err != nil {
		t.Fatalf("owner deactivate: %v", err)
	}
	if err := svc.DeactivateMember(context.Background(), lg.ID, "u1", "u1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("owner cannot be deactivated, got %v", err)
	}
	if err := svc.Delete(context.Background(), lg.ID, "u1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("league not deleted: %+v", store.deleted)
	}
}

func TestStandingsDegradeOnBackendFailure(t *testing.T) {
	store := newStubLeaguesStore()
	store.membersErr = errors.New("db down")
	svc := newLeagueService(store, nil)

	if standings := svc.Standings(context.Background(), "l1"); standings != nil {
		t.Fatalf("expected nil on failure, got %+v", standings)
	}
}

func TestStandingsComputeFromCompletedGames(t *testing.T) {
	store := newStubLeaguesStore()
	svc := newLeagueService(store, nil)

	lg, err := svc.Create(context.Background(), "u1", "club")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.AddMember(context.Background(), lg.ID, "u1", "u2"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	g := completedGame("g1", "u1", "u2", 150, 90, now)
	g.Config.LeagueID = lg.ID
	svc.Games = &stubLeagueGames{games: []domain.Game{g}}

	standings := svc.Standings(context.Background(), lg.ID)
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(standings))
	}
	if standings[0].PlayerID != "u1" || standings[0].Points != 3 {
		t.Fatalf("winner should lead with 3 points: %+v", standings[0])
	}
}
