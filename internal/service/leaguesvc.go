package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dominoleague/internal/domain"
)

type LeaguesStore interface {
	CreateLeague(ctx context.Context, name, ownerID string, createdAt time.Time) (domain.League, error)
	GetLeague(ctx context.Context, id string) (domain.League, error)
	ListLeaguesFor(ctx context.Context, playerID string) ([]domain.League, error)
	// DeleteLeague removes the league, its memberships and every game tagged
	// with it in one transaction. The only path that ever deletes games.
	DeleteLeague(ctx context.Context, id string) error
	AddMember(ctx context.Context, leagueID, playerID string, joinedAt time.Time) error
	SetMemberActive(ctx context.Context, leagueID, playerID string, active bool) error
	ListMembers(ctx context.Context, leagueID string) ([]domain.LeagueMember, error)
}

type LeagueGamesStore interface {
	ListCompletedLeagueGames(ctx context.Context, leagueID string) ([]domain.Game, error)
}

type LeagueService struct {
	Leagues LeaguesStore
	Games   LeagueGamesStore
	Logger  *slog.Logger
	Now     func() time.Time
}

func (s *LeagueService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *LeagueService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *LeagueService) Create(ctx context.Context, ownerID, name string) (domain.League, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.League{}, domain.NewValidationError(map[string]string{"name": "required"})
	}
	if len(name) > 64 {
		return domain.League{}, domain.NewValidationError(map[string]string{"name": "must be 64 characters or less"})
	}

	now := s.now()
	league, err := s.Leagues.CreateLeague(ctx, name, ownerID, now)
	if err != nil {
		return domain.League{}, fmt.Errorf("create league: %w", err)
	}
	if err := s.Leagues.AddMember(ctx, league.ID, ownerID, now); err != nil {
		return domain.League{}, fmt.Errorf("add owner to league: %w", err)
	}
	return league, nil
}

func (s *LeagueService) Get(ctx context.Context, leagueID string) (domain.League, error) {
	return s.Leagues.GetLeague(ctx, leagueID)
}

// ListFor returns the leagues a player belongs to; degrades to empty on
// backend failure.
func (s *LeagueService) ListFor(ctx context.Context, playerID string) []domain.League {
	leagues, err := s.Leagues.ListLeaguesFor(ctx, playerID)
	if err != nil {
		s.logger().Warn("list leagues failed", "player_id", playerID, "err", err)
		return nil
	}
	return leagues
}

func (s *LeagueService) AddMember(ctx context.Context, leagueID, actingUserID, playerID string) error {
	league, err := s.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	if league.OwnerID != actingUserID {
		return domain.ErrNotAuthorized
	}
	if strings.TrimSpace(playerID) == "" {
		return domain.NewValidationError(map[string]string{"player_id": "required"})
	}
	if err := s.Leagues.AddMember(ctx, leagueID, playerID, s.now()); err != nil {
		return fmt.Errorf("add league member: %w", err)
	}
	return nil
}

// DeactivateMember marks a member inactive rather than deleting the row, so
// their historical games keep counting in the standings.
func (s *LeagueService) DeactivateMember(ctx context.Context, leagueID, actingUserID, playerID string) error {
	league, err := s.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	if league.OwnerID != actingUserID {
		return domain.ErrNotAuthorized
	}
	if playerID == league.OwnerID {
		return domain.NewValidationError(map[string]string{"player_id": "cannot deactivate the league owner"})
	}
	if err := s.Leagues.SetMemberActive(ctx, leagueID, playerID, false); err != nil {
		return fmt.Errorf("deactivate league member: %w", err)
	}
	return nil
}

func (s *LeagueService) Delete(ctx context.Context, leagueID, actingUserID string) error {
	league, err := s.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	if league.OwnerID != actingUserID {
		return domain.ErrNotAuthorized
	}
	if err := s.Leagues.DeleteLeague(ctx, leagueID); err != nil {
		return fmt.Errorf("delete league: %w", err)
	}
	return nil
}

// Standings computes the league table; degrades to empty on backend failure.
func (s *LeagueService) Standings(ctx context.Context, leagueID string) []domain.LeagueStanding {
	members, err := s.Leagues.ListMembers(ctx, leagueID)
	if err != nil {
		s.logger().Warn("league members read failed", "league_id", leagueID, "err", err)
		return nil
	}
	games, err := s.Games.ListCompletedLeagueGames(ctx, leagueID)
	if err != nil {
		s.logger().Warn("league games read failed", "league_id", leagueID, "err", err)
		return nil
	}
	return ComputeLeagueRanking(leagueID, members, games)
}
