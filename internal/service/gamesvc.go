package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"dominoleague/internal/domain"
)

type GamesStore interface {
	CreateGame(ctx context.Context, g domain.Game) (domain.Game, error)
	GetGame(ctx context.Context, id string) (domain.Game, error)
	// UpdateGame writes the game back with a compare-and-swap on Version and
	// returns the refreshed row. A lost race yields domain.ErrConflict.
	UpdateGame(ctx context.Context, g domain.Game) (domain.Game, error)
	// CompleteGame commits the completed game, every participant's stat
	// update and the global rank recompute in a single transaction.
	CompleteGame(ctx context.Context, g domain.Game, results []domain.PlayerResult) (domain.Game, error)
	// EngagedGameFor returns the game currently blocking a player (any
	// non-terminal status, pending invitations included), or
	// domain.ErrNotFound. ignoreGameID excludes one game from the
	// search; pass "" to consider them all.
	EngagedGameFor(ctx context.Context, playerID, ignoreGameID string) (domain.Game, error)
	ListGamesForPlayer(ctx context.Context, playerID string, limit int) ([]domain.Game, error)
	ListInvitationsFor(ctx context.Context, playerID string) ([]domain.Game, error)
}

// CompletionListener is notified after a game's completion transaction has
// committed. Failures here must not fail the confirmation.
type CompletionListener interface {
	GameCompleted(ctx context.Context, g domain.Game)
}

const defaultRejectReason = "invitation declined"

// GameService owns the lifecycle state machine:
// invited -> accepted|rejected, accepted -> in_progress,
// in_progress <-> waiting_confirmation, waiting_confirmation -> completed.
type GameService struct {
	Games     GamesStore
	Completed CompletionListener
	Logger    *slog.Logger
	Now       func() time.Time
	IntN      func(n int) int
}

func (s *GameService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *GameService) intN(n int) int {
	if s.IntN == nil {
		return rand.IntN(n)
	}
	return s.IntN(n)
}

func (s *GameService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

type CreateGameParams struct {
	OpponentIDs []string
	Config      domain.GameConfig
	Teams       *domain.Teams
}

func (s *GameService) Create(ctx context.Context, creatorID string, p CreateGameParams) (domain.Game, error) {
	if creatorID == "" {
		return domain.Game{}, domain.ErrNotAuthenticated
	}

	seen := map[string]bool{creatorID: true}
	opponents := make([]string, 0, len(p.OpponentIDs))
	for _, id := range p.OpponentIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		opponents = append(opponents, id)
	}
	if len(opponents) == 0 {
		return domain.Game{}, domain.NewValidationError(map[string]string{"opponent_ids": "at least one opponent is required"})
	}

	cfg := p.Config
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeHeadToHead
	}
	if cfg.StartingPlayer == "" {
		cfg.StartingPlayer = domain.StartRandom
	}
	if err := domain.ValidateConfig(cfg); err != nil {
		return domain.Game{}, err
	}

	switch cfg.Mode {
	case domain.ModeHeadToHead:
		if len(opponents) != 1 {
			return domain.Game{}, domain.NewValidationError(map[string]string{"opponent_ids": "head-to-head games have exactly one opponent"})
		}
		if p.Teams != nil {
			return domain.Game{}, domain.NewValidationError(map[string]string{"teams": "not allowed for head-to-head games"})
		}
	case domain.ModeTeam:
		if err := domain.ValidateTeams(creatorID, opponents, p.Teams); err != nil {
			return domain.Game{}, err
		}
	}

	now := s.now()
	g := domain.Game{
		CreatorID:   creatorID,
		OpponentIDs: opponents,
		Teams:       p.Teams,
		Config:      cfg,
		Status:      domain.StatusInvited,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	g.Config.NumPlayers = len(g.Participants())

	for _, id := range g.Participants() {
		if err := s.checkNotEngaged(ctx, id, ""); err != nil {
			return domain.Game{}, err
		}
	}

	created, err := s.Games.CreateGame(ctx, g)
	if err != nil {
		return domain.Game{}, fmt.Errorf("create game: %w", err)
	}
	return created, nil
}

func (s *GameService) Accept(ctx context.Context, gameID, actingUserID string) (domain.Game, error) {
	g, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if actingUserID != g.SideLead(domain.SideOpponent) {
		return domain.Game{}, domain.ErrNotAuthorized
	}
	if g.Status != domain.StatusInvited {
		return domain.Game{}, domain.ErrInvalidState
	}

	// The invitation may have sat for a while; both parties could have
	// joined other games in the meantime.
	for _, id := range g.SideMembers(domain.SideOpponent) {
		if err := s.checkNotEngaged(ctx, id, g.ID); err != nil {
			return domain.Game{}, err
		}
	}
	for _, id := range g.SideMembers(domain.SideCreator) {
		if err := s.checkNotEngaged(ctx, id, g.ID); err != nil {
			if !errors.Is(err, domain.ErrActiveGameConflict) {
				return domain.Game{}, err
			}
			// The creator moved on: reject this invitation on their behalf
			// and still report the conflict to the accepter.
			g.Status = domain.StatusRejected
			g.RejectReason = "creator joined another game"
			g.UpdatedAt = s.now()
			if _, updErr := s.Games.UpdateGame(ctx, g); updErr != nil {
				s.logger().Warn("auto-reject failed", "game_id", g.ID, "err", updErr)
			}
			return domain.Game{}, err
		}
	}

	g.Status = domain.StatusAccepted
	g.ActivePlayer = s.resolveStartingPlayer(&g)
	g.UpdatedAt = s.now()

	updated, err := s.Games.UpdateGame(ctx, g)
	if err != nil {
		return domain.Game{}, fmt.Errorf("accept game: %w", err)
	}
	return updated, nil
}

func (s *GameService) Reject(ctx context.Context, gameID, actingUserID, reason string) (domain.Game, error) {
	g, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if actingUserID != g.SideLead(domain.SideOpponent) {
		return domain.Game{}, domain.ErrNotAuthorized
	}
	if g.Status != domain.StatusInvited {
		return domain.Game{}, domain.ErrInvalidState
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectReason
	}

	g.Status = domain.StatusRejected
	g.RejectReason = reason
	g.UpdatedAt = s.now()

	updated, err := s.Games.UpdateGame(ctx, g)
	if err != nil {
		return domain.Game{}, fmt.Errorf("reject game: %w", err)
	}
	return updated, nil
}

func (s *GameService) Start(ctx context.Context, gameID, actingUserID string) (domain.Game, error) {
	g, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if !g.IsParticipant(actingUserID) {
		return domain.Game{}, domain.ErrNotAuthorized
	}
	if g.Status != domain.StatusAccepted {
		return domain.Game{}, domain.ErrInvalidState
	}

	g.Status = domain.StatusInProgress
	g.ActivePlayer = s.resolveStartingPlayer(&g)
	g.UpdatedAt = s.now()

	updated, err := s.Games.UpdateGame(ctx, g)
	if err != nil {
		return domain.Game{}, fmt.Errorf("start game: %w", err)
	}
	return updated, nil
}

func (s *GameService) SubmitScore(ctx context.Context, gameID, actingUserID string, creatorScore, opponentScore int) (domain.Game, error) {
	g, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if !g.IsParticipant(actingUserID) {
		return domain.Game{}, domain.ErrNotAuthorized
	}
	if g.Status != domain.StatusAccepted && g.Status != domain.StatusInProgress {
		return domain.Game{}, domain.ErrInvalidState
	}
	if actingUserID != g.ActivePlayer {
		return domain.Game{}, domain.ErrNotYourTurn
	}
	if creatorScore < 0 || opponentScore < 0 {
		return domain.Game{}, domain.NewValidationError(map[string]string{"scores": "must not be negative"})
	}
	if creatorScore < g.Config.PointsToWin && opponentScore < g.Config.PointsToWin {
		return domain.Game{}, domain.ErrScoreNotDecisive
	}

	g.Score = &domain.Score{Creator: creatorScore, Opponent: opponentScore}
	switch {
	case creatorScore > opponentScore:
		g.Winner = domain.SideCreator
	case opponentScore > creatorScore:
		g.Winner = domain.SideOpponent
	default:
		g.Winner = ""
	}
	g.Status = domain.StatusWaitingConfirmation
	g.ConfirmedBy = g.OpposingLead(actingUserID)
	g.ActivePlayer = ""
	g.UpdatedAt = s.now()

	updated, err := s.Games.UpdateGame(ctx, g)
	if err != nil {
		return domain.Game{}, fmt.Errorf("submit score: %w", err)
	}
	return updated, nil
}

func (s *GameService) ConfirmResult(ctx context.Context, gameID, actingUserID string, accept bool) (domain.Game, error) {
	g, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if g.Status != domain.StatusWaitingConfirmation {
		return domain.Game{}, domain.ErrInvalidState
	}
	if actingUserID == "" || actingUserID != g.ConfirmedBy {
		return domain.Game{}, domain.ErrNotAuthorized
	}

	now := s.now()

	if !accept {
		// Disputed result: the submitter re-enters the scores.
		g.ActivePlayer = g.OpposingLead(g.ConfirmedBy)
		g.Score = nil
		g.Winner = ""
		g.Status = domain.StatusInProgress
		g.ConfirmedBy = ""
		g.UpdatedAt = now

		updated, err := s.Games.UpdateGame(ctx, g)
		if err != nil {
			return domain.Game{}, fmt.Errorf("dispute result: %w", err)
		}
		return updated, nil
	}

	results := g.Results()

	g.Status = domain.StatusCompleted
	g.ConfirmedBy = ""
	g.ActivePlayer = ""
	g.UpdatedAt = now
	g.CompletedAt = &now

	completed, err := s.Games.CompleteGame(ctx, g, results)
	if err != nil {
		return domain.Game{}, fmt.Errorf("complete game: %w", err)
	}

	if s.Completed != nil {
		s.Completed.GameCompleted(ctx, completed)
	}
	return completed, nil
}

func (s *GameService) GetGame(ctx context.Context, gameID, actingUserID string) (domain.Game, error) {
	g, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if !g.IsParticipant(actingUserID) {
		return domain.Game{}, domain.ErrNotAuthorized
	}
	return g, nil
}

// ActiveGame returns the game currently engaging the player, or
// domain.ErrNotFound when they are free to start one.
func (s *GameService) ActiveGame(ctx context.Context, playerID string) (domain.Game, error) {
	return s.Games.EngagedGameFor(ctx, playerID, "")
}

// ListGames returns the caller's game history, newest first. Backend
// failures degrade to an empty list so dashboards stay up.
func (s *GameService) ListGames(ctx context.Context, playerID string, limit int) []domain.Game {
	games, err := s.Games.ListGamesForPlayer(ctx, playerID, limit)
	if err != nil {
		s.logger().Warn("list games failed", "player_id", playerID, "err", err)
		return nil
	}
	return games
}

// ListInvitations returns pending invitations addressed to the player.
func (s *GameService) ListInvitations(ctx context.Context, playerID string) []domain.Game {
	games, err := s.Games.ListInvitationsFor(ctx, playerID)
	if err != nil {
		s.logger().Warn("list invitations failed", "player_id", playerID, "err", err)
		return nil
	}
	return games
}

// checkNotEngaged fails with ErrActiveGameConflict when the player already
// has an open game. ignoreGameID lets accept-time re-checks skip the
// invitation being acted on.
func (s *GameService) checkNotEngaged(ctx context.Context, playerID, ignoreGameID string) error {
	g, err := s.Games.EngagedGameFor(ctx, playerID, ignoreGameID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("check engaged game for %s: %w", playerID, err)
	}
	return fmt.Errorf("player %s is in game %s: %w", playerID, g.ID, domain.ErrActiveGameConflict)
}

func (s *GameService) resolveStartingPlayer(g *domain.Game) string {
	switch g.Config.StartingPlayer {
	case domain.StartCreator:
		return g.SideLead(domain.SideCreator)
	case domain.StartOpponent:
		return g.SideLead(domain.SideOpponent)
	default:
		if s.intN(2) == 0 {
			return g.SideLead(domain.SideCreator)
		}
		return g.SideLead(domain.SideOpponent)
	}
}
