package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dominoleague/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GamesStore struct {
	pool *pgxpool.Pool
}

func NewGamesStore(pool *pgxpool.Pool) *GamesStore {
	return &GamesStore{pool: pool}
}

const gameColumns = `
	id, mode, creator_id, opponent_ids, team_a, team_b,
	points_to_win, num_players, starting_player, ruleset, league_id,
	status, active_player, score_creator, score_opponent, winner,
	confirmed_by, reject_reason, version, created_at, updated_at, completed_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanGame validates the row shape at the read boundary: a malformed game
// document is an error, never a silently-defaulted struct.
func scanGame(row rowScanner) (domain.Game, error) {
	var (
		g            domain.Game
		idUUID       pgtype.UUID
		creatorUUID  pgtype.UUID
		opponents    pgtype.FlatArray[string]
		teamA        pgtype.FlatArray[string]
		teamB        pgtype.FlatArray[string]
		ruleset      pgtype.Text
		leagueUUID   pgtype.UUID
		activeUUID   pgtype.UUID
		scoreA       pgtype.Int4
		scoreB       pgtype.Int4
		winner       pgtype.Text
		confirmUUID  pgtype.UUID
		rejectReason pgtype.Text
		completedTS  pgtype.Timestamptz
	)

	err := row.Scan(
		&idUUID,
		&g.Config.Mode,
		&creatorUUID,
		&opponents,
		&teamA,
		&teamB,
		&g.Config.PointsToWin,
		&g.Config.NumPlayers,
		&g.Config.StartingPlayer,
		&ruleset,
		&leagueUUID,
		&g.Status,
		&activeUUID,
		&scoreA,
		&scoreB,
		&winner,
		&confirmUUID,
		&rejectReason,
		&g.Version,
		&g.CreatedAt,
		&g.UpdatedAt,
		&completedTS,
	)
	if err != nil {
		return domain.Game{}, err
	}

	g.ID = uuidOrEmpty(idUUID)
	g.CreatorID = uuidOrEmpty(creatorUUID)
	g.OpponentIDs = textArrayOrNil(opponents)
	if a, b := textArrayOrNil(teamA), textArrayOrNil(teamB); len(a) > 0 || len(b) > 0 {
		g.Teams = &domain.Teams{SideA: a, SideB: b}
	}
	g.Config.Ruleset = textOrEmpty(ruleset)
	g.Config.LeagueID = uuidOrEmpty(leagueUUID)
	g.ActivePlayer = uuidOrEmpty(activeUUID)
	if scoreA.Valid != scoreB.Valid {
		return domain.Game{}, fmt.Errorf("game %s: half-set score", g.ID)
	}
	if scoreA.Valid {
		g.Score = &domain.Score{Creator: int(scoreA.Int32), Opponent: int(scoreB.Int32)}
	}
	g.Winner = domain.Side(textOrEmpty(winner))
	g.ConfirmedBy = uuidOrEmpty(confirmUUID)
	g.RejectReason = textOrEmpty(rejectReason)
	g.CompletedAt = timestamptzPtr(completedTS)

	switch g.Config.Mode {
	case domain.ModeHeadToHead, domain.ModeTeam:
	default:
		return domain.Game{}, fmt.Errorf("game %s: unknown mode %q", g.ID, g.Config.Mode)
	}
	switch g.Status {
	case domain.StatusInvited, domain.StatusAccepted, domain.StatusRejected,
		domain.StatusInProgress, domain.StatusWaitingConfirmation, domain.StatusCompleted:
	default:
		return domain.Game{}, fmt.Errorf("game %s: unknown status %q", g.ID, g.Status)
	}

	return g, nil
}

func (s *GamesStore) CreateGame(ctx context.Context, g domain.Game) (domain.Game, error) {
	const q = `
		INSERT INTO games (
			mode, creator_id, opponent_ids, team_a, team_b,
			points_to_win, num_players, starting_player, ruleset, league_id,
			status, version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
		RETURNING ` + gameColumns

	var teamA, teamB any
	if g.Teams != nil {
		teamA = g.Teams.SideA
		teamB = g.Teams.SideB
	}

	created, err := scanGame(s.pool.QueryRow(ctx, q,
		g.Config.Mode,
		g.CreatorID,
		g.OpponentIDs,
		teamA,
		teamB,
		g.Config.PointsToWin,
		g.Config.NumPlayers,
		g.Config.StartingPlayer,
		nullIfEmpty(g.Config.Ruleset),
		nullIfEmpty(g.Config.LeagueID),
		g.Status,
		g.CreatedAt,
		g.UpdatedAt,
	))
	if err != nil {
		return domain.Game{}, fmt.Errorf("insert game: %w", err)
	}
	return created, nil
}

func (s *GamesStore) GetGame(ctx context.Context, id string) (domain.Game, error) {
	const q = `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	g, err := scanGame(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Game{}, domain.ErrNotFound
		}
		return domain.Game{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

const updateGameSet = `
	status = $2,
	active_player = $3,
	score_creator = $4,
	score_opponent = $5,
	winner = $6,
	confirmed_by = $7,
	reject_reason = $8,
	updated_at = $9,
	completed_at = $10,
	version = version + 1
`

func gameUpdateArgs(g domain.Game) []any {
	var scoreA, scoreB any
	if g.Score != nil {
		scoreA = g.Score.Creator
		scoreB = g.Score.Opponent
	}
	var completedAt any
	if g.CompletedAt != nil {
		completedAt = *g.CompletedAt
	}
	return []any{
		g.ID,
		g.Status,
		nullIfEmpty(g.ActivePlayer),
		scoreA,
		scoreB,
		nullIfEmpty(string(g.Winner)),
		nullIfEmpty(g.ConfirmedBy),
		nullIfEmpty(g.RejectReason),
		g.UpdatedAt,
		completedAt,
		g.Version,
	}
}

// UpdateGame writes the mutable fields back guarded by a version check, so a
// concurrent writer loses with domain.ErrConflict instead of silently being
// overwritten.
func (s *GamesStore) UpdateGame(ctx context.Context, g domain.Game) (domain.Game, error) {
	const q = `
		UPDATE games SET ` + updateGameSet + `
		WHERE id = $1 AND version = $11
		RETURNING ` + gameColumns

	updated, err := scanGame(s.pool.QueryRow(ctx, q, gameUpdateArgs(g)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Game{}, s.classifyMissedUpdate(ctx, g.ID)
		}
		return domain.Game{}, fmt.Errorf("update game: %w", err)
	}
	return updated, nil
}

// CompleteGame commits the terminal transition, every participant's stat
// update and the global rank recompute in one transaction, so a crash can
// never leave a completed game with stale player stats.
func (s *GamesStore) CompleteGame(ctx context.Context, g domain.Game, results []domain.PlayerResult) (domain.Game, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Game{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
		UPDATE games SET ` + updateGameSet + `
		WHERE id = $1 AND version = $11
		RETURNING ` + gameColumns

	completed, err := scanGame(tx.QueryRow(ctx, q, gameUpdateArgs(g)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Game{}, s.classifyMissedUpdate(ctx, g.ID)
		}
		return domain.Game{}, fmt.Errorf("complete game: %w", err)
	}

	// Mirrors domain.PlayerStats.ApplyResult.
	const statsQ = `
		UPDATE players SET
			games_played = games_played + 1,
			games_won = games_won + CASE WHEN $2 THEN 1 ELSE 0 END,
			total_points = total_points + $3,
			win_streak = CASE WHEN $2 THEN win_streak + 1 ELSE 0 END,
			max_win_streak = GREATEST(max_win_streak, CASE WHEN $2 THEN win_streak + 1 ELSE 0 END),
			last_game_at = $4,
			updated_at = $4
		WHERE id = $1
	`
	for _, r := range results {
		if _, err := tx.Exec(ctx, statsQ, r.PlayerID, r.Won, r.PointsScored, g.UpdatedAt); err != nil {
			return domain.Game{}, fmt.Errorf("update stats for %s: %w", r.PlayerID, err)
		}
	}

	// Full recompute on every completion; matches ComputeGlobalRanking's
	// tie-break order with the player id as the final stable key.
	const rankQ = `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (
				ORDER BY games_won DESC, total_points DESC,
					games_won::float8 / NULLIF(games_played, 0)::float8 DESC, id
			) AS pos
			FROM players
			WHERE games_played > 0
		)
		UPDATE players p
		SET global_rank = r.pos, last_rank_update = $1
		FROM ranked r
		WHERE p.id = r.id
	`
	if _, err := tx.Exec(ctx, rankQ, g.UpdatedAt); err != nil {
		return domain.Game{}, fmt.Errorf("recompute ranks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Game{}, fmt.Errorf("commit tx: %w", err)
	}
	return completed, nil
}

func (s *GamesStore) classifyMissedUpdate(ctx context.Context, gameID string) error {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return err
	}
	return domain.ErrConflict
}

func (s *GamesStore) EngagedGameFor(ctx context.Context, playerID, ignoreGameID string) (domain.Game, error) {
	const q = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status IN ('invited', 'accepted', 'in_progress', 'waiting_confirmation')
		  AND id::text <> $2
		  AND (creator_id = $1
			OR $1::uuid = ANY(opponent_ids)
			OR $1::uuid = ANY(team_a)
			OR $1::uuid = ANY(team_b))
		LIMIT 1
	`

	g, err := scanGame(s.pool.QueryRow(ctx, q, playerID, ignoreGameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Game{}, domain.ErrNotFound
		}
		return domain.Game{}, fmt.Errorf("engaged game for %s: %w", playerID, err)
	}
	return g, nil
}

func (s *GamesStore) ListGamesForPlayer(ctx context.Context, playerID string, limit int) ([]domain.Game, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	const q = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE creator_id = $1
		   OR $1::uuid = ANY(opponent_ids)
		   OR $1::uuid = ANY(team_a)
		   OR $1::uuid = ANY(team_b)
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.listGames(ctx, q, playerID, limit)
}

func (s *GamesStore) ListInvitationsFor(ctx context.Context, playerID string) ([]domain.Game, error) {
	const q = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status = 'invited'
		  AND ($1::uuid = ANY(opponent_ids) OR $1::uuid = ANY(team_b))
		ORDER BY created_at DESC
	`
	return s.listGames(ctx, q, playerID)
}

func (s *GamesStore) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]domain.Game, error) {
	const q = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status = 'completed' AND completed_at BETWEEN $1 AND $2
		ORDER BY completed_at
	`
	return s.listGames(ctx, q, start, end)
}

func (s *GamesStore) ListCompletedLeagueGames(ctx context.Context, leagueID string) ([]domain.Game, error) {
	const q = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status = 'completed' AND league_id = $1
		ORDER BY completed_at
	`
	return s.listGames(ctx, q, leagueID)
}

func (s *GamesStore) listGames(ctx context.Context, q string, args ...any) ([]domain.Game, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}
