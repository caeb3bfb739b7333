package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dominoleague/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlayersStore struct {
	pool *pgxpool.Pool
}

func NewPlayersStore(pool *pgxpool.Pool) *PlayersStore {
	return &PlayersStore{pool: pool}
}

const playerColumns = `
	id, email, name, handle, avatar_path, status,
	games_played, games_won, total_points, win_streak, max_win_streak, last_game_at,
	global_rank, last_rank_update, created_at, updated_at, last_login_at
`

func scanPlayer(row rowScanner) (domain.Player, error) {
	var (
		p          domain.Player
		idUUID     pgtype.UUID
		email      pgtype.Text
		handle     pgtype.Text
		avatar     pgtype.Text
		lastGameTS pgtype.Timestamptz
		rank       pgtype.Int4
		rankTS     pgtype.Timestamptz
		lastLogin  pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&email,
		&p.Name,
		&handle,
		&avatar,
		&p.Status,
		&p.Stats.GamesPlayed,
		&p.Stats.GamesWon,
		&p.Stats.TotalPoints,
		&p.Stats.WinStreak,
		&p.Stats.MaxWinStreak,
		&lastGameTS,
		&rank,
		&rankTS,
		&p.CreatedAt,
		&p.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		return domain.Player{}, err
	}

	p.ID = uuidOrEmpty(idUUID)
	p.Email = textOrEmpty(email)
	p.Handle = textOrEmpty(handle)
	p.AvatarPath = textOrEmpty(avatar)
	p.Stats.LastGameAt = timestamptzPtr(lastGameTS)
	p.GlobalRank = int4OrZero(rank)
	p.LastRankUpdate = timestamptzPtr(rankTS)
	p.LastLoginAt = timestamptzPtr(lastLogin)
	return p, nil
}

func (s *PlayersStore) CreatePlayer(ctx context.Context, email, name, passwordHash string) (domain.Player, error) {
	const q = `
		INSERT INTO players (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + playerColumns

	p, err := scanPlayer(s.pool.QueryRow(ctx, q, nullIfEmpty(email), name, nullIfEmpty(passwordHash)))
	if err != nil {
		return domain.Player{}, mapPlayerWriteError(err)
	}
	return p, nil
}

func (s *PlayersStore) GetPlayerByID(ctx context.Context, id string) (domain.Player, error) {
	const q = `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Player{}, domain.ErrNotFound
		}
		return domain.Player{}, fmt.Errorf("get player by id: %w", err)
	}
	return p, nil
}

func (s *PlayersStore) GetPlayerByLogin(ctx context.Context, login string) (domain.PlayerWithPassword, error) {
	const q = `
		SELECT ` + playerColumns + `, password_hash
		FROM players
		WHERE handle = $1 OR (email IS NOT NULL AND email = $1)
		ORDER BY (handle = $1) DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, q, login)

	var (
		p          domain.Player
		idUUID     pgtype.UUID
		email      pgtype.Text
		handle     pgtype.Text
		avatar     pgtype.Text
		lastGameTS pgtype.Timestamptz
		rank       pgtype.Int4
		rankTS     pgtype.Timestamptz
		lastLogin  pgtype.Timestamptz
		pwHash     pgtype.Text
	)
	err := row.Scan(
		&idUUID,
		&email,
		&p.Name,
		&handle,
		&avatar,
		&p.Status,
		&p.Stats.GamesPlayed,
		&p.Stats.GamesWon,
		&p.Stats.TotalPoints,
		&p.Stats.WinStreak,
		&p.Stats.MaxWinStreak,
		&lastGameTS,
		&rank,
		&rankTS,
		&p.CreatedAt,
		&p.UpdatedAt,
		&lastLogin,
		&pwHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PlayerWithPassword{}, domain.ErrNotFound
		}
		return domain.PlayerWithPassword{}, fmt.Errorf("get player by login: %w", err)
	}

	p.ID = uuidOrEmpty(idUUID)
	p.Email = textOrEmpty(email)
	p.Handle = textOrEmpty(handle)
	p.AvatarPath = textOrEmpty(avatar)
	p.Stats.LastGameAt = timestamptzPtr(lastGameTS)
	p.GlobalRank = int4OrZero(rank)
	p.LastRankUpdate = timestamptzPtr(rankTS)
	p.LastLoginAt = timestamptzPtr(lastLogin)

	return domain.PlayerWithPassword{Player: p, PasswordHash: textOrEmpty(pwHash)}, nil
}

func (s *PlayersStore) GetPlayerByExternalAccount(ctx context.Context, provider, providerID string) (domain.Player, error) {
	const q = `
		SELECT ` + playerColumns + `
		FROM players
		JOIN external_accounts ea ON ea.player_id = players.id
		WHERE ea.provider = $1 AND ea.provider_id = $2
		LIMIT 1
	`

	p, err := scanPlayer(s.pool.QueryRow(ctx, q, provider, providerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Player{}, domain.ErrNotFound
		}
		return domain.Player{}, fmt.Errorf("get player by external account: %w", err)
	}
	return p, nil
}

func (s *PlayersStore) LinkExternalAccount(ctx context.Context, playerID, provider, providerID, email string) error {
	const q = `
		INSERT INTO external_accounts (player_id, provider, provider_id, email)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.pool.Exec(ctx, q, playerID, provider, providerID, nullIfEmpty(email)); err != nil {
		return fmt.Errorf("link external account: %w", err)
	}
	return nil
}

func (s *PlayersStore) SetLastLogin(ctx context.Context, playerID string, when time.Time) error {
	const q = `UPDATE players SET last_login_at = $2 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, playerID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

func (s *PlayersStore) SetName(ctx context.Context, playerID, name string) error {
	const q = `UPDATE players SET name = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, playerID, name)
	if err != nil {
		return fmt.Errorf("set name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetHandle claims a handle exactly once per player; a second attempt fails
// with domain.ErrHandleImmutable.
func (s *PlayersStore) SetHandle(ctx context.Context, playerID, handle string) error {
	const q = `
		UPDATE players SET handle = $2, updated_at = now()
		WHERE id = $1 AND handle IS NULL
	`
	tag, err := s.pool.Exec(ctx, q, playerID, handle)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.ConstraintName == "players_handle_uq" {
			return domain.ErrHandleTaken
		}
		return fmt.Errorf("set handle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		p, getErr := s.GetPlayerByID(ctx, playerID)
		if getErr != nil {
			return getErr
		}
		if p.Handle != "" {
			return domain.ErrHandleImmutable
		}
		return domain.ErrNotFound
	}
	return nil
}

func (s *PlayersStore) SetAvatar(ctx context.Context, playerID, avatarPath string, updatedAt time.Time) error {
	const q = `UPDATE players SET avatar_path = $2, updated_at = $3 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, playerID, avatarPath, updatedAt)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PlayersStore) ListRankedPlayers(ctx context.Context) ([]domain.Player, error) {
	const q = `
		SELECT ` + playerColumns + `
		FROM players
		WHERE games_played > 0
		ORDER BY games_won DESC, total_points DESC,
			games_won::float8 / NULLIF(games_played, 0)::float8 DESC, id
	`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list ranked players: %w", err)
	}
	defer rows.Close()

	var out []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ranked players: %w", err)
	}
	return out, nil
}

func (s *PlayersStore) GetPlayersByID(ctx context.Context, ids []string) (map[string]domain.Player, error) {
	if len(ids) == 0 {
		return map[string]domain.Player{}, nil
	}

	const q = `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1::uuid[])`

	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("get players by id: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Player, len(ids))
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get players by id: %w", err)
	}
	return out, nil
}

func mapPlayerWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		switch pgerr.ConstraintName {
		case "players_email_uq":
			return domain.ErrEmailTaken
		case "players_handle_uq":
			return domain.ErrHandleTaken
		}
	}
	return fmt.Errorf("write player: %w", err)
}
