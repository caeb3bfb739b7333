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

type LeaguesStore struct {
	pool *pgxpool.Pool
}

func NewLeaguesStore(pool *pgxpool.Pool) *LeaguesStore {
	return &LeaguesStore{pool: pool}
}

func (s *LeaguesStore) CreateLeague(ctx context.Context, name, ownerID string, createdAt time.Time) (domain.League, error) {
	const q = `
		INSERT INTO leagues (name, owner_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id, created_at
	`

	lg, err := scanLeague(s.pool.QueryRow(ctx, q, name, ownerID, createdAt))
	if err != nil {
		return domain.League{}, fmt.Errorf("create league: %w", err)
	}
	return lg, nil
}

func (s *LeaguesStore) GetLeague(ctx context.Context, id string) (domain.League, error) {
	const q = `SELECT id, name, owner_id, created_at FROM leagues WHERE id = $1`

	lg, err := scanLeague(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.League{}, domain.ErrNotFound
		}
		return domain.League{}, fmt.Errorf("get league: %w", err)
	}
	return lg, nil
}

func (s *LeaguesStore) ListLeaguesFor(ctx context.Context, playerID string) ([]domain.League, error) {
	const q = `
		SELECT l.id, l.name, l.owner_id, l.created_at
		FROM leagues l
		JOIN league_members m ON m.league_id = l.id
		WHERE m.player_id = $1 AND m.active
		ORDER BY l.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, playerID)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var out []domain.League
	for rows.Next() {
		lg, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		out = append(out, lg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return out, nil
}

// DeleteLeague removes the league together with its games and memberships.
func (s *LeaguesStore) DeleteLeague(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete league: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM games WHERE league_id = $1`, id); err != nil {
		return fmt.Errorf("delete league games: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM league_members WHERE league_id = $1`, id); err != nil {
		return fmt.Errorf("delete league members: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM leagues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete league: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete league: %w", err)
	}
	return nil
}

func (s *LeaguesStore) AddMember(ctx context.Context, leagueID, playerID string, joinedAt time.Time) error {
	const q = `
		INSERT INTO league_members (league_id, player_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (league_id, player_id) DO UPDATE SET active = TRUE
	`
	if _, err := s.pool.Exec(ctx, q, leagueID, playerID, joinedAt); err != nil {
		return fmt.Errorf("add league member: %w", err)
	}
	return nil
}

func (s *LeaguesStore) SetMemberActive(ctx context.Context, leagueID, playerID string, active bool) error {
	const q = `
		UPDATE league_members SET active = $3
		WHERE league_id = $1 AND player_id = $2
	`
	tag, err := s.pool.Exec(ctx, q, leagueID, playerID, active)
	if err != nil {
		return fmt.Errorf("set league member active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *LeaguesStore) ListMembers(ctx context.Context, leagueID string) ([]domain.LeagueMember, error) {
	const q = `
		SELECT m.league_id, m.player_id, p.name, m.active, m.joined_at
		FROM league_members m
		JOIN players p ON p.id = m.player_id
		WHERE m.league_id = $1
		ORDER BY m.joined_at
	`

	rows, err := s.pool.Query(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	defer rows.Close()

	var out []domain.LeagueMember
	for rows.Next() {
		var (
			m      domain.LeagueMember
			league pgtype.UUID
			player pgtype.UUID
		)
		if err := rows.Scan(&league, &player, &m.Name, &m.Active, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan league member: %w", err)
		}
		m.LeagueID = uuidOrEmpty(league)
		m.PlayerID = uuidOrEmpty(player)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	return out, nil
}

func scanLeague(row rowScanner) (domain.League, error) {
	var (
		lg    domain.League
		id    pgtype.UUID
		owner pgtype.UUID
	)
	if err := row.Scan(&id, &lg.Name, &owner, &lg.CreatedAt); err != nil {
		return domain.League{}, err
	}
	lg.ID = uuidOrEmpty(id)
	lg.OwnerID = uuidOrEmpty(owner)
	return lg, nil
}
