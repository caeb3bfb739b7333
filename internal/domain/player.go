package domain

import "time"

type PlayerStatus string

const (
	PlayerStatusActive   PlayerStatus = "active"
	PlayerStatusDisabled PlayerStatus = "disabled"
)

// PlayerStats holds the cumulative record mutated only at game completion.
type PlayerStats struct {
	GamesPlayed  int        `json:"games_played"`
	GamesWon     int        `json:"games_won"`
	TotalPoints  int        `json:"total_points"`
	WinStreak    int        `json:"win_streak"`
	MaxWinStreak int        `json:"max_win_streak"`
	LastGameAt   *time.Time `json:"last_game_at,omitempty"`
}

func (s PlayerStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.GamesWon) / float64(s.GamesPlayed)
}

// ApplyResult is the canonical stat-update rule for one completed game.
// The postgres store mirrors this in SQL so the update happens inside the
// completion transaction; keep the two in sync.
func (s PlayerStats) ApplyResult(points int, won bool, when time.Time) PlayerStats {
	out := s
	out.GamesPlayed++
	if won {
		out.GamesWon++
		out.WinStreak++
	} else {
		out.WinStreak = 0
	}
	if out.WinStreak > out.MaxWinStreak {
		out.MaxWinStreak = out.WinStreak
	}
	out.TotalPoints += points
	t := when
	out.LastGameAt = &t
	return out
}

type Player struct {
	ID             string       `json:"id"`
	Email          string       `json:"email,omitempty"`
	Name           string       `json:"name"`
	Handle         string       `json:"handle,omitempty"`
	AvatarPath     string       `json:"avatar_path,omitempty"`
	Status         PlayerStatus `json:"status"`
	Stats          PlayerStats  `json:"stats"`
	GlobalRank     int          `json:"global_rank,omitempty"`
	LastRankUpdate *time.Time   `json:"last_rank_update,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastLoginAt    *time.Time   `json:"last_login_at,omitempty"`
}

type PlayerWithPassword struct {
	Player
	PasswordHash string
}

type ExternalAccount struct {
	ID         string
	PlayerID   string
	Provider   string
	ProviderID string
	Email      string
	CreatedAt  time.Time
}

type Session struct {
	ID        string
	PlayerID  string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
