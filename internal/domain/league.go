package domain

import "time"

type League struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type LeagueMember struct {
	LeagueID string    `json:"league_id"`
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joined_at"`
}

// LeagueStanding is one row of a league table. Points follow the 3/1/0
// scheme: 3 to the winning side, 1 to each side on a draw, 0 to the loser.
type LeagueStanding struct {
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Points      int     `json:"points"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	Draws       int     `json:"draws"`
	WinRate     float64 `json:"win_rate"`
	Rank        int     `json:"rank"`
}
