package domain

// RankingEntry is a derived standing for one player within a scope
// (global or time-windowed). Ranks are dense and 1-based.
type RankingEntry struct {
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	TotalPoints int     `json:"total_points"`
	WinRate     float64 `json:"win_rate"`
	Rank        int     `json:"rank"`
}
