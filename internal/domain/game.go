package domain

import "time"

type GameMode string

const (
	ModeHeadToHead GameMode = "head_to_head"
	ModeTeam       GameMode = "team"
)

type GameStatus string

const (
	StatusInvited             GameStatus = "invited"
	StatusAccepted            GameStatus = "accepted"
	StatusRejected            GameStatus = "rejected"
	StatusInProgress          GameStatus = "in_progress"
	StatusWaitingConfirmation GameStatus = "waiting_confirmation"
	StatusCompleted           GameStatus = "completed"
)

// Terminal reports whether no further transition is legal.
func (s GameStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// Engaged reports whether the game blocks its participants from entering
// another game. A pending invitation counts: a player holds one open game
// at a time, whatever its stage.
func (s GameStatus) Engaged() bool {
	switch s {
	case StatusInvited, StatusAccepted, StatusInProgress, StatusWaitingConfirmation:
		return true
	}
	return false
}

type StartingPlayer string

const (
	StartCreator  StartingPlayer = "creator"
	StartOpponent StartingPlayer = "opponent"
	StartRandom   StartingPlayer = "random"
)

type Side string

const (
	SideCreator  Side = "creator"
	SideOpponent Side = "opponent"
)

// GameConfig is immutable after creation.
type GameConfig struct {
	Mode           GameMode       `json:"mode"`
	PointsToWin    int            `json:"points_to_win"`
	NumPlayers     int            `json:"num_players"`
	StartingPlayer StartingPlayer `json:"starting_player"`
	Ruleset        string         `json:"ruleset,omitempty"`
	LeagueID       string         `json:"league_id,omitempty"`
}

// Teams assigns every participant of a team game to one of the two sides.
// SideA always contains the creator, SideB is drawn from the opponents.
type Teams struct {
	SideA []string `json:"side_a"`
	SideB []string `json:"side_b"`
}

type Score struct {
	Creator  int `json:"creator"`
	Opponent int `json:"opponent"`
}

type Game struct {
	ID           string     `json:"id"`
	CreatorID    string     `json:"creator_id"`
	OpponentIDs  []string   `json:"opponent_ids"`
	Teams        *Teams     `json:"teams,omitempty"`
	Config       GameConfig `json:"config"`
	Status       GameStatus `json:"status"`
	ActivePlayer string     `json:"active_player,omitempty"`
	Score        *Score     `json:"score,omitempty"`
	Winner       Side       `json:"winner,omitempty"`
	ConfirmedBy  string     `json:"confirmed_by,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Participants returns every player id involved in the game, team members
// included, without duplicates.
func (g *Game) Participants() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 1+len(g.OpponentIDs))
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	add(g.CreatorID)
	for _, id := range g.OpponentIDs {
		add(id)
	}
	if g.Teams != nil {
		for _, id := range g.Teams.SideA {
			add(id)
		}
		for _, id := range g.Teams.SideB {
			add(id)
		}
	}
	return out
}

func (g *Game) IsParticipant(playerID string) bool {
	_, ok := g.SideOf(playerID)
	return ok
}

// SideOf returns which side a player belongs to.
func (g *Game) SideOf(playerID string) (Side, bool) {
	if playerID == "" {
		return "", false
	}
	if g.Teams != nil {
		for _, id := range g.Teams.SideA {
			if id == playerID {
				return SideCreator, true
			}
		}
		for _, id := range g.Teams.SideB {
			if id == playerID {
				return SideOpponent, true
			}
		}
		return "", false
	}
	if playerID == g.CreatorID {
		return SideCreator, true
	}
	for _, id := range g.OpponentIDs {
		if id == playerID {
			return SideOpponent, true
		}
	}
	return "", false
}

// SideMembers returns the player ids on the given side.
func (g *Game) SideMembers(s Side) []string {
	if g.Teams != nil {
		if s == SideCreator {
			return g.Teams.SideA
		}
		return g.Teams.SideB
	}
	if s == SideCreator {
		return []string{g.CreatorID}
	}
	return g.OpponentIDs
}

// SideLead is the player who acts for a side in the invitation and
// confirmation handshake: the creator for its own side, the first-listed
// opponent for the other.
func (g *Game) SideLead(s Side) string {
	if s == SideCreator {
		return g.CreatorID
	}
	if len(g.OpponentIDs) > 0 {
		return g.OpponentIDs[0]
	}
	return ""
}

// OpposingLead returns the lead of the side the given participant is not on.
func (g *Game) OpposingLead(playerID string) string {
	side, ok := g.SideOf(playerID)
	if !ok {
		return ""
	}
	if side == SideCreator {
		return g.SideLead(SideOpponent)
	}
	return g.SideLead(SideCreator)
}

// ValidateConfig checks the immutable creation parameters.
func ValidateConfig(cfg GameConfig) error {
	fields := map[string]string{}
	if cfg.PointsToWin <= 0 {
		fields["points_to_win"] = "must be greater than zero"
	}
	switch cfg.Mode {
	case ModeHeadToHead, ModeTeam:
	default:
		fields["mode"] = "must be head_to_head or team"
	}
	switch cfg.StartingPlayer {
	case StartCreator, StartOpponent, StartRandom:
	default:
		fields["starting_player"] = "must be creator, opponent or random"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// ValidateTeams centralizes the team-game shape checks: both sides
// non-empty, disjoint, side A anchored by the creator, side B exactly the
// opponents.
func ValidateTeams(creatorID string, opponentIDs []string, t *Teams) error {
	if t == nil {
		return NewValidationError(map[string]string{"teams": "required for team games"})
	}
	if len(t.SideA) == 0 || len(t.SideB) == 0 {
		return NewValidationError(map[string]string{"teams": "both sides must have at least one player"})
	}

	inA := make(map[string]bool, len(t.SideA))
	for _, id := range t.SideA {
		if id == "" {
			return NewValidationError(map[string]string{"teams": "empty player id"})
		}
		if inA[id] {
			return NewValidationError(map[string]string{"teams": "duplicate player " + id})
		}
		inA[id] = true
	}
	if !inA[creatorID] {
		return NewValidationError(map[string]string{"teams": "creator must be on side A"})
	}

	opponents := make(map[string]bool, len(opponentIDs))
	for _, id := range opponentIDs {
		opponents[id] = true
	}
	inB := make(map[string]bool, len(t.SideB))
	for _, id := range t.SideB {
		if inA[id] || inB[id] {
			return NewValidationError(map[string]string{"teams": "duplicate player " + id})
		}
		if !opponents[id] {
			return NewValidationError(map[string]string{"teams": "side B player " + id + " is not an opponent"})
		}
		inB[id] = true
	}
	for id := range opponents {
		if !inB[id] {
			return NewValidationError(map[string]string{"teams": "opponent " + id + " missing from side B"})
		}
	}
	return nil
}

// PlayerResult is the per-participant outcome handed to the completion write.
type PlayerResult struct {
	PlayerID     string
	PointsScored int
	Won          bool
}

// Results expands a final score into one PlayerResult per participant. Each
// side's raw points are credited to every member of that side.
func (g *Game) Results() []PlayerResult {
	if g.Score == nil {
		return nil
	}
	var out []PlayerResult
	for _, id := range g.SideMembers(SideCreator) {
		out = append(out, PlayerResult{
			PlayerID:     id,
			PointsScored: g.Score.Creator,
			Won:          g.Winner == SideCreator,
		})
	}
	for _, id := range g.SideMembers(SideOpponent) {
		out = append(out, PlayerResult{
			PlayerID:     id,
			PointsScored: g.Score.Opponent,
			Won:          g.Winner == SideOpponent,
		})
	}
	return out
}
