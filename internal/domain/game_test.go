package domain

import (
	"errors"
	"testing"
	"time"
)

func TestStatusEngaged(t *testing.T) {
	cases := []struct {
		status GameStatus
		want   bool
	}{
		{StatusInvited, true},
		{StatusAccepted, true},
		{StatusInProgress, true},
		{StatusWaitingConfirmation, true},
		{StatusRejected, false},
		{StatusCompleted, false},
	}
	for _, c := range cases {
		if got := c.status.Engaged(); got != c.want {
			t.Errorf("%s: Engaged() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestValidateTeams(t *testing.T) {
	cases := []struct {
		name      string
		creator   string
		opponents []string
		teams     *Teams
		wantErr   bool
	}{
		{
			name:      "valid two on two",
			creator:   "u1",
			opponents: []string{"u3", "u4"},
			teams:     &Teams{SideA: []string{"u1", "u2"}, SideB: []string{"u3", "u4"}},
		},
		{
			name:      "missing teams",
			creator:   "u1",
			opponents: []string{"u2"},
			teams:     nil,
			wantErr:   true,
		},
		{
			name:      "creator not on side a",
			creator:   "u1",
			opponents: []string{"u3"},
			teams:     &Teams{SideA: []string{"u2"}, SideB: []string{"u3"}},
			wantErr:   true,
		},
		{
			name:      "overlapping sides",
			creator:   "u1",
			opponents: []string{"u2"},
			teams:     &Teams{SideA: []string{"u1", "u2"}, SideB: []string{"u2"}},
			wantErr:   true,
		},
		{
			name:      "side b player not an opponent",
			creator:   "u1",
			opponents: []string{"u3"},
			teams:     &Teams{SideA: []string{"u1"}, SideB: []string{"u4"}},
			wantErr:   true,
		},
		{
			name:      "opponent missing from side b",
			creator:   "u1",
			opponents: []string{"u3", "u4"},
			teams:     &Teams{SideA: []string{"u1"}, SideB: []string{"u3"}},
			wantErr:   true,
		},
		{
			name:      "empty side",
			creator:   "u1",
			opponents: nil,
			teams:     &Teams{SideA: []string{"u1"}, SideB: nil},
			wantErr:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTeams(tc.creator, tc.opponents, tc.teams)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSideOfTeamGame(t *testing.T) {
	g := &Game{
		CreatorID:   "u1",
		OpponentIDs: []string{"u3", "u4"},
		Teams:       &Teams{SideA: []string{"u1", "u2"}, SideB: []string{"u3", "u4"}},
	}

	if side, ok := g.SideOf("u2"); !ok || side != SideCreator {
		t.Fatalf("u2 should be on creator side, got %v %v", side, ok)
	}
	if side, ok := g.SideOf("u4"); !ok || side != SideOpponent {
		t.Fatalf("u4 should be on opponent side, got %v %v", side, ok)
	}
	if _, ok := g.SideOf("u9"); ok {
		t.Fatal("u9 should not be a participant")
	}
	if got := g.OpposingLead("u2"); got != "u3" {
		t.Fatalf("opposing lead of u2: got %q, want u3", got)
	}
	if got := g.OpposingLead("u4"); got != "u1" {
		t.Fatalf("opposing lead of u4: got %q, want u1", got)
	}
}

func TestResultsCreditEachSideMember(t *testing.T) {
	g := &Game{
		CreatorID:   "u1",
		OpponentIDs: []string{"u3", "u4"},
		Teams:       &Teams{SideA: []string{"u1", "u2"}, SideB: []string{"u3", "u4"}},
		Score:       &Score{Creator: 120, Opponent: 80},
		Winner:      SideCreator,
	}

	results := g.Results()
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	byID := make(map[string]PlayerResult, len(results))
	for _, r := range results {
		byID[r.PlayerID] = r
	}
	if !byID["u1"].Won || !byID["u2"].Won {
		t.Fatal("side A members should be winners")
	}
	if byID["u3"].Won || byID["u4"].Won {
		t.Fatal("side B members should not be winners")
	}
	if byID["u2"].PointsScored != 120 || byID["u3"].PointsScored != 80 {
		t.Fatalf("unexpected points: %+v", byID)
	}
}

func TestApplyResultStreaks(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := PlayerStats{GamesPlayed: 4, GamesWon: 2, TotalPoints: 300, WinStreak: 2, MaxWinStreak: 2}

	s = s.ApplyResult(100, true, now)
	if s.GamesPlayed != 5 || s.GamesWon != 3 || s.TotalPoints != 400 {
		t.Fatalf("unexpected stats after win: %+v", s)
	}
	if s.WinStreak != 3 || s.MaxWinStreak != 3 {
		t.Fatalf("streak should extend to 3: %+v", s)
	}
	if s.LastGameAt == nil || !s.LastGameAt.Equal(now) {
		t.Fatalf("last game timestamp not set: %+v", s)
	}

	s = s.ApplyResult(40, false, now.Add(time.Hour))
	if s.WinStreak != 0 {
		t.Fatalf("streak should reset on loss: %+v", s)
	}
	if s.MaxWinStreak != 3 {
		t.Fatalf("max streak should survive loss: %+v", s)
	}
}
