package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dominoleague/internal/domain"
)

func player(id string, played, won, points int) domain.Player {
	return domain.Player{
		ID:   id,
		Name: "player " + id,
		Stats: domain.PlayerStats{
			GamesPlayed: played,
			GamesWon:    won,
			TotalPoints: points,
		},
	}
}

func TestComputeGlobalRankingOrder(t *testing.T) {
	players := []domain.Player{
		player("p1", 10, 5, 800),
		player("p2", 8, 6, 700),
		player("p3", 12, 6, 900),
		player("p4", 0, 0, 0), // never played, excluded
	}

	entries := ComputeGlobalRanking(players)
	if len(entries) != 3 {
		t.Fatalf("expected 3 ranked players, got %d", len(entries))
	}

	// Wins first, then points; p3 and p2 tie on wins, p3 has more points.
	want := []string{"p3", "p2", "p1"}
	for i, id := range want {
		if entries[i].PlayerID != id {
			t.Fatalf("rank %d: expected %s, got %s", i+1, id, entries[i].PlayerID)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("rank field mismatch at %d: %d", i, entries[i].Rank)
		}
	}
}

func TestComputeGlobalRankingWinRateBreaksTies(t *testing.T) {
	players := []domain.Player{
		player("p1", 10, 4, 500),
		player("p2", 5, 4, 500), // same wins and points, better rate
	}

	entries := ComputeGlobalRanking(players)
	if entries[0].PlayerID != "p2" {
		t.Fatalf("higher win rate should rank first, got %s", entries[0].PlayerID)
	}
}

func completedGame(id, creator, opponent string, cScore, oScore int, at time.Time) domain.Game {
	g := domain.Game{
		ID:          id,
		CreatorID:   creator,
		OpponentIDs: []string{opponent},
		Config:      domain.GameConfig{Mode: domain.ModeHeadToHead, PointsToWin: 150},
		Status:      domain.StatusCompleted,
		Score:       &domain.Score{Creator: cScore, Opponent: oScore},
		CompletedAt: &at,
	}
	switch {
	case cScore > oScore:
		g.Winner = domain.SideCreator
	case oScore > cScore:
		g.Winner = domain.SideOpponent
	}
	return g
}

func TestComputeWindowedRanking(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	games := []domain.Game{
		completedGame("g1", "p1", "p2", 150, 100, start.Add(24*time.Hour)),
		completedGame("g2", "p2", "p1", 160, 90, start.Add(48*time.Hour)),
		completedGame("g3", "p1", "p3", 150, 80, start.Add(72*time.Hour)),
		// Outside the window, must not count.
		completedGame("g4", "p3", "p1", 200, 0, end.Add(time.Hour)),
	}
	players := map[string]domain.Player{
		"p1": {ID: "p1", Name: "one"},
		"p2": {ID: "p2", Name: "two"},
		"p3": {ID: "p3", Name: "three"},
	}

	entries := ComputeWindowedRanking(games, players, start, end)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "p1" {
		t.Fatalf("p1 has 2 wins in window, expected first, got %s", entries[0].PlayerID)
	}
	byID := make(map[string]domain.RankingEntry)
	for _, e := range entries {
		byID[e.PlayerID] = e
	}
	if byID["p1"].GamesPlayed != 3 || byID["p1"].GamesWon != 2 {
		t.Fatalf("p1 window record wrong: %+v", byID["p1"])
	}
	if byID["p1"].TotalPoints != 150+90+150 {
		t.Fatalf("p1 window points wrong: %+v", byID["p1"])
	}
	if byID["p3"].GamesWon != 0 {
		t.Fatalf("p3 out-of-window win must not count: %+v", byID["p3"])
	}
	if byID["p1"].Name != "one" {
		t.Fatalf("names come from the player lookup: %+v", byID["p1"])
	}
}

func leagueMember(leagueID, playerID string, active bool) domain.LeagueMember {
	return domain.LeagueMember{LeagueID: leagueID, PlayerID: playerID, Name: "player " + playerID, Active: active}
}

func TestComputeLeagueRanking(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	members := []domain.LeagueMember{
		leagueMember("l1", "p1", true),
		leagueMember("l1", "p2", true),
		leagueMember("l1", "p3", true),
	}

	games := []domain.Game{
		completedGame("g1", "p1", "p2", 150, 100, now),
		completedGame("g2", "p1", "p3", 150, 150, now), // draw
		// p4 is not a member; the whole game is ineligible.
		completedGame("g3", "p2", "p4", 150, 0, now),
	}
	for i := range games {
		games[i].Config.LeagueID = "l1"
	}

	standings := ComputeLeagueRanking("l1", members, games)
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(standings))
	}
	if standings[0].PlayerID != "p1" {
		t.Fatalf("p1 has a win and a draw, expected first, got %s", standings[0].PlayerID)
	}
	if standings[0].Points != 4 {
		t.Fatalf("win=3 draw=1: expected 4 points, got %d", standings[0].Points)
	}

	byID := make(map[string]domain.LeagueStanding)
	for _, s := range standings {
		byID[s.PlayerID] = s
	}
	if byID["p2"].GamesPlayed != 1 {
		t.Fatalf("game with a non-member must not count: %+v", byID["p2"])
	}
	if byID["p3"].Points != 1 || byID["p3"].Draws != 1 {
		t.Fatalf("p3 draw record wrong: %+v", byID["p3"])
	}
}

func TestComputeLeagueRankingHidesInactiveMembers(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	members := []domain.LeagueMember{
		leagueMember("l1", "p1", true),
		leagueMember("l1", "p2", false),
	}
	g := completedGame("g1", "p1", "p2", 150, 100, now)
	g.Config.LeagueID = "l1"

	standings := ComputeLeagueRanking("l1", members, []domain.Game{g})
	if len(standings) != 1 {
		t.Fatalf("inactive members stay out of the table, got %d entries", len(standings))
	}
	// Their games still count for the remaining members.
	if standings[0].PlayerID != "p1" || standings[0].GamesWon != 1 {
		t.Fatalf("p1 should keep the win: %+v", standings[0])
	}
}

type stubRankedPlayers struct {
	players []domain.Player
	err     error
}

func (s *stubRankedPlayers) ListRankedPlayers(ctx context.Context) ([]domain.Player, error) {
	return s.players, s.err
}

func (s *stubRankedPlayers) GetPlayersByID(ctx context.Context, ids []string) (map[string]domain.Player, error) {
	out := make(map[string]domain.Player)
	for _, p := range s.players {
		for _, id := range ids {
			if p.ID == id {
				out[id] = p
			}
		}
	}
	return out, s.err
}

type stubCompletedGames struct {
	games []domain.Game
	err   error
}

func (s *stubCompletedGames) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]domain.Game, error) {
	return s.games, s.err
}

type stubRankCache struct {
	entries []domain.RankingEntry
	getErr  error
	setErr  error
	sets    int
}

func (s *stubRankCache) SetGlobal(ctx context.Context, entries []domain.RankingEntry) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.entries = append([]domain.RankingEntry(nil), entries...)
	return nil
}

func (s *stubRankCache) GetGlobal(ctx context.Context) ([]domain.RankingEntry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.entries, nil
}

type stubBroadcaster struct {
	calls [][]domain.RankingEntry
}

func (s *stubBroadcaster) BroadcastRankings(entries []domain.RankingEntry) {
	s.calls = append(s.calls, entries)
}

func TestGlobalRankingPrefersCache(t *testing.T) {
	cache := &stubRankCache{entries: []domain.RankingEntry{{PlayerID: "cached", Rank: 1}}}
	svc := &RankingService{
		Players: &stubRankedPlayers{err: errors.New("must not be called")},
		Cache:   cache,
	}

	entries := svc.GlobalRanking(context.Background(), 10)
	if len(entries) != 1 || entries[0].PlayerID != "cached" {
		t.Fatalf("expected cached entries, got %+v", entries)
	}
}

func TestGlobalRankingFallsBackToStoreAndFillsCache(t *testing.T) {
	cache := &stubRankCache{getErr: domain.ErrNotFound}
	svc := &RankingService{
		Players: &stubRankedPlayers{players: []domain.Player{player("p1", 3, 2, 100)}},
		Cache:   cache,
	}

	entries := svc.GlobalRanking(context.Background(), 10)
	if len(entries) != 1 || entries[0].PlayerID != "p1" {
		t.Fatalf("expected computed entries, got %+v", entries)
	}
	if cache.sets != 1 {
		t.Fatalf("cache should be refilled once, got %d", cache.sets)
	}
}

func TestGlobalRankingDegradesOnBackendFailure(t *testing.T) {
	svc := &RankingService{
		Players: &stubRankedPlayers{err: errors.New("db down")},
	}
	if entries := svc.GlobalRanking(context.Background(), 10); entries != nil {
		t.Fatalf("expected nil on failure, got %+v", entries)
	}
}

func TestGlobalRankingClampsToLimit(t *testing.T) {
	svc := &RankingService{
		Players: &stubRankedPlayers{players: []domain.Player{
			player("p1", 3, 3, 100),
			player("p2", 3, 2, 100),
			player("p3", 3, 1, 100),
		}},
	}
	entries := svc.GlobalRanking(context.Background(), 2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestGameCompletedRefreshesCacheAndBroadcasts(t *testing.T) {
	cache := &stubRankCache{}
	broadcast := &stubBroadcaster{}
	svc := &RankingService{
		Players:   &stubRankedPlayers{players: []domain.Player{player("p1", 1, 1, 150)}},
		Cache:     cache,
		Broadcast: broadcast,
	}

	svc.GameCompleted(context.Background(), domain.Game{ID: "g1"})
	if cache.sets != 1 {
		t.Fatalf("cache refresh expected, got %d sets", cache.sets)
	}
	if len(broadcast.calls) != 1 {
		t.Fatalf("broadcast expected once, got %d", len(broadcast.calls))
	}
	if len(broadcast.calls[0]) != 1 || broadcast.calls[0][0].PlayerID != "p1" {
		t.Fatalf("unexpected broadcast payload: %+v", broadcast.calls[0])
	}
}
