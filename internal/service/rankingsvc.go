package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"dominoleague/internal/domain"
)

type RankedPlayersStore interface {
	// ListRankedPlayers returns every player with at least one game played.
	ListRankedPlayers(ctx context.Context) ([]domain.Player, error)
	GetPlayersByID(ctx context.Context, ids []string) (map[string]domain.Player, error)
}

type CompletedGamesStore interface {
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]domain.Game, error)
}

type RankCache interface {
	SetGlobal(ctx context.Context, entries []domain.RankingEntry) error
	GetGlobal(ctx context.Context) ([]domain.RankingEntry, error)
}

type RankingBroadcaster interface {
	BroadcastRankings(entries []domain.RankingEntry)
}

// RankingService derives standings from player records and completed games.
// Persisting globalRank happens inside the game-completion transaction (see
// GamesStore.CompleteGame); this service owns the pure computations, the
// cache and the live push.
type RankingService struct {
	Players   RankedPlayersStore
	Games     CompletedGamesStore
	Cache     RankCache
	Broadcast RankingBroadcaster
	Logger    *slog.Logger
}

func (s *RankingService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// GlobalRanking serves the global standings, preferring the cache. All
// failures degrade to an empty result so a dashboard read never hard-fails.
func (s *RankingService) GlobalRanking(ctx context.Context, limit int) []domain.RankingEntry {
	if s.Cache != nil {
		if entries, err := s.Cache.GetGlobal(ctx); err == nil {
			return clampEntries(entries, limit)
		}
	}

	players, err := s.Players.ListRankedPlayers(ctx)
	if err != nil {
		s.logger().Warn("global ranking read failed", "err", err)
		return nil
	}
	entries := ComputeGlobalRanking(players)

	if s.Cache != nil {
		if err := s.Cache.SetGlobal(ctx, entries); err != nil {
			s.logger().Warn("ranking cache write failed", "err", err)
		}
	}
	return clampEntries(entries, limit)
}

// WindowedRanking ranks players by their record within [start, end] only,
// ignoring lifetime stats.
func (s *RankingService) WindowedRanking(ctx context.Context, start, end time.Time) []domain.RankingEntry {
	games, err := s.Games.ListCompletedBetween(ctx, start, end)
	if err != nil {
		s.logger().Warn("windowed ranking read failed", "err", err)
		return nil
	}

	ids := make(map[string]bool)
	for i := range games {
		for _, id := range games[i].Participants() {
			ids[id] = true
		}
	}
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}
	players, err := s.Players.GetPlayersByID(ctx, idList)
	if err != nil {
		s.logger().Warn("windowed ranking player lookup failed", "err", err)
		return nil
	}

	return ComputeWindowedRanking(games, players, start, end)
}

// GameCompleted refreshes the cache and pushes the new standings to live
// subscribers. Errors are logged only: the game is already committed.
func (s *RankingService) GameCompleted(ctx context.Context, g domain.Game) {
	players, err := s.Players.ListRankedPlayers(ctx)
	if err != nil {
		s.logger().Warn("ranking refresh failed", "game_id", g.ID, "err", err)
		return
	}
	entries := ComputeGlobalRanking(players)

	if s.Cache != nil {
		if err := s.Cache.SetGlobal(ctx, entries); err != nil {
			s.logger().Warn("ranking cache refresh failed", "game_id", g.ID, "err", err)
		}
	}
	if s.Broadcast != nil {
		s.Broadcast.BroadcastRankings(entries)
	}
}

// ComputeGlobalRanking orders players by gamesWon, then totalPoints, then
// win rate, all descending, and assigns dense 1-based ranks. The sort is
// stable so fully tied players keep their input order.
func ComputeGlobalRanking(players []domain.Player) []domain.RankingEntry {
	entries := make([]domain.RankingEntry, 0, len(players))
	for _, p := range players {
		if p.Stats.GamesPlayed == 0 {
			continue
		}
		entries = append(entries, domain.RankingEntry{
			PlayerID:    p.ID,
			Name:        p.Name,
			GamesPlayed: p.Stats.GamesPlayed,
			GamesWon:    p.Stats.GamesWon,
			TotalPoints: p.Stats.TotalPoints,
			WinRate:     p.Stats.WinRate(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.GamesWon != b.GamesWon {
			return a.GamesWon > b.GamesWon
		}
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.WinRate > b.WinRate
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ComputeWindowedRanking accumulates wins, games and points from completed
// games inside [start, end] and ranks with the global tie-break order.
// Players without a game in the window are omitted.
func ComputeWindowedRanking(games []domain.Game, players map[string]domain.Player, start, end time.Time) []domain.RankingEntry {
	type acc struct {
		played, won, points int
	}
	totals := make(map[string]*acc)

	for i := range games {
		g := &games[i]
		if g.Status != domain.StatusCompleted || g.CompletedAt == nil {
			continue
		}
		if g.CompletedAt.Before(start) || g.CompletedAt.After(end) {
			continue
		}
		for _, r := range g.Results() {
			a := totals[r.PlayerID]
			if a == nil {
				a = &acc{}
				totals[r.PlayerID] = a
			}
			a.played++
			a.points += r.PointsScored
			if r.Won {
				a.won++
			}
		}
	}

	entries := make([]domain.RankingEntry, 0, len(totals))
	for id, a := range totals {
		e := domain.RankingEntry{
			PlayerID:    id,
			GamesPlayed: a.played,
			GamesWon:    a.won,
			TotalPoints: a.points,
			WinRate:     float64(a.won) / float64(a.played),
		}
		if p, ok := players[id]; ok {
			e.Name = p.Name
		}
		entries = append(entries, e)
	}

	// Map iteration order is random; fix it before the stable rank sort.
	sort.Slice(entries, func(i, j int) bool { return entries[i].PlayerID < entries[j].PlayerID })
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.GamesWon != b.GamesWon {
			return a.GamesWon > b.GamesWon
		}
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.WinRate > b.WinRate
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ComputeLeagueRanking builds the league table from completed games tagged
// with the league where every participant is a member. League points are
// 3/1/0; inactive members' games still count but only active members appear
// in the table.
func ComputeLeagueRanking(leagueID string, members []domain.LeagueMember, games []domain.Game) []domain.LeagueStanding {
	type acc struct {
		points, played, won, draws int
	}
	membership := make(map[string]domain.LeagueMember, len(members))
	totals := make(map[string]*acc, len(members))
	for _, m := range members {
		membership[m.PlayerID] = m
		totals[m.PlayerID] = &acc{}
	}

	for i := range games {
		g := &games[i]
		if g.Status != domain.StatusCompleted || g.Config.LeagueID != leagueID {
			continue
		}
		eligible := true
		for _, id := range g.Participants() {
			if _, ok := membership[id]; !ok {
				eligible = false
				break
			}
		}
		if !eligible {
			continue
		}

		for _, r := range g.Results() {
			a := totals[r.PlayerID]
			a.played++
			switch {
			case g.Winner == "":
				a.points++
				a.draws++
			case r.Won:
				a.points += 3
				a.won++
			}
		}
	}

	standings := make([]domain.LeagueStanding, 0, len(members))
	for _, m := range members {
		if !m.Active {
			continue
		}
		a := totals[m.PlayerID]
		st := domain.LeagueStanding{
			PlayerID:    m.PlayerID,
			Name:        m.Name,
			Points:      a.points,
			GamesPlayed: a.played,
			GamesWon:    a.won,
			Draws:       a.draws,
		}
		if a.played > 0 {
			st.WinRate = float64(a.won) / float64(a.played)
		}
		standings = append(standings, st)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		return a.GamesWon > b.GamesWon
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

func clampEntries(entries []domain.RankingEntry, limit int) []domain.RankingEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
