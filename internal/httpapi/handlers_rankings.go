package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dominoleague/internal/domain"
	"dominoleague/internal/ws"
)

func (a *api) handleRankingsGlobal(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries := a.rankingSvc.GlobalRanking(r.Context(), limit)
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (a *api) handleRankingsWindow(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("start")))
	if err != nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"start": "must be an RFC3339 timestamp"}))
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("end")))
	if err != nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"end": "must be an RFC3339 timestamp"}))
		return
	}
	if end.Before(start) {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"end": "must not be before start"}))
		return
	}

	entries := a.rankingSvc.WindowedRanking(r.Context(), start, end)
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (a *api) handleRankingsLive(w http.ResponseWriter, r *http.Request) {
	snapshot := a.rankingSvc.GlobalRanking(r.Context(), 100)
	ws.ServeWs(a.hub, a.logger, w, r, snapshot)
}
