package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"dominoleague/internal/domain"
	"dominoleague/internal/service"
)

type createGameRequest struct {
	OpponentIDs    []string      `json:"opponent_ids"`
	Mode           string        `json:"mode"`
	PointsToWin    int           `json:"points_to_win"`
	StartingPlayer string        `json:"starting_player"`
	Ruleset        string        `json:"ruleset"`
	LeagueID       string        `json:"league_id"`
	Teams          *domain.Teams `json:"teams"`
}

func (a *api) handleGamesCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req createGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	g, err := a.gameSvc.Create(r.Context(), p.ID, service.CreateGameParams{
		OpponentIDs: req.OpponentIDs,
		Teams:       req.Teams,
		Config: domain.GameConfig{
			Mode:           domain.GameMode(strings.TrimSpace(req.Mode)),
			PointsToWin:    req.PointsToWin,
			StartingPlayer: domain.StartingPlayer(strings.TrimSpace(req.StartingPlayer)),
			Ruleset:        strings.TrimSpace(req.Ruleset),
			LeagueID:       strings.TrimSpace(req.LeagueID),
		},
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, g)
}

func (a *api) handleGamesList(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	games := a.gameSvc.ListGames(r.Context(), p.ID, limit)
	WriteJSON(w, http.StatusOK, games)
}

func (a *api) handleGamesInvitations(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	invitations := a.gameSvc.ListInvitations(r.Context(), p.ID)
	WriteJSON(w, http.StatusOK, invitations)
}

func (a *api) handleGamesActive(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	g, err := a.gameSvc.ActiveGame(r.Context(), p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

func (a *api) handleGamesGet(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	gameID := strings.TrimSpace(r.PathValue("id"))
	if gameID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	g, err := a.gameSvc.GetGame(r.Context(), gameID, p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

func (a *api) handleGamesAccept(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	g, err := a.gameSvc.Accept(r.Context(), r.PathValue("id"), p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

type rejectGameRequest struct {
	Reason string `json:"reason"`
}

func (a *api) handleGamesReject(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req rejectGameRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	g, err := a.gameSvc.Reject(r.Context(), r.PathValue("id"), p.ID, req.Reason)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

func (a *api) handleGamesStart(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	g, err := a.gameSvc.Start(r.Context(), r.PathValue("id"), p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

type submitScoreRequest struct {
	CreatorScore  *int `json:"creator_score"`
	OpponentScore *int `json:"opponent_score"`
}

func (a *api) handleGamesScore(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req submitScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.CreatorScore == nil || req.OpponentScore == nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{
			"creator_score":  "required",
			"opponent_score": "required",
		}))
		return
	}

	g, err := a.gameSvc.SubmitScore(r.Context(), r.PathValue("id"), p.ID, *req.CreatorScore, *req.OpponentScore)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

type confirmResultRequest struct {
	Accept *bool `json:"accept"`
}

func (a *api) handleGamesConfirm(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req confirmResultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Accept == nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"accept": "required"}))
		return
	}

	g, err := a.gameSvc.ConfirmResult(r.Context(), r.PathValue("id"), p.ID, *req.Accept)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, g)
}
