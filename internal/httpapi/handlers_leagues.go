package httpapi

import (
	"net/http"
	"strings"

	"dominoleague/internal/domain"
)

type createLeagueRequest struct {
	Name string `json:"name"`
}

func (a *api) handleLeaguesCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req createLeagueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	league, err := a.leagueSvc.Create(r.Context(), p.ID, req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, league)
}

func (a *api) handleLeaguesList(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	leagues := a.leagueSvc.ListFor(r.Context(), p.ID)
	if leagues == nil {
		leagues = []domain.League{}
	}
	WriteJSON(w, http.StatusOK, leagues)
}

func (a *api) handleLeaguesGet(w http.ResponseWriter, r *http.Request) {
	league, err := a.leagueSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, league)
}

func (a *api) handleLeaguesDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	if err := a.leagueSvc.Delete(r.Context(), r.PathValue("id"), p.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	PlayerID string `json:"player_id"`
}

func (a *api) handleLeaguesAddMember(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.leagueSvc.AddMember(r.Context(), r.PathValue("id"), p.ID, strings.TrimSpace(req.PlayerID)); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleLeaguesDeactivateMember(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	if err := a.leagueSvc.DeactivateMember(r.Context(), r.PathValue("id"), p.ID, r.PathValue("playerID")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleLeaguesStandings(w http.ResponseWriter, r *http.Request) {
	standings := a.leagueSvc.Standings(r.Context(), r.PathValue("id"))
	if standings == nil {
		standings = []domain.LeagueStanding{}
	}
	WriteJSON(w, http.StatusOK, standings)
}
