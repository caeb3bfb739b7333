package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"dominoleague/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrNotAuthenticated):
		WriteError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid login or password")
	case errors.Is(err, domain.ErrNotAuthorized):
		WriteError(w, http.StatusForbidden, "not_authorized", "not authorized")
	case errors.Is(err, domain.ErrPlayerDisabled):
		WriteError(w, http.StatusForbidden, "player_disabled", "player is disabled")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrInvalidState):
		WriteError(w, http.StatusConflict, "invalid_state", "operation not allowed in the game's current state")
	case errors.Is(err, domain.ErrNotYourTurn):
		WriteError(w, http.StatusConflict, "not_your_turn", "it is not your turn")
	case errors.Is(err, domain.ErrActiveGameConflict):
		WriteError(w, http.StatusConflict, "active_game_conflict", "a participant already has an active game")
	case errors.Is(err, domain.ErrScoreNotDecisive):
		WriteError(w, http.StatusUnprocessableEntity, "score_not_decisive", "no side has reached the points target")
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email_taken", "email already taken")
	case errors.Is(err, domain.ErrHandleTaken):
		WriteError(w, http.StatusConflict, "handle_taken", "handle already taken")
	case errors.Is(err, domain.ErrHandleImmutable):
		WriteError(w, http.StatusConflict, "handle_immutable", "handle is already set and cannot change")
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "the game changed underneath you, retry")
	case errors.Is(err, domain.ErrBackendUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "backend_unavailable", "backend unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
