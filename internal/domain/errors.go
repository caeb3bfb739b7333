package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotAuthenticated   = errors.New("not_authenticated")
	ErrNotAuthorized      = errors.New("not_authorized")
	ErrInvalidState       = errors.New("invalid_state")
	ErrNotYourTurn        = errors.New("not_your_turn")
	ErrActiveGameConflict = errors.New("active_game_conflict")
	ErrScoreNotDecisive   = errors.New("score_not_decisive")
	ErrConflict           = errors.New("conflict")
	ErrBackendUnavailable = errors.New("backend_unavailable")
	ErrNotFound           = errors.New("not_found")
	ErrValidation         = errors.New("validation")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrNameTaken          = errors.New("name_taken")
	ErrHandleTaken        = errors.New("handle_taken")
	ErrHandleImmutable    = errors.New("handle_immutable")
	ErrPlayerDisabled     = errors.New("player_disabled")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
