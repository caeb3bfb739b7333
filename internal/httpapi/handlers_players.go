package httpapi

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dominoleague/internal/domain"
)

func (a *api) handlePlayersMe(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (a *api) handlePlayersGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	p, err := a.playerSvc.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type updatePlayerRequest struct {
	Name *string `json:"name"`
}

func (a *api) handlePlayersMeUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req updatePlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Name == nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"name": "required"}))
		return
	}

	if err := a.playerSvc.UpdateName(r.Context(), p.ID, *req.Name); err != nil {
		WriteDomainError(w, err)
		return
	}

	updated, err := a.playerSvc.Get(r.Context(), p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

type setHandleRequest struct {
	Handle string `json:"handle"`
}

func (a *api) handlePlayersMeHandle(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req setHandleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.playerSvc.SetHandle(r.Context(), p.ID, req.Handle); err != nil {
		WriteDomainError(w, err)
		return
	}

	updated, err := a.playerSvc.Get(r.Context(), p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (a *api) handlePlayersMeAvatar(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentPlayer(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	const maxAvatarSize = 8 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar file is too large")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar file is required")
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar must be a valid image file")
		return
	}
	bounds := img.Bounds()
	if bounds.Dx() != 512 || bounds.Dy() != 512 {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar must be 512x512")
		return
	}

	if err := os.MkdirAll(a.avatarDir, 0o755); err != nil {
		a.logger.Error("create avatar dir failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store avatar")
		return
	}

	filename := fmt.Sprintf("%s-%d.jpg", p.ID, time.Now().UnixNano())
	targetPath := filepath.Join(a.avatarDir, filename)
	tmpFile, err := os.CreateTemp(a.avatarDir, "avatar-*")
	if err != nil {
		a.logger.Error("create avatar file failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store avatar")
		return
	}

	writeFailed := func(err error) {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		a.logger.Error("write avatar failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store avatar")
	}

	if err := jpeg.Encode(tmpFile, img, &jpeg.Options{Quality: 85}); err != nil {
		writeFailed(err)
		return
	}
	if err := tmpFile.Close(); err != nil {
		writeFailed(err)
		return
	}
	if err := os.Rename(tmpFile.Name(), targetPath); err != nil {
		writeFailed(err)
		return
	}

	if err := a.playerSvc.UpdateAvatar(r.Context(), p.ID, filename); err != nil {
		_ = os.Remove(targetPath)
		WriteDomainError(w, err)
		return
	}

	if oldPath := strings.TrimSpace(p.AvatarPath); oldPath != "" && oldPath != filename {
		_ = os.Remove(filepath.Join(a.avatarDir, oldPath))
	}

	updated, err := a.playerSvc.Get(r.Context(), p.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}
