package http

import (
	"errors"
	"io"
	"net/http"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/storage"

	"github.com/gorilla/mux"
)

// UploadHandler issues photo upload slots and serves the local photo store
type UploadHandler struct {
	store storage.Storage
}

func NewUploadHandler(store storage.Storage) *UploadHandler {
	return &UploadHandler{store: store}
}

func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnknownUpload):
		return domain.NotFound("upload token is unknown or expired")
	case errors.Is(err, storage.ErrNotFound):
		return domain.NotFound("file not found")
	case errors.Is(err, storage.ErrInvalidKey):
		return domain.BadRequest("invalid file key")
	case errors.Is(err, storage.ErrUnsupportedType):
		return domain.BadRequest("%v", err)
	case errors.Is(err, storage.ErrTooLarge):
		return domain.BadRequest("file is too large")
	default:
		return err
	}
}

// CreateUpload hands a member a one-shot URL for a damage photo
func (h *UploadHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	up, err := h.store.IssueUpload(r.Context(), req.ContentType)
	if err != nil {
		writeError(w, r, storageError(err))
		return
	}
	writeJSON(w, http.StatusCreated, up)
}

// HandleUpload accepts the PUT to an issued upload URL
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	logger.ExternalServiceCall("photo-storage", "Save", "content_type", r.Header.Get("Content-Type"))
	key, err := h.store.Save(r.Context(), token, r.Header.Get("Content-Type"), r.Body)
	logger.ExternalServiceResult("photo-storage", "Save", err, "key", key)
	if err != nil {
		writeError(w, r, storageError(err))
		return
	}
	w.Header().Set("ETag", `"`+key+`"`)
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

// HandleDownload streams a stored photo
func (h *UploadHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	logger.ExternalServiceCall("photo-storage", "Open", "key", key)
	file, contentType, err := h.store.Open(r.Context(), key)
	logger.ExternalServiceResult("photo-storage", "Open", err, "key", key)
	if err != nil {
		writeError(w, r, storageError(err))
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("photo download interrupted", "error", err)
	}
}
