package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/docstore"
	"github.com/clockit-hq/clockit/internal/store"
)

const maxDocumentSize = 25 << 20 // 25 MiB

type DocumentHandler struct {
	documentStore *store.DocumentStore
	storage       *docstore.Storage
	logger        *slog.Logger
}

func NewDocumentHandler(ds *store.DocumentStore, storage *docstore.Storage, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{documentStore: ds, storage: storage, logger: logger}
}

func (h *DocumentHandler) storageEnabled(w http.ResponseWriter) bool {
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "document storage is not configured")
		return false
	}
	return true
}

// Upload accepts a multipart form with a "file" part plus title, description,
// category and is_public fields.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.storageEnabled(w) {
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxDocumentSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}
	category := strings.ToUpper(strings.TrimSpace(r.FormValue("category")))
	if category == "" {
		category = "OTHER"
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := docstore.NewKey(header.Filename)
	if err := h.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		h.logger.Error("upload document", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	doc, err := h.documentStore.Create(
		title, r.FormValue("description"), key,
		header.Filename, contentType, header.Size, category,
		auth.UserID(r.Context()), r.FormValue("is_public") == "true",
	)
	if err != nil {
		h.logger.Error("create document record", "error", err)
		// Best effort: don't leave an orphaned object behind.
		h.storage.Delete(r.Context(), key)
		writeError(w, http.StatusInternalServerError, "failed to save document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documentStore.List(auth.UserID(r.Context()), auth.IsAdmin(r.Context()), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Download streams the file and bumps the view counter.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.storageEnabled(w) {
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.documentStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if !doc.IsPublic && !auth.IsAdmin(r.Context()) {
		if doc.UploadedBy == nil || *doc.UploadedBy != auth.UserID(r.Context()) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	body, contentType, err := h.storage.Download(r.Context(), doc.ObjectKey)
	if err != nil {
		h.logger.Error("download document", "key", doc.ObjectKey, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch file")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = doc.FileType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream document", "error", err)
		return
	}

	if err := h.documentStore.IncrementViewCount(doc.ID); err != nil {
		h.logger.Error("bump view count", "error", err)
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.documentStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if !auth.IsAdmin(r.Context()) {
		if doc.UploadedBy == nil || *doc.UploadedBy != auth.UserID(r.Context()) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	if h.storage != nil {
		if err := h.storage.Delete(r.Context(), doc.ObjectKey); err != nil {
			h.logger.Error("delete document object", "key", doc.ObjectKey, "error", err)
		}
	}
	if err := h.documentStore.Delete(id); err != nil {
		h.logger.Error("delete document record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
