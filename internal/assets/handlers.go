package assets

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-perhiasan/internal/common"
)

const (
	defaultMaxUpload = 10 << 20
	maxFilesPerCall  = 20
)

// Handler exposes admin upload and delete endpoints.
type Handler struct {
	Store    Store
	MaxBytes int64
}

type deletePayload struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,url"`
}

// Upload handles POST /admin/assets. Form fields parent, category and
// itemName select the target folder; files are read from "files".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.WriteError(w, notConfigured())
		return
	}
	limit := h.MaxBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	if r.ContentLength > limit {
		common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds size limit", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds size limit", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "expected multipart form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		common.WriteError(w, common.Validation("invalid payload", map[string]string{"files": "is required"}))
		return
	}
	if len(headers) > maxFilesPerCall {
		common.WriteError(w, common.Validation("invalid payload", map[string]string{"files": "must be at most 20"}))
		return
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		ct := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") {
			common.WriteError(w, common.Validation("invalid payload", map[string]string{"files": "only images are accepted"}))
			return
		}
		f, err := fh.Open()
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unreadable upload", nil)
			return
		}
		defer f.Close()
		files = append(files, File{Name: fh.Filename, ContentType: ct, Body: f})
	}

	target := Target{
		Parent:   r.FormValue("parent"),
		Category: r.FormValue("category"),
		ItemName: r.FormValue("itemName"),
	}
	urls, err := h.Store.Upload(r.Context(), files, target)
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "UPLOAD_FAILED", "failed to upload assets", map[string]any{"uploaded": urls})
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"urls": urls}})
}

// Delete handles DELETE /admin/assets with a JSON body of URLs.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.WriteError(w, notConfigured())
		return
	}
	var payload deletePayload
	if err := common.DecodeJSON(r, &payload, 0); err != nil {
		common.WriteError(w, err)
		return
	}
	summary := h.Store.Delete(r.Context(), payload.URLs)
	status := http.StatusOK
	if summary.Failed > 0 && summary.Successful == 0 {
		status = http.StatusBadGateway
	}
	common.JSON(w, status, map[string]any{"data": summary})
}

func notConfigured() *common.AppError {
	return common.NewAppError("ASSETS_DISABLED", "asset storage is not configured", http.StatusServiceUnavailable, ErrNotConfigured)
}
