package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-blog/blogserver/internal/storage"
)

// MediaHandler streams stored featured images.
type MediaHandler struct {
	media *storage.Storage
}

func NewMediaHandler(media *storage.Storage) *MediaHandler {
	return &MediaHandler{media: media}
}

// MediaRouter registers the media route on the given router.
func MediaRouter(r chi.Router, media *storage.Storage) {
	handler := NewMediaHandler(media)
	r.Get("/*", handler.ServeMedia)
}

// ServeMedia streams the object named by the wildcard path. Keys are
// namespaced under posts/, anything else is refused.
func (h *MediaHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") || !strings.HasPrefix(key, "posts/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	object, err := h.media.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	defer object.Close()

	header := make([]byte, 512)
	n, err := object.Read(header)
	if err != nil && err != io.EOF {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	header = header[:n]

	w.Header().Set("Content-Type", http.DetectContentType(header))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(header)
	_, _ = io.Copy(w, object)
}
