package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"petguard/internal/platform/apperr"
)

// handlePhoto sirve las fotos desde el bucket cuando no hay CDN delante.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		http.NotFound(w, r)
		return
	}

	rc, contentType, err := s.photos.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Warn("photo read failed", map[string]any{"key": key, "error": err})
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	defer rc.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	// las keys llevan timestamp: una foto nueva es otra URL
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Debug("photo copy interrupted", map[string]any{"key": key, "error": err})
	}
}
