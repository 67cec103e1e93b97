package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/vbonduro/foodcoach/internal/photostore"
)

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	if s.photoStore == nil {
		http.NotFound(w, r)
		return
	}

	key := r.PathValue("key")
	reader, mimeType, err := s.photoStore.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("get image failed", "key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "key", key, "error", err)
	}
}
