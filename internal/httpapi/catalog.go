package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/audit"
	"github.com/cavea/backoffice/internal/gateway"
)

// Products and meta are served from the refresher's snapshot, not proxied:
// the whole point of the 40s refresh loop is that reads here are local.

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Latest()
	w.Header().Set("X-Catalog-Fetched-At", snap.FetchedAt().UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, snap.Products())
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	snap := s.catalog.Latest()
	w.Header().Set("X-Catalog-Fetched-At", snap.FetchedAt().UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, snap.SearchProducts(q))
}

func (s *Server) getMeta(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Latest()
	w.Header().Set("X-Catalog-Fetched-At", snap.FetchedAt().UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, snap.Meta())
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	users, err := s.gateway.ListUsers(r.Context(), page, limit)
	if err != nil {
		s.logger.Error("user list failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, userMessage(err, "user list unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) listContentImages(w http.ResponseWriter, r *http.Request) {
	imgs, err := s.gateway.ListContentImages(r.Context())
	if err != nil {
		s.logger.Error("content image list failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, userMessage(err, "content images unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, imgs)
}

func (s *Server) uploadContentImage(w http.ResponseWriter, r *http.Request) {
	var img gateway.ContentImage
	if err := json.NewDecoder(r.Body).Decode(&img); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if img.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	created, err := s.gateway.UploadContentImage(r.Context(), img)
	if err != nil {
		s.logger.Error("content image upload failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, userMessage(err, "upload failed"))
		return
	}

	s.record(r.Context(), audit.ActionContentUpload, created.ID, created)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteContentImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.gateway.DeleteContentImage(r.Context(), id); err != nil {
		s.logger.Error("content image delete failed", zap.String("image_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, userMessage(err, "delete failed"))
		return
	}

	s.record(r.Context(), audit.ActionContentDelete, id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
