package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/storage"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error       string          `json:"error"`
	ID          string          `json:"id,omitempty"`
	Category    models.Category `json:"category,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	var req models.RelatedRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Category != "" {
		category, err := models.ParseCategory(string(req.Category))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Category = category
	}
	s.logger.Debug("related request", zap.Strings("ids", req.IDs), zap.String("category", string(req.Category)))
	resp, err := s.service.Related(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	var req models.ItemsRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Debug("items request", zap.Strings("ids", req.IDs), zap.Int("k", req.K))
	resp, err := s.service.ItemsFor(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	ids, err := s.service.Entities(category)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"category": category, "entities": ids})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := s.service.Report()
	if s.config != nil {
		var paths []string
		for _, category := range models.Categories {
			c := s.config.Category(category)
			paths = append(paths, c.SnapshotPath, c.IndexPath)
		}
		if n, err := storage.DiskUsageBytes(paths...); err == nil {
			resp.DiskUsageBytes = n
		} else {
			s.logger.Debug("status: disk usage unavailable", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v and answers 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service errors to status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var unknown *models.UnknownEntityError
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unknown):
		s.respondJSON(w, http.StatusNotFound, errorResponse{
			Error:       err.Error(),
			ID:          unknown.ID,
			Category:    unknown.Category,
			Suggestions: unknown.Suggestions,
		})
	case errors.Is(err, models.ErrCategoryUnavailable):
		s.logger.Warn("request against unavailable category", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("recommendation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
