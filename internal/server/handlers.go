package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/etalase/internal/catalog"
	"github.com/hyperjump/etalase/internal/embedding"
	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/search"
	"go.uber.org/zap"
)

// ErrShuttingDown is returned by Reload once the server has been stopped.
var ErrShuttingDown = errors.New("server shutting down")

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_ = query.Validate(s.config.Search.DefaultTopK, s.config.Search.MaxTopK)
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("k", query.K))

	s.waitForIndex(r.Context())
	start := time.Now()
	res, err := s.service.Query(r.Context(), query.Query, s.catalog.Current().Items(), query.K)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query.Query), zap.Error(err))
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK,
		models.NewSearchResponse(query.Query, res.Items, res.Scores, res.Mode, time.Since(start).Milliseconds()))
}

// waitForIndex holds a search for up to search.wait_ready_timeout while an
// initialization is pending, so it can be served semantically.
func (s *Server) waitForIndex(ctx context.Context) {
	timeout := s.config.Search.WaitReadyTimeout
	if timeout <= 0 {
		return
	}
	state := s.service.State()
	if state == search.StateReady || (state == search.StateDegraded && !s.service.Building()) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.service.WaitReady(ctx); err != nil {
		s.logger.Debug("search proceeding before index is ready", zap.Error(err))
	}
}

type itemsResponse struct {
	Items  []*models.Item `json:"items"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	items := s.catalog.Current().Items()
	total := len(items)
	if offset > total {
		offset = total
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if items == nil {
		items = []*models.Item{}
	}
	s.respondJSON(w, http.StatusOK, itemsResponse{Items: items, Total: total, Offset: offset})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, ok := s.catalog.Current().Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	s.respondJSON(w, http.StatusOK, it)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.Status())
}

// Status reports the service lifecycle together with the latest progress event.
func (s *Server) Status() *models.StatusResponse {
	st := &models.StatusResponse{
		Session:   s.service.Session(),
		State:     s.service.State().String(),
		Building:  s.service.Building(),
		Items:     s.catalog.Current().Len(),
		IndexSize: s.service.IndexSize(),
	}
	if err := s.service.Err(); err != nil {
		st.Error = err.Error()
	}
	if e, ok := s.service.Status().Last(); ok {
		st.Stage = string(e.Stage)
		st.Message = e.Message
		st.Done = e.Done
		st.Total = e.Total
	}
	return st
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("reindex request", zap.String("path", s.catalog.Path()))
	if _, err := s.Reload(r.Context()); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidCatalog):
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrShuttingDown):
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("reindex failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusAccepted, s.Status())
}

// Reload reads the catalog again and rebuilds the embedding index in the
// background. A catalog that fails to load leaves everything unchanged.
func (s *Server) Reload(ctx context.Context) (*catalog.Catalog, error) {
	c, err := s.catalog.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.rebuild(c.Items()); err != nil {
		return nil, err
	}
	return c, nil
}

// CatalogChanged reloads the catalog after its file changed. The index is
// rebuilt unless the service is degraded; only Reload retries a failed service.
// It reports whether a rebuild was started.
func (s *Server) CatalogChanged(ctx context.Context) (bool, error) {
	c, err := s.catalog.Reload(ctx)
	if err != nil {
		return false, err
	}
	if s.service.State() == search.StateDegraded {
		s.logger.Info("catalog reloaded, index rebuild skipped while degraded",
			zap.Int("items", c.Len()), zap.Error(s.service.Err()))
		return false, nil
	}
	if err := s.rebuild(c.Items()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Server) rebuild(items []*models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return ErrShuttingDown
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.service.Initialize(s.ctx, items); err != nil {
			s.logger.Warn("index rebuild failed", zap.Int("items", len(items)), zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.service.State().String(),
	})
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var embErr *embedding.EmbedderError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusServiceUnavailable, "request cancelled")
	case errors.As(err, &embErr):
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
