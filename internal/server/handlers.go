package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/embedding"
	"github.com/hyperjump/namesim/internal/extract"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/storage"
	"github.com/hyperjump/namesim/internal/vector"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidQuery),
		errors.Is(err, storage.ErrInvalidIdentifier),
		errors.Is(err, vector.ErrZeroVector):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, embedding.ErrEmbedderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// namespaceParam reads ?catalog=&schema=, falling back to the configured namespace.
func (s *Server) namespaceParam(r *http.Request) models.Namespace {
	ns := models.Namespace{
		Catalog: r.URL.Query().Get("catalog"),
		Schema:  r.URL.Query().Get("schema"),
	}
	return s.orDefault(ns)
}

func (s *Server) orDefault(ns models.Namespace) models.Namespace {
	if ns.IsZero() {
		return s.engine.Namespace()
	}
	return ns
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("text", query.Text),
		zap.Int("vector_dims", len(query.Vector)),
		zap.Int("limit", query.Limit),
		zap.Bool("pushdown", query.Pushdown))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	fuzzy := r.URL.Query().Get("fuzzy") != "false"
	res, err := s.engine.Lookup(r.Context(), s.namespaceParam(r), q, limit, fuzzy)
	if err != nil {
		s.logger.Error("lookup failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleAddNames(w http.ResponseWriter, r *http.Request) {
	var input models.NameInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(input.Names) == 0 {
		s.respondError(w, http.StatusBadRequest, "names is required")
		return
	}
	ns := s.orDefault(input.Namespace)
	s.logger.Debug("add names request", zap.String("namespace", ns.String()), zap.Int("count", len(input.Names)))
	recs, err := s.indexer.Seed(r.Context(), ns, input.Names, input.Source)
	if err != nil {
		s.logger.Error("add names failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids, "count": len(ids)})
}

func (s *Server) handleListNames(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	ns := s.namespaceParam(r)
	recs, err := s.store.ListNames(r.Context(), ns, offset, limit)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	// Embeddings are large; list only reports whether one is present.
	out := make([]map[string]interface{}, len(recs))
	for i, rec := range recs {
		out[i] = map[string]interface{}{
			"id":         rec.ID,
			"name":       rec.Name,
			"source":     rec.Source,
			"model":      rec.Model,
			"embedded":   rec.HasEmbedding(),
			"created_at": rec.CreatedAt,
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"names": out, "offset": offset, "limit": limit})
}

func (s *Server) handleDeleteName(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete name request", zap.String("id", id))
	if err := s.indexer.DeleteName(r.Context(), s.namespaceParam(r), id); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type namespaceRequest struct {
	Namespace models.Namespace `json:"namespace"`
	Replace   bool             `json:"replace"`
}

// decodeOptional decodes a JSON body when one was sent.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleVectorize(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := s.indexer.Vectorize(r.Context(), s.orDefault(req.Namespace))
	if err != nil {
		s.logger.Error("vectorize failed", zap.Error(err))
		body := map[string]interface{}{"error": err.Error()}
		if report != nil {
			body["report"] = report
		}
		s.respondJSON(w, statusFor(err), body)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ns := s.orDefault(req.Namespace)
	ctx := r.Context()
	if err := s.store.EnsureNamespace(ctx, ns); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if err := s.store.CreateNameTable(ctx, ns, req.Replace); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if req.Replace {
		if _, err := s.engine.Reload(ctx, ns); err != nil {
			s.logger.Warn("reload after replace failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"namespace": ns, "replaced": req.Replace})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := s.engine.Reload(r.Context(), s.orDefault(req.Namespace))
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"candidates": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ns := s.namespaceParam(r)
	names, err := s.store.CountNames(ctx, ns)
	if err != nil {
		s.logger.Error("status: count names failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	embedded, err := s.store.CountEmbedded(ctx, ns)
	if err != nil {
		s.logger.Error("status: count embedded failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	resp := map[string]interface{}{
		"namespace":    ns,
		"names":        names,
		"embedded":     embedded,
		"pending":      names - embedded,
		"memory_index": s.engine.IndexedCount(ns),
	}
	cfg := s.config
	resp["config"] = map[string]interface{}{
		"storage_driver":       cfg.Storage.Driver,
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_model":      cfg.Embedding.Model,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"scoring":              cfg.Search.Scoring,
		"default_threshold":    cfg.Search.Threshold(),
		"pushdown":             cfg.Search.Pushdown,
	}
	if cfg.Storage.Driver != "postgres" {
		if usage, err := storage.MeasureDiskUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.SnapshotPath); err == nil {
			resp["disk_usage"] = usage
		}
	}
	if s.watch != nil {
		resp["watched_files"] = s.watch.Files()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"files": s.watch.Files()})
}

type watchRequest struct {
	Path string `json:"path"`
	Seed *bool  `json:"seed,omitempty"`
}

func (s *Server) handleWatchAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "file not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if info.IsDir() || !extract.IsSupported(abs) {
		s.respondError(w, http.StatusBadRequest, "path is not a supported name list")
		return
	}
	if err := s.watch.AddFile(abs); err != nil {
		s.logger.Error("watch add file failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	seeded := 0
	if req.Seed == nil || *req.Seed {
		recs, err := s.indexer.SeedFile(r.Context(), s.engine.Namespace(), abs)
		if err != nil {
			s.respondError(w, statusFor(err), err.Error())
			return
		}
		seeded = len(recs)
	}
	s.persistWatch()
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"path": abs, "status": "added", "seeded": seeded})
}

func (s *Server) handleWatchRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body watchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveFile(abs); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatch()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatch() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Files = s.watch.Files()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
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
