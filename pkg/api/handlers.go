package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/match"
	"github.com/ssargent/imgdedup/pkg/system"
	imgsync "github.com/ssargent/imgdedup/pkg/sync"
)

// ServerDeps bundles the domain services the REST API fronts: the directory
// synchronizer, the fuzzy match engine, and the B+ tree/thumbnail cache they
// share. All three are already wired together by cmd/imgdedup before the
// server starts.
type ServerDeps struct {
	Synchronizer *imgsync.Synchronizer
	Matcher      *match.Engine
	Tree         *bptree.Tree
	System       *system.Service
}

// Server holds the API server state.
type Server struct {
	deps    ServerDeps
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server.
func NewServer(deps ServerDeps, config ServerConfig, metrics *Metrics) *Server {
	return &Server{deps: deps, config: config, metrics: metrics}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleSync godoc
//
//	@Summary		Synchronize the thumbnail cache against a directory
//	@Description	Walks path (recursively if requested), thumbnailing and indexing new or changed images
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SyncRequest	true	"Sync request"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/sync [post]
//	@Security		ApiKeyAuth
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		sendError(w, "path is required", http.StatusBadRequest)
		return
	}

	s.deps.Synchronizer.Recursive = req.Recursive
	report, err := s.deps.Synchronizer.Synchronize(req.Path)
	if s.metrics != nil {
		s.metrics.RecordSyncOperation(err == nil, time.Since(start))
	}
	if err != nil {
		sendError(w, fmt.Sprintf("sync failed: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, report)
}

// handleMatch godoc
//
//	@Summary		Find near duplicates of a previously synced image
//	@Description	Thumbnails the file at root/{filename}, range-scans the index, and confirms candidates pixel-by-pixel
//	@Tags			match
//	@Produce		json
//	@Param			filename	path		string	true	"Filename relative to root (as indexed by sync)"
//	@Param			root		query		string	true	"Directory the file lives under"
//	@Success		200			{object}	map[string]interface{}
//	@Failure		400			{object}	map[string]string
//	@Failure		500			{object}	map[string]string
//	@Router			/match/{filename} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filename := chi.URLParam(r, "filename")
	root := r.URL.Query().Get("root")
	if filename == "" || root == "" {
		sendError(w, "filename and root are required", http.StatusBadRequest)
		return
	}

	path := root + string('/') + filename
	matches, err := s.deps.Matcher.FindMatches(path, filename, match.DefaultMaxMatches)
	if s.metrics != nil {
		s.metrics.RecordMatchOperation(err == nil, time.Since(start))
	}
	if err != nil {
		sendError(w, fmt.Sprintf("match failed: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"matches": matches})
}

// handleDedup godoc
//
//	@Summary		Move a confirmed duplicate into the output folder
//	@Description	Relocates path into outPath, named by a stable hash of its canonical path, and removes it from the index
//	@Tags			dedup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DedupRequest	true	"Dedup request"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/dedup [post]
//	@Security		ApiKeyAuth
func (s *Server) handleDedup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req DedupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if req.Path == "" || req.OutPath == "" {
		sendError(w, "path and out_path are required", http.StatusBadRequest)
		return
	}

	dest, err := match.Dedup(s.deps.Matcher.Cache, s.deps.Tree, req.Path, req.Offset, req.OutPath)
	if s.metrics != nil {
		s.metrics.RecordDedupOperation(err == nil)
	}
	if err != nil {
		sendError(w, fmt.Sprintf("dedup failed: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"moved_to": dest})
}

// handleTreeRange godoc
//
//	@Summary		Range-scan the signature index
//	@Description	Returns every (signature, offset) pair with a key in [lo, hi]
//	@Tags			tree
//	@Produce		json
//	@Param			lo	query		number	true	"Lower bound"
//	@Param			hi	query		number	true	"Upper bound"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/tree/range [get]
//	@Security		ApiKeyAuth
func (s *Server) handleTreeRange(w http.ResponseWriter, r *http.Request) {
	lo, errLo := strconv.ParseFloat(r.URL.Query().Get("lo"), 32)
	hi, errHi := strconv.ParseFloat(r.URL.Query().Get("hi"), 32)
	if errLo != nil || errHi != nil {
		sendError(w, "lo and hi must be numbers", http.StatusBadRequest)
		return
	}

	pairs, err := s.deps.Tree.SearchRange(float32(lo), float32(hi))
	if err != nil && err != bptree.ErrNotFound {
		sendError(w, fmt.Sprintf("range search failed: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"pairs": pairs})
}

// handleStats godoc
//
//	@Summary		Get index statistics
//	@Description	Get statistics about the B+ tree index (depth, node counts)
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/stats [get]
//	@Security		ApiKeyAuth
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.deps.Tree.Stats()
	if s.metrics != nil {
		s.metrics.UpdateTreeStats(stats)
	}
	sendSuccess(w, stats)
}
