package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/feedback"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/search"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const healthMessage = "ScrewSavvy backend is running"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": healthMessage})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		s.respondError(w, http.StatusBadRequest, "No file selected")
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	name := filepath.Base(header.Filename)
	s.logger.Debug("upload request", zap.String("file", name), zap.Int("bytes", len(content)))
	res, err := s.indexer.IngestFile(r.Context(), name, content, header.Header.Get("Content-Type"))
	if err != nil {
		s.logger.Error("ingestion failed", zap.String("file", name), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"document":           res.Document,
		"source_id":          res.SourceID,
		"chunks_processed":   res.ChunksProcessed,
		"embeddings_created": res.EmbeddingsCreated,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		s.respondError(w, http.StatusNotImplemented, "document metadata not enabled")
		return
	}
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)
	docs, err := s.documents.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "offset": offset, "limit": limit})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		s.respondError(w, http.StatusNotImplemented, "document metadata not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

type chatRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "Query is required")
		return
	}
	s.logger.Debug("chat request", zap.String("query", req.Query))

	answer, err := s.engine.Answer(r.Context(), req.Query)
	if err != nil {
		fallback := search.InferenceFallbackMessage
		var ae *search.AnswerError
		if errors.As(err, &ae) && ae.FallbackMessage != "" {
			fallback = ae.FallbackMessage
		}
		s.logger.Error("chat failed", zap.String("kind", errorKind(err)), zap.Error(err))
		s.respondJSON(w, statusFor(err), map[string]string{
			"error":             err.Error(),
			"error_kind":        errorKind(err),
			"fallback_response": fallback,
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":             true,
		"response":            answer.Answer,
		"context_chunks_used": answer.ContextChunksUsed,
		"query":               answer.Query,
	})
}

type searchRequest struct {
	Query          string  `json:"query"`
	Limit          int     `json:"limit,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	results, err := s.engine.Retrieve(r.Context(), req.Query, req.Limit, req.ScoreThreshold)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var sub feedback.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := s.feedback.Record(r.Context(), sub)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			s.respondError(w, http.StatusBadRequest, "Question and feedback are required")
			return
		}
		s.logger.Error("feedback failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     feedback.ThankYouMessage,
		"feedback_id": entry.ID,
	})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedbackStore == nil {
		s.respondError(w, http.StatusNotImplemented, "feedback listing not enabled")
		return
	}
	entries, err := s.feedbackStore.ListFeedback(r.Context(), queryInt(r, "offset", 0), queryInt(r, "limit", 50))
	if err != nil {
		s.logger.Error("list feedback failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.FeedbackEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"feedback": entries})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{}

	if s.documents != nil {
		docCount, err := s.documents.CountDocuments(ctx)
		if err != nil {
			s.logger.Error("status: count documents failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["documents"] = docCount
	}
	if s.feedbackStore != nil {
		fbCount, err := s.feedbackStore.CountFeedback(ctx)
		if err != nil {
			s.logger.Error("status: count feedback failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["feedback"] = fbCount
	}
	if s.vectors != nil {
		// An unreachable vector store is reported, not fatal.
		n, err := s.vectors.Count(ctx)
		if err != nil {
			resp["vector_error"] = err.Error()
		} else {
			resp["vector_records"] = n
		}
	}

	cfg := s.config
	configInfo := map[string]interface{}{
		"vector_store_type":    cfg.Vector.Type,
		"collection":           cfg.Vector.Collection,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"chunk_size":           cfg.Chunking.ChunkSize,
		"retrieval_limit":      cfg.Retrieval.Limit,
		"score_threshold":      cfg.Retrieval.ScoreThreshold,
		"database_path":        cfg.Storage.DatabasePath,
		"feedback_sink":        cfg.Storage.FeedbackSink,
	}
	if s.vectors != nil {
		configInfo["vector_store_type"] = vector.TypeOf(s.vectors)
	}
	paths := []string{}
	if cfg.Storage.FeedbackSink == "json" {
		paths = append(paths, cfg.Storage.FeedbackPath)
	}
	diskBytes, err := storage.DiskUsageBytes(paths...)
	if err == nil {
		dbBytes, dbErr := storage.DatabaseFootprint(cfg.Storage.DatabasePath)
		if dbErr == nil {
			resp["disk_usage_bytes"] = diskBytes + dbBytes
		}
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
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
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
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
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	defer s.watchConfigMu.Unlock()
	s.watchConfig.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.watchConfig); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorKind names the failure class for API clients.
func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrStorage), errors.Is(err, models.ErrDimensionMismatch):
		return "storage"
	case errors.Is(err, models.ErrInferenceSubmission):
		return "inference_submission"
	case errors.Is(err, models.ErrInferenceFailed):
		return "inference_failed"
	case errors.Is(err, models.ErrInferenceTimeout):
		return "inference_timeout"
	default:
		return "internal"
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
