package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/index"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/storage"
	"github.com/hyperjump/susume/pkg/utils"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input models.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	emb, err := s.embedder.Embed(r.Context(), input.EmbeddingText())
	if err != nil {
		s.logger.Error("user embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user := &models.User{
		ID:        input.ID,
		WalletID:  input.WalletID,
		Age:       input.Age,
		Location:  input.Location,
		Embedding: emb,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storage.CreateUser(r.Context(), user); err != nil {
		s.logger.Error("create user failed", zap.Error(err))
		s.respondServiceError(w, err)
		return
	}
	s.rebuild(r, index.ClassUser)
	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := s.storage.GetUser(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete user request", zap.String("id", id))
	if err := s.storage.DeleteUser(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.rebuild(r, index.ClassUser)
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var input models.VideoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	s.logger.Debug("create video request",
		zap.String("id", input.ID),
		zap.String("caption", utils.Truncate(input.Caption, 80)))
	emb, err := s.embedder.Embed(r.Context(), input.EmbeddingText())
	if err != nil {
		s.logger.Error("video embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	video := &models.Video{
		ID:        input.ID,
		PosterID:  input.PosterID,
		Caption:   input.Caption,
		Hashtags:  input.Hashtags,
		Location:  input.Location,
		Embedding: emb,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storage.CreateVideo(r.Context(), video); err != nil {
		s.logger.Error("create video failed", zap.Error(err))
		s.respondServiceError(w, err)
		return
	}
	if err := s.catalog.Index(r.Context(), video); err != nil {
		s.logger.Warn("catalog indexing failed", zap.String("id", video.ID), zap.Error(err))
	}
	s.rebuild(r, index.ClassVideo)
	s.respondJSON(w, http.StatusCreated, video)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	video, err := s.storage.GetVideo(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, video)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete video request", zap.String("id", id))
	if err := s.storage.DeleteVideo(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.logger.Warn("catalog delete failed", zap.String("id", id), zap.Error(err))
	}
	s.rebuild(r, index.ClassVideo)
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// videoSearchResult pairs a catalog hit's relevance score with the video.
type videoSearchResult struct {
	Video *models.Video `json:"video"`
	Score float64       `json:"score"`
}

func (s *Server) handleSearchVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	hits, err := s.catalog.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("catalog search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results := make([]*videoSearchResult, 0, len(hits))
	for _, hit := range hits {
		video, err := s.storage.GetVideo(r.Context(), hit.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results = append(results, &videoSearchResult{Video: video, Score: hit.Score})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	var input models.InteractionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.storage.GetUser(r.Context(), input.UserID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	if _, err := s.storage.GetVideo(r.Context(), input.VideoID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	interaction := &models.Interaction{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		VideoID:   input.VideoID,
		Type:      input.Type,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storage.CreateInteraction(r.Context(), interaction); err != nil {
		s.logger.Error("create interaction failed", zap.Error(err))
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, interaction)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	s.logger.Debug("recommendation request", zap.String("user_id", userID))
	resp, err := s.composer.Recommend(r.Context(), userID)
	if err != nil {
		s.logger.Error("recommendation failed", zap.String("user_id", userID), zap.Error(err))
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalculateRewards(w http.ResponseWriter, r *http.Request) {
	var req models.DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.distributor.Distribute(r.Context(), &req)
	if err != nil {
		s.logger.Error("reward distribution failed", zap.Error(err))
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userCount, err := s.storage.CountUsers(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	videoCount, err := s.storage.CountVideos(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	interactionCount, err := s.storage.CountInteractions(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"users":            userCount,
		"videos":           videoCount,
		"interactions":     interactionCount,
		"video_index_size": s.indexes.Videos().Size(),
		"user_index_size":  s.indexes.Users().Size(),
	}
	resp["config"] = map[string]interface{}{
		"embedding_backend":    s.config.Embedding.Backend,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"recommend_limit":      s.config.Recommend.Limit,
		"propagation_cap":      s.config.Recommend.PropagationCap,
		"watch_window":         s.config.Reward.WatchWindow,
		"notify_backend":       s.config.Notify.Backend,
		"database_path":        s.config.Storage.DatabasePath,
		"catalog_index_path":   s.config.Storage.CatalogIndexPath,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.CatalogIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// rebuild refreshes the vector index for a class after a create or delete.
// A failed rebuild leaves the previous index serving, so the write still
// succeeds.
func (s *Server) rebuild(r *http.Request, class index.Class) {
	if err := s.indexes.Rebuild(r.Context(), class); err != nil {
		s.logger.Warn("index rebuild failed", zap.String("class", string(class)), zap.Error(err))
	}
}

// respondServiceError maps sentinel errors to HTTP status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
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
