// Package reward splits a transaction's influence reward among the creators
// of the purchasing user's recently watched videos.
package reward

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/embedding"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/storage"
	"github.com/hyperjump/susume/internal/vector"
)

// Distributor computes influence reward splits for merchant transactions.
type Distributor struct {
	storage  storage.Storage
	embedder embedding.Embedder
	config   *config.RewardConfig
	logger   *zap.Logger
}

// NewDistributor creates a reward distributor with the given dependencies.
func NewDistributor(
	storage storage.Storage,
	embedder embedding.Embedder,
	cfg *config.RewardConfig,
	logger *zap.Logger,
) *Distributor {
	return &Distributor{
		storage:  storage,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}
}

// Distribute resolves the purchasing user by wallet address, embeds the
// merchant transaction, and scores each recently watched video's poster by
// cosine similarity between the transaction and the video. Scores accumulate
// per poster and are scaled to sum to 100. A user with no watch history gets
// a "no distribution required" response rather than an error.
func (d *Distributor) Distribute(ctx context.Context, req *models.DistributeRequest) (*models.DistributeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := d.storage.GetUserByWallet(ctx, req.PurchasingUserAddress)
	if err != nil {
		return nil, err
	}

	watches, err := d.storage.ListInteractions(ctx, storage.InteractionFilter{
		UserID:      user.ID,
		Type:        models.InteractionWatch,
		Limit:       d.config.WatchWindow,
		NewestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing watch history: %w", err)
	}
	if len(watches) == 0 {
		return &models.DistributeResponse{
			Users: []*models.InfluenceShare{},
			Msg:   "no distribution required",
		}, nil
	}

	merchantEmbedding, err := d.embedder.Embed(ctx, req.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("embedding transaction: %w", err)
	}

	scores := make(map[string]float64)
	total := 0.0
	for _, w := range watches {
		video, err := d.storage.GetVideo(ctx, w.VideoID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				d.logger.Debug("watched video no longer exists", zap.String("video_id", w.VideoID))
				continue
			}
			return nil, fmt.Errorf("resolving video %s: %w", w.VideoID, err)
		}
		if video.PosterID == "" || len(video.Embedding) == 0 {
			continue
		}
		sim := vector.CosineSimilarity(merchantEmbedding, video.Embedding)
		scores[video.PosterID] += sim
		total += sim
	}

	if total <= 0 {
		return &models.DistributeResponse{Users: []*models.InfluenceShare{}}, nil
	}

	shares := make([]*models.InfluenceShare, 0, len(scores))
	for posterID, score := range scores {
		poster, err := d.storage.GetUser(ctx, posterID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				d.logger.Warn("poster has no account, dropping share", zap.String("poster_id", posterID))
				continue
			}
			return nil, fmt.Errorf("resolving poster %s: %w", posterID, err)
		}
		shares = append(shares, &models.InfluenceShare{
			WalletAddress:  poster.WalletID,
			InfluenceScore: score / total * 100,
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].InfluenceScore != shares[j].InfluenceScore {
			return shares[i].InfluenceScore > shares[j].InfluenceScore
		}
		return shares[i].WalletAddress < shares[j].WalletAddress
	})

	return &models.DistributeResponse{Users: shares}, nil
}
