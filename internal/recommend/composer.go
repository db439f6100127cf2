// Package recommend composes video recommendations from vector similarity
// and social propagation over similar users' liked videos.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/index"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/notify"
	"github.com/hyperjump/susume/internal/storage"
)

// Composer builds recommendation lists for users.
type Composer struct {
	storage  storage.Storage
	indexes  *index.Manager
	notifier notify.Notifier
	config   *config.RecommendConfig
	logger   *zap.Logger
}

// NewComposer creates a recommendation composer with the given dependencies.
func NewComposer(
	storage storage.Storage,
	indexes *index.Manager,
	notifier notify.Notifier,
	cfg *config.RecommendConfig,
	logger *zap.Logger,
) *Composer {
	return &Composer{
		storage:  storage,
		indexes:  indexes,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
	}
}

// candidate is an internal recommendation candidate before metadata resolution.
type candidate struct {
	videoID string
	// score is the squared L2 distance that produced this candidate: the
	// target user's distance for direct candidates, the contributing similar
	// user's distance for propagated ones. Lower is better.
	score float64
	// ordinal preserves discovery order so equal scores sort stably.
	ordinal int
}

// Recommend returns up to limit directly similar videos for userID, plus
// videos propagated from the liked histories of up to limit similar users.
// Propagated candidates inherit the contributing user's distance as their
// score; duplicates and videos already discovered directly are skipped.
// Each similar user whose liked history contributed data triggers a
// fire-and-forget usage notification for their wallet.
func (c *Composer) Recommend(ctx context.Context, userID string) (*models.RecommendationResponse, error) {
	user, err := c.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Embedding) == 0 {
		return nil, fmt.Errorf("user %s has no embedding: %w", userID, storage.ErrNotFound)
	}

	limit := c.config.Limit
	propCap := c.config.PropagationCap

	direct, err := c.indexes.Videos().Search(user.Embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("video search failed: %w", err)
	}

	// Request one extra so the user themselves can be dropped from the
	// similar-user list without shrinking it.
	similar, err := c.indexes.Users().Search(user.Embedding, limit+1)
	if err != nil {
		return nil, fmt.Errorf("user search failed: %w", err)
	}

	seen := make(map[string]bool, len(direct))
	candidates := make([]candidate, 0, len(direct))
	for _, r := range direct {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		candidates = append(candidates, candidate{videoID: r.ID, score: r.Distance, ordinal: len(candidates)})
	}

	kept := 0
	for _, su := range similar {
		if su.ID == userID {
			continue
		}
		if kept >= limit {
			break
		}
		kept++

		likes, err := c.storage.ListInteractions(ctx, storage.InteractionFilter{
			UserID:      su.ID,
			Type:        models.InteractionLike,
			NewestFirst: true,
		})
		if err != nil {
			return nil, fmt.Errorf("listing likes for user %s: %w", su.ID, err)
		}
		if len(likes) == 0 {
			continue
		}

		propagated := 0
		for _, like := range likes {
			if propagated >= propCap {
				break
			}
			if seen[like.VideoID] {
				continue
			}
			seen[like.VideoID] = true
			candidates = append(candidates, candidate{videoID: like.VideoID, score: su.Distance, ordinal: len(candidates)})
			propagated++
		}

		// The similar user's history was consulted regardless of whether any
		// of it survived dedup; their data was used either way.
		c.notifyUsage(su.ID)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].ordinal < candidates[j].ordinal
	})

	videos := make([]*models.RecommendedVideo, 0, len(candidates))
	for _, cand := range candidates {
		video, err := c.storage.GetVideo(ctx, cand.videoID)
		if err != nil {
			// The index can briefly lag behind deletions.
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolving video %s: %w", cand.videoID, err)
		}
		videos = append(videos, &models.RecommendedVideo{
			ID:              video.ID,
			PosterID:        video.PosterID,
			Caption:         video.Caption,
			Hashtags:        video.Hashtags,
			Location:        video.Location,
			SimilarityScore: cand.score,
		})
	}

	return &models.RecommendationResponse{RecommendedVideos: videos}, nil
}

// notifyUsage dispatches a usage notification for the user's wallet without
// blocking or affecting the recommendation response. At-most-once: failures
// are logged and dropped.
func (c *Composer) notifyUsage(userID string) {
	go func() {
		user, err := c.storage.GetUser(context.Background(), userID)
		if err != nil {
			c.logger.Warn("usage notification skipped: user lookup failed",
				zap.String("user_id", userID), zap.Error(err))
			return
		}
		if user.WalletID == "" {
			return
		}
		if err := c.notifier.NotifyUsage(context.Background(), user.WalletID); err != nil {
			c.logger.Warn("usage notification failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}()
}
