// Package storage defines the persistence interface for users, videos, and interactions.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/susume/internal/models"
)

// ErrNotFound marks a lookup for an entity that does not exist.
var ErrNotFound = errors.New("not found")

// InteractionFilter selects interactions for a user. Type may be empty to
// match all types. Limit <= 0 means no limit. NewestFirst orders by creation
// time descending.
type InteractionFilter struct {
	UserID      string
	Type        models.InteractionType
	Limit       int
	NewestFirst bool
}

// Storage defines user, video, and interaction persistence operations.
// Ids are opaque strings.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserByWallet matches the wallet id case-insensitively.
	GetUserByWallet(ctx context.Context, walletID string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	// ListUsers returns all users in one snapshot read, insertion order.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Video operations
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	// ListVideos returns all videos in one snapshot read, insertion order.
	ListVideos(ctx context.Context) ([]*models.Video, error)

	// Interaction operations (append-only)
	CreateInteraction(ctx context.Context, interaction *models.Interaction) error
	ListInteractions(ctx context.Context, filter InteractionFilter) ([]*models.Interaction, error)

	// Stats
	CountUsers(ctx context.Context) (int64, error)
	CountVideos(ctx context.Context) (int64, error)
	CountInteractions(ctx context.Context) (int64, error)

	Close() error
}
