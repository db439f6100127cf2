package models

import (
	"fmt"
	"time"
)

// InteractionType is the kind of user-video interaction.
type InteractionType string

const (
	InteractionWatch InteractionType = "watch"
	InteractionLike  InteractionType = "like"
)

// Interaction records that a user watched or liked a video. Append-only.
type Interaction struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	VideoID   string          `json:"video_id" db:"video_id"`
	Type      InteractionType `json:"type" db:"type"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// InteractionInput is the input for recording an interaction.
type InteractionInput struct {
	UserID  string          `json:"user_id"`
	VideoID string          `json:"video_id"`
	Type    InteractionType `json:"type"`
}

// Validate checks required fields and the interaction type.
func (in *InteractionInput) Validate() error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if in.VideoID == "" {
		return fmt.Errorf("%w: video_id is required", ErrValidation)
	}
	switch in.Type {
	case InteractionWatch, InteractionLike:
		return nil
	default:
		return fmt.Errorf("%w: type must be watch or like", ErrValidation)
	}
}
