package models

import (
	"fmt"
	"time"
)

// Video represents an uploaded video with the metadata its embedding is derived from.
type Video struct {
	ID        string    `json:"id" db:"id"`
	PosterID  string    `json:"poster_id" db:"poster_id"`
	Caption   string    `json:"caption,omitempty" db:"caption"`
	Hashtags  []string  `json:"hashtags,omitempty" db:"hashtags"`
	Location  string    `json:"location,omitempty" db:"location"`
	Embedding []float32 `json:"-" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// VideoInput is the input for creating a video. The embedding is derived from
// caption, hashtags, and location at create time.
type VideoInput struct {
	ID       string   `json:"id,omitempty"`
	PosterID string   `json:"poster_id"`
	Caption  string   `json:"caption,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Validate checks required fields.
func (v *VideoInput) Validate() error {
	if v.PosterID == "" {
		return fmt.Errorf("%w: poster_id is required", ErrValidation)
	}
	if v.EmbeddingText() == "" {
		return fmt.Errorf("%w: at least one of caption, hashtags, or location is required", ErrValidation)
	}
	return nil
}

// EmbeddingText returns the text the video embedding is derived from:
// caption, hashtags, and location concatenated.
func (v *VideoInput) EmbeddingText() string {
	parts := make([]string, 0, len(v.Hashtags)+2)
	if v.Caption != "" {
		parts = append(parts, v.Caption)
	}
	parts = append(parts, v.Hashtags...)
	if v.Location != "" {
		parts = append(parts, v.Location)
	}
	return joinNonEmpty(parts)
}

// EmbeddingText returns the text the user embedding is derived from.
func (u *UserInput) EmbeddingText() string {
	parts := make([]string, 0, 2)
	if u.Age > 0 {
		parts = append(parts, ageBucket(u.Age))
	}
	if u.Location != "" {
		parts = append(parts, u.Location)
	}
	return joinNonEmpty(parts)
}

// ageBucket maps an age to a coarse label so nearby ages embed similarly.
func ageBucket(age int) string {
	switch {
	case age < 18:
		return "teen"
	case age < 30:
		return "young adult"
	case age < 50:
		return "adult"
	default:
		return "senior"
	}
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
