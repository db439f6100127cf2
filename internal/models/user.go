// Package models defines core data structures for users, videos, interactions,
// and the recommendation/reward API types.
package models

import (
	"fmt"
	"time"
)

// User represents a registered viewer with a wallet and a profile embedding.
type User struct {
	ID        string    `json:"id" db:"id"`
	WalletID  string    `json:"wallet_id" db:"wallet_id"`
	Age       int       `json:"age,omitempty" db:"age"`
	Location  string    `json:"location,omitempty" db:"location"`
	Embedding []float32 `json:"-" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserInput is the input for creating a user. The embedding is derived
// from the profile text at create time.
type UserInput struct {
	ID       string `json:"id,omitempty"`
	WalletID string `json:"wallet_id"`
	Age      int    `json:"age,omitempty"`
	Location string `json:"location,omitempty"`
}

// Validate checks required fields.
func (u *UserInput) Validate() error {
	if u.WalletID == "" {
		return fmt.Errorf("%w: wallet_id is required", ErrValidation)
	}
	if u.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrValidation)
	}
	return nil
}
