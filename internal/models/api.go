package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks a request with missing or malformed required fields.
// Handlers map it to a 400 response.
var ErrValidation = errors.New("validation failed")

// RecommendedVideo is a single recommendation with its relevance score.
// Lower scores are more relevant (squared L2 distance, or the contributing
// similar user's distance for propagated candidates).
type RecommendedVideo struct {
	ID              string   `json:"id"`
	PosterID        string   `json:"posterId"`
	Caption         string   `json:"caption,omitempty"`
	Hashtags        []string `json:"hashtags,omitempty"`
	Location        string   `json:"location,omitempty"`
	SimilarityScore float64  `json:"similarityScore"`
}

// RecommendationResponse is the response for a recommendation request.
type RecommendationResponse struct {
	RecommendedVideos []*RecommendedVideo `json:"recommendedVideos"`
}

// DistributeRequest describes a merchant transaction whose influence rewards
// should be split among content creators.
type DistributeRequest struct {
	MerchantType          string `json:"merchantType"`
	MerchantLocation      string `json:"merchantLocation"`
	TransactionTitle      string `json:"transactionTitle"`
	PurchasingUserAddress string `json:"purchasingUserAddress"`
}

// Validate ensures all four fields are present.
func (r *DistributeRequest) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"merchantType", r.MerchantType},
		{"merchantLocation", r.MerchantLocation},
		{"transactionTitle", r.TransactionTitle},
		{"purchasingUserAddress", r.PurchasingUserAddress},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}
	return nil
}

// EmbeddingText returns the merchant text the transaction embedding is derived from.
func (r *DistributeRequest) EmbeddingText() string {
	return r.MerchantType + " " + r.MerchantLocation + " " + r.TransactionTitle
}

// InfluenceShare is one creator's share of a transaction's influence reward.
type InfluenceShare struct {
	WalletAddress  string  `json:"walletAddress"`
	InfluenceScore float64 `json:"influenceScore"`
}

// DistributeResponse is the response for a reward distribution request.
// When no watch history exists, Msg is set and Users is empty. Users always
// serializes, so an empty reward set is an explicit "users":[] rather than
// an empty body.
type DistributeResponse struct {
	Users []*InfluenceShare `json:"users"`
	Msg   string            `json:"msg,omitempty"`
}

// NoDistribution reports whether the response signals that the purchasing user
// had no watch history (distinct from an empty reward set).
func (r *DistributeResponse) NoDistribution() bool {
	return r.Msg != ""
}
