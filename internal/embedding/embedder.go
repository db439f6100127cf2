// Package embedding provides text-to-vector embedding for user profiles,
// video metadata, and merchant transactions.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces fixed-dimension vector embeddings for text.
// Embeddings are not normalized; raw magnitude is preserved.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Backend selects the embedder implementation.
type Backend string

const (
	// BackendMock produces deterministic hash-derived vectors. For tests and development.
	BackendMock Backend = "mock"
	// BackendONNX runs a local ONNX model. Requires CGO and the onnxruntime library.
	BackendONNX Backend = "onnx"
)

// NewEmbedder creates an embedder of the given backend. An empty backend
// defaults to mock.
func NewEmbedder(backend string, modelPath string, dimensions, maxTokens, cacheSize int) (Embedder, error) {
	switch Backend(backend) {
	case BackendMock, "":
		return NewMockEmbedder(dimensions), nil
	case BackendONNX:
		return NewONNXEmbedder(modelPath, dimensions, maxTokens, cacheSize)
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s (supported: mock, onnx)", backend)
	}
}
