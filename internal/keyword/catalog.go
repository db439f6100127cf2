// Package keyword provides text search over the video catalog (captions,
// hashtags, locations) using Bleve.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/susume/internal/models"
)

// Result is a single catalog search hit.
type Result struct {
	ID    string
	Score float64
}

// CatalogIndex defines text search operations over the video catalog.
type CatalogIndex interface {
	Index(ctx context.Context, video *models.Video) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// catalogEntry is the shape Bleve indexes for a video.
type catalogEntry struct {
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
	Location string `json:"location"`
}

// BleveCatalog implements CatalogIndex using Bleve.
type BleveCatalog struct {
	index bleve.Index
}

// NewBleveCatalog creates or opens a Bleve index at path. An existing index is
// reused; remove the directory to force a full re-index after mapping changes.
func NewBleveCatalog(path string) (*BleveCatalog, error) {
	im := bleve.NewIndexMapping()

	videoMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so hashtag queries
	// match exact words.
	textFieldMapping.Analyzer = standard.Name
	videoMapping.AddFieldMappingsAt("caption", textFieldMapping)
	videoMapping.AddFieldMappingsAt("hashtags", textFieldMapping)
	videoMapping.AddFieldMappingsAt("location", textFieldMapping)
	im.AddDocumentMapping("video", videoMapping)
	im.DefaultType = "video"
	im.DefaultMapping = videoMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open catalog index: %w", openErr)
		}
		return &BleveCatalog{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	return &BleveCatalog{index: index}, nil
}

// Index indexes a video's text fields under its id.
func (b *BleveCatalog) Index(ctx context.Context, video *models.Video) error {
	return b.index.Index(video.ID, &catalogEntry{
		Caption:  video.Caption,
		Hashtags: strings.Join(video.Hashtags, " "),
		Location: video.Location,
	})
}

// Search runs a match query over all text fields and returns up to limit hits.
func (b *BleveCatalog) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a video from the index.
func (b *BleveCatalog) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the underlying Bleve index.
func (b *BleveCatalog) Close() error {
	return b.index.Close()
}
