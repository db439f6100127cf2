package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/susume/internal/models"
)

func newTestCatalog(t *testing.T) *BleveCatalog {
	t.Helper()
	cat, err := NewBleveCatalog(t.TempDir() + "/catalog.bleve")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	return cat
}

func TestCatalog_IndexSearch(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	videos := []*models.Video{
		{ID: "v1", Caption: "morning surf session", Hashtags: []string{"surf", "ocean"}, Location: "Bali"},
		{ID: "v2", Caption: "ramen tour", Hashtags: []string{"food", "noodles"}, Location: "Tokyo"},
	}
	for _, v := range videos {
		if err := cat.Index(ctx, v); err != nil {
			t.Fatal(err)
		}
	}

	hits, err := cat.Search(ctx, "surf", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "v1" {
		t.Errorf("surf: got %+v", hits)
	}

	hits, err = cat.Search(ctx, "tokyo", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "v2" {
		t.Errorf("tokyo (location, case-insensitive): got %+v", hits)
	}
}

func TestCatalog_SearchHashtags(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()
	_ = cat.Index(ctx, &models.Video{ID: "v1", Hashtags: []string{"skate", "tricks"}})

	hits, err := cat.Search(ctx, "tricks", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "v1" {
		t.Errorf("hashtag search: got %+v", hits)
	}
}

func TestCatalog_Delete(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()
	_ = cat.Index(ctx, &models.Video{ID: "v1", Caption: "city lights"})

	if err := cat.Delete(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	hits, err := cat.Search(ctx, "city", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits after delete, got %+v", hits)
	}
}
