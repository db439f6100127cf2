package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/susume/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(t.TempDir() + "/susume.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUserCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := &models.User{
		ID:        "u1",
		WalletID:  "0xAbC123",
		Age:       27,
		Location:  "Tokyo",
		Embedding: []float32{0.1, 0.2, 0.3},
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.WalletID != "0xAbC123" || got.Age != 27 || got.Location != "Tokyo" {
		t.Errorf("user fields: got %+v", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != 0.2 {
		t.Errorf("embedding roundtrip: got %v", got.Embedding)
	}

	if err := store.DeleteUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing: expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByWallet_CaseInsensitive(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	user := &models.User{ID: "u1", WalletID: "0xAbCdEf", Embedding: []float32{1}}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}

	for _, wallet := range []string{"0xabcdef", "0XABCDEF", "0xAbCdEf"} {
		got, err := store.GetUserByWallet(ctx, wallet)
		if err != nil {
			t.Fatalf("wallet %s: %v", wallet, err)
		}
		if got.ID != "u1" {
			t.Errorf("wallet %s: got user %s", wallet, got.ID)
		}
	}

	if _, err := store.GetUserByWallet(ctx, "0xother"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVideoCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	video := &models.Video{
		ID:        "v1",
		PosterID:  "u9",
		Caption:   "sunset surf",
		Hashtags:  []string{"surf", "beach"},
		Location:  "Bali",
		Embedding: []float32{0.5, -0.5},
	}
	if err := store.CreateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PosterID != "u9" || got.Caption != "sunset surf" {
		t.Errorf("video fields: got %+v", got)
	}
	if len(got.Hashtags) != 2 || got.Hashtags[0] != "surf" {
		t.Errorf("hashtags roundtrip: got %v", got.Hashtags)
	}
	if len(got.Embedding) != 2 || got.Embedding[1] != -0.5 {
		t.Errorf("embedding roundtrip: got %v", got.Embedding)
	}

	if err := store.DeleteVideo(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetVideo(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		if err := store.CreateVideo(ctx, &models.Video{ID: id, PosterID: "p", Embedding: []float32{1}}); err != nil {
			t.Fatal(err)
		}
	}
	videos, err := store.ListVideos(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}
	for i, id := range ids {
		if videos[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, videos[i].ID, id)
		}
	}
}

func TestListInteractions_FilterOrderLimit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	records := []*models.Interaction{
		{ID: "i1", UserID: "u1", VideoID: "v1", Type: models.InteractionWatch},
		{ID: "i2", UserID: "u1", VideoID: "v2", Type: models.InteractionLike},
		{ID: "i3", UserID: "u1", VideoID: "v3", Type: models.InteractionWatch},
		{ID: "i4", UserID: "u2", VideoID: "v1", Type: models.InteractionWatch},
		{ID: "i5", UserID: "u1", VideoID: "v4", Type: models.InteractionWatch},
	}
	for _, in := range records {
		if err := store.CreateInteraction(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	watches, err := store.ListInteractions(ctx, InteractionFilter{
		UserID: "u1", Type: models.InteractionWatch, Limit: 2, NewestFirst: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(watches) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(watches))
	}
	if watches[0].VideoID != "v4" || watches[1].VideoID != "v3" {
		t.Errorf("newest-first order: got %s, %s", watches[0].VideoID, watches[1].VideoID)
	}

	likes, err := store.ListInteractions(ctx, InteractionFilter{UserID: "u1", Type: models.InteractionLike})
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 1 || likes[0].VideoID != "v2" {
		t.Errorf("likes: got %+v", likes)
	}
}

func TestCreateInteraction_preservesCreatedAt(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Inserted out of chronological order: recency must come from the supplied
	// timestamps, not from insertion order.
	records := []*models.Interaction{
		{ID: "i1", UserID: "u1", VideoID: "middle", Type: models.InteractionWatch, CreatedAt: base.Add(time.Minute)},
		{ID: "i2", UserID: "u1", VideoID: "newest", Type: models.InteractionWatch, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "i3", UserID: "u1", VideoID: "oldest", Type: models.InteractionWatch, CreatedAt: base},
	}
	for _, in := range records {
		if err := store.CreateInteraction(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	watches, err := store.ListInteractions(ctx, InteractionFilter{UserID: "u1", NewestFirst: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(watches) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(watches))
	}
	wantOrder := []string{"newest", "middle", "oldest"}
	for i, want := range wantOrder {
		if watches[i].VideoID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, watches[i].VideoID)
		}
	}
	if !watches[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("supplied timestamp not preserved: got %v", watches[0].CreatedAt)
	}
}

func TestCreateUser_defaultsZeroCreatedAt(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	user := &models.User{ID: "u1", WalletID: "0xAAA"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt.Before(before) {
		t.Errorf("zero CreatedAt should default to now, got %v", got.CreatedAt)
	}

	supplied := time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)
	video := &models.Video{ID: "v1", PosterID: "p1", CreatedAt: supplied}
	if err := store.CreateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}
	gotVideo, err := store.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if !gotVideo.CreatedAt.Equal(supplied) {
		t.Errorf("supplied video CreatedAt not preserved: got %v", gotVideo.CreatedAt)
	}
}

func TestCounts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	_ = store.CreateUser(ctx, &models.User{ID: "u1", WalletID: "w1"})
	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", PosterID: "u1"})
	_ = store.CreateVideo(ctx, &models.Video{ID: "v2", PosterID: "u1"})
	_ = store.CreateInteraction(ctx, &models.Interaction{ID: "i1", UserID: "u1", VideoID: "v1", Type: models.InteractionWatch})

	if n, _ := store.CountUsers(ctx); n != 1 {
		t.Errorf("users: got %d", n)
	}
	if n, _ := store.CountVideos(ctx); n != 2 {
		t.Errorf("videos: got %d", n)
	}
	if n, _ := store.CountInteractions(ctx); n != 1 {
		t.Errorf("interactions: got %d", n)
	}
}

func TestNilEmbeddingRoundtrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if err := store.CreateUser(ctx, &models.User{ID: "u1", WalletID: "w1"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Embedding != nil {
		t.Errorf("expected nil embedding, got %v", got.Embedding)
	}
}
