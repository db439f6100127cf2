package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/storage"
)

// failingStore wraps a Storage and fails list calls on demand.
type failingStore struct {
	storage.Storage
	mu         sync.Mutex
	failVideos bool
	failUsers  bool
}

var errStoreDown = errors.New("store down")

func (f *failingStore) ListVideos(ctx context.Context) ([]*models.Video, error) {
	f.mu.Lock()
	fail := f.failVideos
	f.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return f.Storage.ListVideos(ctx)
}

func (f *failingStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	fail := f.failUsers
	f.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return f.Storage.ListUsers(ctx)
}

func (f *failingStore) setFailVideos(v bool) {
	f.mu.Lock()
	f.failVideos = v
	f.mu.Unlock()
}

func newTestManager(t *testing.T) (*Manager, *failingStore) {
	t.Helper()
	sqlite, err := storage.NewSQLiteStorage(t.TempDir() + "/susume.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	store := &failingStore{Storage: sqlite}
	m, err := NewManager(store, 3, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return m, store
}

func TestManager_RebuildPublishes(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", PosterID: "p", Embedding: []float32{1, 0, 0}})
	_ = store.CreateVideo(ctx, &models.Video{ID: "v2", PosterID: "p", Embedding: []float32{0, 1, 0}})
	_ = store.CreateUser(ctx, &models.User{ID: "u1", WalletID: "w1", Embedding: []float32{0, 0, 1}})

	if err := m.RebuildAll(ctx); err != nil {
		t.Fatal(err)
	}
	if m.Videos().Size() != 2 {
		t.Errorf("video index size: got %d", m.Videos().Size())
	}
	if m.Users().Size() != 1 {
		t.Errorf("user index size: got %d", m.Users().Size())
	}

	results, err := m.Videos().Search([]float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "v1" {
		t.Errorf("search: got %+v", results)
	}
}

func TestManager_SkipsBadEmbeddings(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "good", PosterID: "p", Embedding: []float32{1, 0, 0}})
	_ = store.CreateVideo(ctx, &models.Video{ID: "short", PosterID: "p", Embedding: []float32{1, 0}})
	_ = store.CreateVideo(ctx, &models.Video{ID: "empty", PosterID: "p"})

	if err := m.Rebuild(ctx, ClassVideo); err != nil {
		t.Fatal(err)
	}
	if m.Videos().Size() != 1 {
		t.Errorf("only the well-formed video should be indexed, size=%d", m.Videos().Size())
	}
}

func TestManager_FailedRebuildKeepsOldIndex(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", PosterID: "p", Embedding: []float32{1, 0, 0}})
	if err := m.Rebuild(ctx, ClassVideo); err != nil {
		t.Fatal(err)
	}
	before := m.Videos()

	store.setFailVideos(true)
	if err := m.Rebuild(ctx, ClassVideo); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if m.Videos() != before {
		t.Error("failed rebuild must not replace the published index")
	}
	if m.Videos().Size() != 1 {
		t.Errorf("old index content lost, size=%d", m.Videos().Size())
	}
}

func TestManager_DeleteThenRebuildRemovesEntity(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	_ = store.CreateUser(ctx, &models.User{ID: "u1", WalletID: "w1", Embedding: []float32{1, 0, 0}})
	_ = store.CreateUser(ctx, &models.User{ID: "u2", WalletID: "w2", Embedding: []float32{0, 1, 0}})
	if err := m.Rebuild(ctx, ClassUser); err != nil {
		t.Fatal(err)
	}
	if m.Users().Size() != 2 {
		t.Fatalf("size before delete: %d", m.Users().Size())
	}

	if err := store.DeleteUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Rebuild(ctx, ClassUser); err != nil {
		t.Fatal(err)
	}
	results, _ := m.Users().Search([]float32{1, 0, 0}, 10)
	for _, r := range results {
		if r.ID == "u1" {
			t.Error("deleted user still in index")
		}
	}
}

func TestManager_ClassesIndependent(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	_ = store.CreateUser(ctx, &models.User{ID: "u1", WalletID: "w1", Embedding: []float32{1, 0, 0}})
	store.setFailVideos(true)

	if err := m.Rebuild(ctx, ClassUser); err != nil {
		t.Fatalf("user rebuild should not depend on video store health: %v", err)
	}
	if m.Users().Size() != 1 {
		t.Errorf("user index size: got %d", m.Users().Size())
	}
}

func TestManager_UnknownClass(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Rebuild(context.Background(), Class("merchant")); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestManager_ConcurrentRebuilds(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	_ = store.CreateVideo(ctx, &models.Video{ID: "v1", PosterID: "p", Embedding: []float32{1, 0, 0}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := m.Rebuild(ctx, ClassVideo); err != nil {
					t.Error(err)
					return
				}
				if _, err := m.Videos().Search([]float32{0, 0, 0}, 1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if m.Videos().Size() != 1 {
		t.Errorf("size after concurrent rebuilds: %d", m.Videos().Size())
	}
}
