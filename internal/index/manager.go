// Package index keeps the user and video vector indices consistent with the
// store via atomic rebuild-and-publish.
package index

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/storage"
	"github.com/hyperjump/susume/internal/vector"
)

// Class names an entity class with its own index.
type Class string

const (
	ClassVideo Class = "video"
	ClassUser  Class = "user"
)

// Manager owns the two vector indices. Each rebuild reads one store snapshot,
// builds a fresh index off to the side, and publishes it with a single pointer
// swap, so searches always run against a complete snapshot. Rebuilds of the
// same class are serialized; the two classes rebuild independently.
type Manager struct {
	store      storage.Storage
	dimensions int
	logger     *zap.Logger

	videos  atomic.Pointer[vector.Index]
	users   atomic.Pointer[vector.Index]
	videoMu sync.Mutex
	userMu  sync.Mutex
}

// NewManager creates a manager with empty indices for both classes.
func NewManager(store storage.Storage, dimensions int, logger *zap.Logger) (*Manager, error) {
	m := &Manager{store: store, dimensions: dimensions, logger: logger}
	for _, p := range []*atomic.Pointer[vector.Index]{&m.videos, &m.users} {
		idx, err := vector.New(dimensions)
		if err != nil {
			return nil, err
		}
		p.Store(idx)
	}
	return m, nil
}

// RebuildAll rebuilds both indices. Called once on startup before the server
// accepts reads.
func (m *Manager) RebuildAll(ctx context.Context) error {
	if err := m.Rebuild(ctx, ClassVideo); err != nil {
		return err
	}
	return m.Rebuild(ctx, ClassUser)
}

// Rebuild refreshes the index for class from a store snapshot and publishes
// it atomically. Called after every insert or delete of that class. Entities
// with missing or wrong-dimension embeddings are skipped with a warning. If
// the store read fails, the previously published index stays live.
func (m *Manager) Rebuild(ctx context.Context, class Class) error {
	switch class {
	case ClassVideo:
		m.videoMu.Lock()
		defer m.videoMu.Unlock()
		entries, err := m.videoEntries(ctx)
		if err != nil {
			return fmt.Errorf("video snapshot failed: %w", err)
		}
		return m.publish(&m.videos, class, entries)
	case ClassUser:
		m.userMu.Lock()
		defer m.userMu.Unlock()
		entries, err := m.userEntries(ctx)
		if err != nil {
			return fmt.Errorf("user snapshot failed: %w", err)
		}
		return m.publish(&m.users, class, entries)
	default:
		return fmt.Errorf("unknown index class: %s", class)
	}
}

func (m *Manager) videoEntries(ctx context.Context) ([]vector.Entry, error) {
	videos, err := m.store.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]vector.Entry, 0, len(videos))
	for _, v := range videos {
		if !m.usable(string(ClassVideo), v.ID, v.Embedding) {
			continue
		}
		entries = append(entries, vector.Entry{ID: v.ID, Vector: v.Embedding})
	}
	return entries, nil
}

func (m *Manager) userEntries(ctx context.Context) ([]vector.Entry, error) {
	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]vector.Entry, 0, len(users))
	for _, u := range users {
		if !m.usable(string(ClassUser), u.ID, u.Embedding) {
			continue
		}
		entries = append(entries, vector.Entry{ID: u.ID, Vector: u.Embedding})
	}
	return entries, nil
}

// usable reports whether the embedding can enter the index. Bad records are
// skipped, never fatal to the rebuild.
func (m *Manager) usable(class, id string, emb []float32) bool {
	if len(emb) == m.dimensions {
		return true
	}
	m.logger.Warn("skipping entity with unusable embedding",
		zap.String("class", class),
		zap.String("id", id),
		zap.Int("dimensions", len(emb)),
		zap.Int("expected", m.dimensions),
	)
	return false
}

func (m *Manager) publish(p *atomic.Pointer[vector.Index], class Class, entries []vector.Entry) error {
	fresh, err := vector.New(m.dimensions)
	if err != nil {
		return err
	}
	if err := fresh.Build(entries); err != nil {
		return fmt.Errorf("%s index build failed: %w", class, err)
	}
	p.Store(fresh)
	m.logger.Debug("index published",
		zap.String("class", string(class)),
		zap.Int("size", fresh.Size()),
	)
	return nil
}

// Videos returns the currently published video index. The returned index is a
// complete immutable snapshot; callers must not hold it across rebuilds they
// care about.
func (m *Manager) Videos() *vector.Index {
	return m.videos.Load()
}

// Users returns the currently published user index.
func (m *Manager) Users() *vector.Index {
	return m.users.Load()
}
