package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/susume/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL,
		age INTEGER,
		location TEXT,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_wallet ON users(wallet_id COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		poster_id TEXT NOT NULL,
		caption TEXT,
		hashtags TEXT,
		location TEXT,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_videos_poster ON videos(poster_id);

	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_user_type ON interactions(user_id, type, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateUser inserts a user. A zero CreatedAt defaults to now.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, wallet_id, age, location, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.WalletID, user.Age, user.Location,
		embeddingToBytes(user.Embedding), user.CreatedAt,
	)
	return err
}

// GetUser returns a user by ID. Returns ErrNotFound (wrapped) for missing users.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, wallet_id, age, location, embedding, created_at
		 FROM users WHERE id = ?`, id), id)
}

// GetUserByWallet returns the user whose wallet id matches case-insensitively.
func (s *SQLiteStorage) GetUserByWallet(ctx context.Context, walletID string) (*models.User, error) {
	normalized := strings.ToLower(walletID)
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, wallet_id, age, location, embedding, created_at
		 FROM users WHERE LOWER(wallet_id) = ?`, normalized), walletID)
}

func (s *SQLiteStorage) scanUser(row *sql.Row, key string) (*models.User, error) {
	var user models.User
	var embedding []byte
	err := row.Scan(&user.ID, &user.WalletID, &user.Age, &user.Location, &embedding, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	user.Embedding = bytesToEmbedding(embedding)
	return &user, nil
}

// DeleteUser removes a user by ID.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListUsers returns all users in insertion order from a single query.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, wallet_id, age, location, embedding, created_at
		 FROM users ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*models.User
	for rows.Next() {
		var user models.User
		var embedding []byte
		if err := rows.Scan(&user.ID, &user.WalletID, &user.Age, &user.Location, &embedding, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.Embedding = bytesToEmbedding(embedding)
		users = append(users, &user)
	}
	return users, rows.Err()
}

// CreateVideo inserts a video. A zero CreatedAt defaults to now.
func (s *SQLiteStorage) CreateVideo(ctx context.Context, video *models.Video) error {
	hashtagsJSON, err := json.Marshal(video.Hashtags)
	if err != nil {
		return fmt.Errorf("failed to marshal hashtags: %w", err)
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO videos (id, poster_id, caption, hashtags, location, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.PosterID, video.Caption, string(hashtagsJSON), video.Location,
		embeddingToBytes(video.Embedding), video.CreatedAt,
	)
	return err
}

// GetVideo returns a video by ID. Returns ErrNotFound (wrapped) for missing videos.
func (s *SQLiteStorage) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	var hashtagsJSON string
	var embedding []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, poster_id, caption, hashtags, location, embedding, created_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&video.ID, &video.PosterID, &video.Caption, &hashtagsJSON, &video.Location, &embedding, &video.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if hashtagsJSON != "" {
		if err := json.Unmarshal([]byte(hashtagsJSON), &video.Hashtags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hashtags: %w", err)
		}
	}
	video.Embedding = bytesToEmbedding(embedding)
	return &video, nil
}

// DeleteVideo removes a video by ID.
func (s *SQLiteStorage) DeleteVideo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListVideos returns all videos in insertion order from a single query.
func (s *SQLiteStorage) ListVideos(ctx context.Context) ([]*models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, poster_id, caption, hashtags, location, embedding, created_at
		 FROM videos ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		var hashtagsJSON string
		var embedding []byte
		if err := rows.Scan(&video.ID, &video.PosterID, &video.Caption, &hashtagsJSON,
			&video.Location, &embedding, &video.CreatedAt); err != nil {
			return nil, err
		}
		if hashtagsJSON != "" {
			if err := json.Unmarshal([]byte(hashtagsJSON), &video.Hashtags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal hashtags: %w", err)
			}
		}
		video.Embedding = bytesToEmbedding(embedding)
		videos = append(videos, &video)
	}
	return videos, rows.Err()
}

// CreateInteraction appends an interaction record. A zero CreatedAt defaults to now.
func (s *SQLiteStorage) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, video_id, type, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		interaction.ID, interaction.UserID, interaction.VideoID, string(interaction.Type), interaction.CreatedAt,
	)
	return err
}

// ListInteractions returns interactions matching the filter.
func (s *SQLiteStorage) ListInteractions(ctx context.Context, filter InteractionFilter) ([]*models.Interaction, error) {
	query := `SELECT id, user_id, video_id, type, created_at FROM interactions WHERE user_id = ?`
	args := []interface{}{filter.UserID}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.NewestFirst {
		query += ` ORDER BY created_at DESC, rowid DESC`
	} else {
		query += ` ORDER BY created_at ASC, rowid ASC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var interactions []*models.Interaction
	for rows.Next() {
		var in models.Interaction
		var itype string
		if err := rows.Scan(&in.ID, &in.UserID, &in.VideoID, &itype, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.Type = models.InteractionType(itype)
		interactions = append(interactions, &in)
	}
	return interactions, rows.Err()
}

// CountUsers returns the number of users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, "users")
}

// CountVideos returns the number of videos.
func (s *SQLiteStorage) CountVideos(ctx context.Context) (int64, error) {
	return s.count(ctx, "videos")
}

// CountInteractions returns the number of interactions.
func (s *SQLiteStorage) CountInteractions(ctx context.Context) (int64, error) {
	return s.count(ctx, "interactions")
}

func (s *SQLiteStorage) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// embeddingToBytes encodes an embedding as little-endian float32 bytes.
// A nil embedding encodes as nil.
func embeddingToBytes(emb []float32) []byte {
	if emb == nil {
		return nil
	}
	const size = 4
	out := make([]byte, len(emb)*size)
	for i, v := range emb {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

// bytesToEmbedding decodes little-endian float32 bytes. Empty input yields nil.
func bytesToEmbedding(b []byte) []float32 {
	const size = 4
	if len(b) < size {
		return nil
	}
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
