package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the subset of [pgxpool.Pool] used by [PostgresPlaylistRepository].
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS playlists (
    id TEXT PRIMARY KEY,
    sequence BIGSERIAL NOT NULL UNIQUE,
    owner_id TEXT NOT NULL,
    mood_prompt TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_playlists_owner_created ON playlists (owner_id, created_at DESC);
CREATE TABLE IF NOT EXISTS playlist_tracks (
    playlist_id TEXT NOT NULL REFERENCES playlists (id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    track_id TEXT NOT NULL,
    title TEXT NOT NULL,
    artist TEXT NOT NULL,
    album_art_url TEXT NOT NULL DEFAULT '',
    preview_url TEXT NOT NULL DEFAULT '',
    external_url TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (playlist_id, position),
    UNIQUE (playlist_id, track_id)
);
`

// NewPostgresPool connects to dsn and verifies the connection.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// PostgresPlaylistRepository persists playlists in PostgreSQL.
type PostgresPlaylistRepository struct {
	pool PgxPool
}

func NewPostgresPlaylistRepository(pool PgxPool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// EnsureSchema creates the playlist tables if they do not exist.
func (r *PostgresPlaylistRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return storageErr("create schema", err)
	}
	return nil
}

// Close releases the pool.
func (r *PostgresPlaylistRepository) Close() {
	r.pool.Close()
}

func rollback(ctx context.Context, tx pgx.Tx, err error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
	}
	return err
}

const insertTrackSQL = `
	INSERT INTO playlist_tracks (playlist_id, position, track_id, title, artist, album_art_url, preview_url, external_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Save inserts pl and its tracks in one transaction with a generated ID.
func (r *PostgresPlaylistRepository) Save(ctx context.Context, pl *models.Playlist) (*models.Playlist, error) {
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	saved := *pl
	saved.ID = shared.GenerateID()
	saved.Tracks = append([]models.Track{}, pl.Tracks...)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO playlists (id, owner_id, mood_prompt, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		saved.ID, saved.OwnerID, saved.MoodPrompt, saved.CreatedAt, saved.UpdatedAt)
	if err != nil {
		return nil, rollback(ctx, tx, storageErr("insert playlist", err))
	}

	for i, t := range saved.Tracks {
		if _, err := tx.Exec(ctx, insertTrackSQL, saved.ID, i, t.ID, t.Title, t.Artist, t.AlbumArtURL, t.PreviewURL, t.ExternalURL); err != nil {
			return nil, rollback(ctx, tx, storageErr("insert track", err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit transaction", err)
	}
	return &saved, nil
}

// Load retrieves a playlist and its tracks in position order.
func (r *PostgresPlaylistRepository) Load(ctx context.Context, id string) (*models.Playlist, error) {
	var pl models.Playlist
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, mood_prompt, created_at, updated_at FROM playlists WHERE id = $1`, id,
	).Scan(&pl.ID, &pl.OwnerID, &pl.MoodPrompt, &pl.CreatedAt, &pl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get playlist", err)
	}

	tracks, err := r.tracks(ctx, id)
	if err != nil {
		return nil, err
	}
	pl.Tracks = tracks
	return &pl, nil
}

func (r *PostgresPlaylistRepository) tracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT track_id, title, artist, album_art_url, preview_url, external_url
		FROM playlist_tracks
		WHERE playlist_id = $1
		ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return nil, storageErr("query tracks", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.AlbumArtURL, &t.PreviewURL, &t.ExternalURL); err != nil {
			return nil, storageErr("scan track", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tracks", err)
	}
	return tracks, nil
}

// AppendTracks adds tracks after the playlist's last position, holding a row lock on the playlist.
// Ids already present are skipped.
func (r *PostgresPlaylistRepository) AppendTracks(ctx context.Context, id string, tracks []models.Track) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin transaction", err)
	}

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM playlists WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return rollback(ctx, tx, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
	}
	if err != nil {
		return rollback(ctx, tx, storageErr("lock playlist", err))
	}

	var last int
	err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), -1) FROM playlist_tracks WHERE playlist_id = $1`, id).Scan(&last)
	if err != nil {
		return rollback(ctx, tx, storageErr("get last position", err))
	}

	next := last + 1
	for _, t := range tracks {
		tag, err := tx.Exec(ctx, insertTrackSQL+` ON CONFLICT (playlist_id, track_id) DO NOTHING`,
			id, next, t.ID, t.Title, t.Artist, t.AlbumArtURL, t.PreviewURL, t.ExternalURL)
		if err != nil {
			return rollback(ctx, tx, storageErr("insert track", err))
		}
		if tag.RowsAffected() > 0 {
			next++
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id); err != nil {
		return rollback(ctx, tx, storageErr("update playlist", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// ListByOwner returns ownerID's playlists with tracks, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, mood_prompt, created_at, updated_at
		FROM playlists
		WHERE owner_id = $1
		ORDER BY created_at DESC, sequence DESC
	`, ownerID)
	if err != nil {
		return nil, storageErr("query playlists", err)
	}

	playlists := []models.Playlist{}
	for rows.Next() {
		var pl models.Playlist
		if err := rows.Scan(&pl.ID, &pl.OwnerID, &pl.MoodPrompt, &pl.CreatedAt, &pl.UpdatedAt); err != nil {
			rows.Close()
			return nil, storageErr("scan playlist", err)
		}
		playlists = append(playlists, pl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate playlists", err)
	}

	for i := range playlists {
		tracks, err := r.tracks(ctx, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Tracks = tracks
	}
	return playlists, nil
}
