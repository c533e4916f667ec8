package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
)

// PlaylistRepository persists playlists in SQLite.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

func storageErr(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %v", shared.ErrStorage, action, err)
}

// Save inserts pl and its tracks in one transaction with a generated ID and sequence.
func (r *PlaylistRepository) Save(ctx context.Context, pl *models.Playlist) (*models.Playlist, error) {
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	saved := *pl
	saved.ID = shared.GenerateID()
	saved.Tracks = append([]models.Track{}, pl.Tracks...)

	err := shared.Transact(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "playlists")
		if err != nil {
			return storageErr("generate sequence", err)
		}

		query := `
			INSERT INTO playlists (id, sequence, owner_id, mood_prompt, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query, saved.ID, sequence, saved.OwnerID, saved.MoodPrompt, saved.CreatedAt, saved.UpdatedAt); err != nil {
			return storageErr("insert playlist", err)
		}

		for i, track := range saved.Tracks {
			if _, err := insertTrack(ctx, tx, "INSERT", saved.ID, i, track); err != nil {
				return storageErr("insert track", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func insertTrack(ctx context.Context, tx *sql.Tx, verb, playlistID string, position int, t models.Track) (sql.Result, error) {
	query := verb + ` INTO playlist_tracks (playlist_id, position, track_id, title, artist, album_art_url, preview_url, external_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	return tx.ExecContext(ctx, query, playlistID, position, t.ID, t.Title, t.Artist, t.AlbumArtURL, t.PreviewURL, t.ExternalURL)
}

// Load retrieves a playlist and its tracks in position order.
func (r *PlaylistRepository) Load(ctx context.Context, id string) (*models.Playlist, error) {
	query := `
		SELECT id, owner_id, mood_prompt, created_at, updated_at
		FROM playlists
		WHERE id = ?
	`

	var pl models.Playlist
	err := r.db.QueryRowContext(ctx, query, id).Scan(&pl.ID, &pl.OwnerID, &pl.MoodPrompt, &pl.CreatedAt, &pl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
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

func (r *PlaylistRepository) tracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	query := `
		SELECT track_id, title, artist, album_art_url, preview_url, external_url
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
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

// AppendTracks adds tracks after the playlist's last position. Ids already present are skipped.
//
// Returns an error wrapping [shared.ErrPlaylistNotFound] if id does not exist.
func (r *PlaylistRepository) AppendTracks(ctx context.Context, id string, tracks []models.Track) error {
	return shared.Transact(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM playlists WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		if err != nil {
			return storageErr("get playlist", err)
		}

		var last int
		err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) FROM playlist_tracks WHERE playlist_id = ?", id).Scan(&last)
		if err != nil {
			return storageErr("get last position", err)
		}

		next := last + 1
		for _, track := range tracks {
			result, err := insertTrack(ctx, tx, "INSERT OR IGNORE", id, next, track)
			if err != nil {
				return storageErr("insert track", err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				next++
			}
		}

		if _, err := tx.ExecContext(ctx, "UPDATE playlists SET updated_at = ? WHERE id = ?", time.Now().UTC(), id); err != nil {
			return storageErr("update playlist", err)
		}
		return nil
	})
}

// ListByOwner returns ownerID's playlists with tracks, newest first.
func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	query := `
		SELECT id, owner_id, mood_prompt, created_at, updated_at
		FROM playlists
		WHERE owner_id = ?
		ORDER BY created_at DESC, sequence DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
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
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, storageErr("iterate playlists", err)
	}

	// Rows are drained first so single-connection databases can run the track queries.
	for i := range playlists {
		tracks, err := r.tracks(ctx, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Tracks = tracks
	}
	return playlists, nil
}
