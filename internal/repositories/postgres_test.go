package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	playlistColumns = []string{"id", "owner_id", "mood_prompt", "created_at", "updated_at"}
	trackColumns    = []string{"track_id", "title", "artist", "album_art_url", "preview_url", "external_url"}
)

func newMockRepo(t *testing.T) (*PostgresPlaylistRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresPlaylistRepository(mock), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestPostgresSave(t *testing.T) {
	ctx := context.Background()

	t.Run("commits playlist and tracks", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		pl := models.NewPlaylist("user-1", "rainy day", testTracks("a", "b"))

		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO playlists (id, owner_id, mood_prompt, created_at, updated_at)")).
			WithArgs(pgxmock.AnyArg(), "user-1", "rainy day", pl.CreatedAt, pl.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		for i, track := range pl.Tracks {
			mock.ExpectExec(q("INSERT INTO playlist_tracks")).
				WithArgs(pgxmock.AnyArg(), i, track.ID, track.Title, track.Artist, track.AlbumArtURL, track.PreviewURL, track.ExternalURL).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mock.ExpectCommit()

		saved, err := repo.Save(ctx, pl)
		require.NoError(t, err)
		assert.True(t, shared.IsID(saved.ID))
		assert.Len(t, saved.Tracks, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on track failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		pl := models.NewPlaylist("user-1", "rainy day", testTracks("a"))

		track := pl.Tracks[0]
		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO playlists")).
			WithArgs(pgxmock.AnyArg(), "user-1", "rainy day", pl.CreatedAt, pl.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(q("INSERT INTO playlist_tracks")).
			WithArgs(pgxmock.AnyArg(), 0, track.ID, track.Title, track.Artist, track.AlbumArtURL, track.PreviewURL, track.ExternalURL).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		saved, err := repo.Save(ctx, pl)
		assert.Nil(t, saved)
		assert.ErrorIs(t, err, shared.ErrStorage)
		assert.ErrorContains(t, err, "insert track")
		assert.ErrorContains(t, err, "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		_, err := repo.Save(ctx, models.NewPlaylist("user-1", "x", nil))
		assert.ErrorIs(t, err, shared.ErrStorage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid playlist never reaches the database", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		_, err := repo.Save(ctx, models.NewPlaylist("", "x", nil))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresLoad(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(q("FROM playlists WHERE id = $1")).
			WithArgs("pl-1").
			WillReturnRows(pgxmock.NewRows(playlistColumns).AddRow("pl-1", "user-1", "rainy day", now, now))
		mock.ExpectQuery(q("FROM playlist_tracks")).
			WithArgs("pl-1").
			WillReturnRows(pgxmock.NewRows(trackColumns).
				AddRow("a", "Title a", "Artist a", "", "", "https://open.spotify.com/track/a").
				AddRow("b", "Title b", "Artist b", "", "", "https://open.spotify.com/track/b"))

		pl, err := repo.Load(ctx, "pl-1")
		require.NoError(t, err)
		assert.Equal(t, "rainy day", pl.MoodPrompt)
		assert.Equal(t, []string{"a", "b"}, trackIDs(pl.Tracks))
		assert.True(t, pl.CreatedAt.Equal(now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(q("FROM playlists WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows(playlistColumns))

		_, err := repo.Load(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrPlaylistNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(q("FROM playlists WHERE id = $1")).
			WithArgs("pl-1").
			WillReturnError(errors.New("timeout"))

		_, err := repo.Load(ctx, "pl-1")
		assert.ErrorIs(t, err, shared.ErrStorage)
	})
}

func TestPostgresAppendTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("appends after last position and skips conflicts", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT id FROM playlists WHERE id = $1 FOR UPDATE")).
			WithArgs("pl-1").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("pl-1"))
		mock.ExpectQuery(q("SELECT COALESCE(MAX(position), -1)")).
			WithArgs("pl-1").
			WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(1))
		mock.ExpectExec(q("ON CONFLICT (playlist_id, track_id) DO NOTHING")).
			WithArgs("pl-1", 2, "c", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(q("ON CONFLICT (playlist_id, track_id) DO NOTHING")).
			WithArgs("pl-1", 3, "a", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectExec(q("ON CONFLICT (playlist_id, track_id) DO NOTHING")).
			WithArgs("pl-1", 3, "d", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(q("UPDATE playlists SET updated_at = $1 WHERE id = $2")).
			WithArgs(pgxmock.AnyArg(), "pl-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		require.NoError(t, repo.AppendTracks(ctx, "pl-1", testTracks("c", "a", "d")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing playlist rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("FOR UPDATE")).
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err := repo.AppendTracks(ctx, "missing", testTracks("a"))
		assert.ErrorIs(t, err, shared.ErrPlaylistNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresListByOwner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("ORDER BY created_at DESC, sequence DESC")).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(playlistColumns).
			AddRow("pl-2", "user-1", "newer", now.Add(time.Hour), now.Add(time.Hour)).
			AddRow("pl-1", "user-1", "older", now, now))
	mock.ExpectQuery(q("FROM playlist_tracks")).
		WithArgs("pl-2").
		WillReturnRows(pgxmock.NewRows(trackColumns).AddRow("b", "Title b", "Artist b", "", "", ""))
	mock.ExpectQuery(q("FROM playlist_tracks")).
		WithArgs("pl-1").
		WillReturnRows(pgxmock.NewRows(trackColumns))

	list, err := repo.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pl-2", list[0].ID)
	assert.Equal(t, []string{"b"}, trackIDs(list[0].Tracks))
	assert.Empty(t, list[1].Tracks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS playlists")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))

	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS playlists")).
		WillReturnError(errors.New("permission denied"))
	assert.ErrorIs(t, repo.EnsureSchema(context.Background()), shared.ErrStorage)

	assert.NoError(t, mock.ExpectationsWereMet())
}
