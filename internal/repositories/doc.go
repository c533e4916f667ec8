// Package repositories implements playlist persistence for the pipeline's store contract.
//
// Key Implementations:
//   - [PlaylistRepository] : SQLite via database/sql, schema managed by the shared migrations
//   - [PostgresPlaylistRepository] : PostgreSQL via a pgx pool, schema created by [PostgresPlaylistRepository.EnsureSchema]
//
// Both store a playlist row plus ordered playlist_tracks rows keyed by (playlist_id, position), with
// track ids unique per playlist. Saves and appends are transactional, so readers never see a
// partially written playlist.
//
// Sequence numbers provide a stable tiebreak for playlists created in the same instant. The SQLite
// store increments a per-table counter with [NextSequence]; PostgreSQL uses a BIGSERIAL column.
package repositories
