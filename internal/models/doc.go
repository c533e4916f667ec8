// Package models defines the domain entities of the mood-to-playlist pipeline.
//
//   - [Track] : a catalog entry keyed by its external id
//   - [SeedSet] : artists and keywords derived from a mood prompt
//   - [Playlist] : an owner's persisted track list with its originating prompt
//
// Track ids are the only identity used for deduplication. Every list built or merged
// by the pipeline holds each id at most once, and [Playlist.Validate] enforces that
// before anything is written.
package models
