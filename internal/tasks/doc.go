// Package tasks turns mood prompts into persisted playlists with real-time progress reporting.
//
// # Core Operations
//
// The [Pipeline] interface defines four operations:
//
//  1. [Pipeline.Generate] : Mood → new playlist
//     - Asks the [services.Generator] for seed artists and keywords ([SeedExtractor])
//     - Searches the [services.Catalog] once per seed term ([Aggregator])
//     - Deduplicates tracks by id and saves the playlist
//
//  2. [Pipeline.Append] : Mood → more tracks on an existing playlist
//     - Runs the same extraction and aggregation
//     - Keeps only tracks the playlist does not already hold ([Merge])
//     - Appends to one playlist are serialized
//
//  3. [Pipeline.History] : An owner's playlists, newest first
//
//  4. [Pipeline.Playlist] : A single playlist by id
//
// [Engine.Export] writes an owner's history to disk with a worker pool and a JSON manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Aggregation
//
// Catalog searches run concurrently under an errgroup limit and an optional rate limiter.
// Results are merged in term order, so output does not depend on which search finishes first.
// A failing term is logged and skipped; [TermOutcome] tells zero matches apart from failures.
//
// # Notifications
//
// When a [services.Notifier] is configured, successful creates and appends publish a [services.Event].
// Publishing is best-effort and never fails the operation.
package tasks
