package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/services"
	"github.com/desertthunder/moodmix/internal/shared"
)

// PlaylistStore persists playlists. Implementations live in the repositories package.
type PlaylistStore interface {
	// Save stores a new playlist atomically and returns it with its assigned ID.
	Save(ctx context.Context, pl *models.Playlist) (*models.Playlist, error)

	// Load returns the playlist or an error wrapping [shared.ErrPlaylistNotFound].
	Load(ctx context.Context, id string) (*models.Playlist, error)

	// AppendTracks adds tracks to the end of the playlist, ignoring ids it already holds.
	AppendTracks(ctx context.Context, id string, tracks []models.Track) error

	// ListByOwner returns the owner's playlists, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
}

// Pipeline is the set of playlist operations exposed to the CLI and HTTP layers.
type Pipeline interface {
	Generate(ctx context.Context, ownerID, mood string, progress chan<- ProgressUpdate) (*models.Playlist, error)
	Append(ctx context.Context, playlistID, mood string, progress chan<- ProgressUpdate) (*models.Playlist, error)
	History(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Playlist(ctx context.Context, id string) (*models.Playlist, error)
}

// EngineOpts contains the collaborators of an [Engine].
type EngineOpts struct {
	Generator  services.Generator
	Catalog    services.Catalog
	Store      PlaylistStore
	Notifier   services.Notifier // optional
	Logger     *log.Logger
	Aggregator AggregatorOpts
}

// Engine implements [Pipeline].
type Engine struct {
	extractor  *SeedExtractor
	aggregator *Aggregator
	store      PlaylistStore
	notifier   services.Notifier
	logger     *log.Logger
	locks      keyedMutex
}

// NewEngine wires an engine from its collaborators.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Engine{
		extractor:  NewSeedExtractor(opts.Generator, shared.WithLogger(logger, "component", "extractor")),
		aggregator: NewAggregator(opts.Catalog, opts.Aggregator, shared.WithLogger(logger, "component", "aggregator")),
		store:      opts.Store,
		notifier:   opts.Notifier,
		logger:     logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) notify(ctx context.Context, event services.Event) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, event)
	}
}

func (e *Engine) ready() error {
	switch {
	case e.store == nil:
		return fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	case e.aggregator.catalog == nil:
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	case e.extractor.gen == nil:
		return fmt.Errorf("%w: generator not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// collect runs extraction then aggregation for mood.
func (e *Engine) collect(ctx context.Context, mood string, progress chan<- ProgressUpdate) ([]models.Track, error) {
	e.sendProgress(progress, extractingSeedsUpdate(mood))
	seeds, err := e.extractor.Extract(ctx, mood)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, seedsExtractedUpdate(seeds))

	terms := seeds.Terms()
	e.sendProgress(progress, searchingCatalogUpdate(len(terms)))
	tracks, outcomes := e.aggregator.Aggregate(ctx, terms)
	e.sendProgress(progress, catalogSearchedUpdate(len(tracks), outcomes))

	return tracks, nil
}

// Generate builds and saves a new playlist for ownerID from mood.
//
// Returns [shared.ErrInvalidInput] for a blank owner or mood and [shared.ErrNoResults] when
// no track survives aggregation, in which case nothing is saved.
func (e *Engine) Generate(ctx context.Context, ownerID, mood string, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(mood) == "" {
		return nil, fmt.Errorf("%w: mood is required", shared.ErrInvalidInput)
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	tracks, err := e.collect(ctx, mood, progress)
	if err != nil {
		return nil, err
	}

	if len(tracks) == 0 {
		e.logger.Info("no tracks for mood", "owner", ownerID, "mood", mood)
		return nil, fmt.Errorf("%w for mood %q", shared.ErrNoResults, mood)
	}

	saved, err := e.store.Save(ctx, models.NewPlaylist(ownerID, mood, tracks))
	if err != nil {
		return nil, fmt.Errorf("failed to save playlist: %w", err)
	}

	e.sendProgress(progress, savedPlaylistUpdate(saved))
	e.logger.Info("playlist generated", "id", saved.ID, "owner", ownerID, "tracks", len(saved.Tracks))
	e.notify(ctx, services.Event{
		Type:       services.PlaylistCreated,
		PlaylistID: saved.ID,
		OwnerID:    saved.OwnerID,
		Added:      len(saved.Tracks),
		Total:      len(saved.Tracks),
	})

	return saved, nil
}

// Append extends playlist id with tracks generated from mood that it does not already hold.
//
// Appends to the same playlist are serialized. Adding zero tracks is a success; the original
// mood prompt is kept.
func (e *Engine) Append(ctx context.Context, playlistID, mood string, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(mood) == "" {
		return nil, fmt.Errorf("%w: mood is required", shared.ErrInvalidInput)
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(playlistID)
	defer unlock()

	e.sendProgress(progress, loadingPlaylistUpdate(playlistID))
	current, err := e.store.Load(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	incoming, err := e.collect(ctx, mood, progress)
	if err != nil {
		return nil, err
	}

	added := Merge(current.Tracks, incoming)
	e.sendProgress(progress, mergedTracksUpdate(len(incoming)-len(added), len(added)))

	if len(added) == 0 {
		e.logger.Info("append found nothing new", "id", playlistID, "mood", mood)
		return current, nil
	}

	if err := e.store.AppendTracks(ctx, playlistID, added); err != nil {
		return nil, fmt.Errorf("failed to append tracks: %w", err)
	}

	updated, err := e.store.Load(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload playlist: %w", err)
	}

	e.sendProgress(progress, savedPlaylistUpdate(updated))
	e.logger.Info("playlist extended", "id", playlistID, "added", len(added), "total", len(updated.Tracks))
	e.notify(ctx, services.Event{
		Type:       services.PlaylistTracksAdded,
		PlaylistID: updated.ID,
		OwnerID:    updated.OwnerID,
		Added:      len(added),
		Total:      len(updated.Tracks),
	})

	return updated, nil
}

// History returns ownerID's playlists, newest first.
func (e *Engine) History(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", shared.ErrInvalidInput)
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}
	return e.store.ListByOwner(ctx, ownerID)
}

// Playlist returns a single playlist by id.
func (e *Engine) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}
	return e.store.Load(ctx, id)
}
