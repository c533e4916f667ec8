// package services defines the external collaborators of the playlist pipeline
//
// Gemini (generative language), Spotify (catalog search), Redis (cache, events)
package services

import (
	"context"

	"github.com/desertthunder/moodmix/internal/models"
)

// Generator sends a prompt to a generative language model and returns the raw reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the name of the backing model (e.g., "gemini-2.0-flash")
	Name() string
}

// Catalog searches a music catalog for tracks matching a free-text term.
//
// Results are returned in the catalog's relevance order. Optional fields
// (artwork, preview) are left empty when the catalog does not provide them.
type Catalog interface {
	SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error)
}

// Notifier publishes playlist lifecycle events. Implementations are best-effort.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// EventType names a playlist lifecycle event.
type EventType string

const (
	PlaylistCreated     EventType = "playlist.created"
	PlaylistTracksAdded EventType = "playlist.tracks_added"
)

// Event is the payload published for playlist changes.
type Event struct {
	Type       EventType `json:"type"`
	PlaylistID string    `json:"playlistId"`
	OwnerID    string    `json:"ownerId,omitempty"`
	Added      int       `json:"added"`
	Total      int       `json:"total"`
}
