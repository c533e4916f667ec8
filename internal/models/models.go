// package models defines the data model for the mood playlist service
package models

import (
	"fmt"
	"strings"
	"time"
)

// Track is a single catalog entry. ID is the catalog's external identifier and the dedup key.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumArtURL string `json:"albumArt,omitempty"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	ExternalURL string `json:"spotifyUrl"`
}

// SeedSet is the structured result of seed extraction.
type SeedSet struct {
	CoreArtists  []string `json:"coreArtists"`
	VibeKeywords []string `json:"vibeKeywords"`
}

// Terms returns the search terms in dispatch order: core artists, then vibe keywords.
//
// Blank entries are skipped.
func (s SeedSet) Terms() []string {
	terms := make([]string, 0, len(s.CoreArtists)+len(s.VibeKeywords))
	for _, group := range [][]string{s.CoreArtists, s.VibeKeywords} {
		for _, term := range group {
			if t := strings.TrimSpace(term); t != "" {
				terms = append(terms, t)
			}
		}
	}
	return terms
}

// Empty reports whether the seed set yields no search terms.
func (s SeedSet) Empty() bool {
	return len(s.Terms()) == 0
}

// Playlist is a persisted, owner-scoped track list generated from a mood prompt.
type Playlist struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	MoodPrompt string    `json:"moodPrompt"`
	Tracks     []Track   `json:"tracks"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewPlaylist builds an unsaved playlist stamped with the current time.
func NewPlaylist(ownerID, mood string, tracks []Track) *Playlist {
	now := time.Now().UTC()
	return &Playlist{
		OwnerID:    ownerID,
		MoodPrompt: mood,
		Tracks:     tracks,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TrackIDs returns the identity set of the playlist's tracks.
func (p *Playlist) TrackIDs() map[string]struct{} {
	return IDSet(p.Tracks)
}

// Validate checks required fields and the track uniqueness invariant.
func (p *Playlist) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	if strings.TrimSpace(p.MoodPrompt) == "" {
		return fmt.Errorf("mood prompt is required")
	}

	seen := make(map[string]struct{}, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.ID == "" {
			return fmt.Errorf("track %q has no id", t.Title)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate track id %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// IDSet builds the identity set for a track list.
func IDSet(tracks []Track) map[string]struct{} {
	ids := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		ids[t.ID] = struct{}{}
	}
	return ids
}
