// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/services"
	"github.com/desertthunder/moodmix/internal/shared"
)

// FakeGenerator is a test double for [services.Generator].
//
// Replies are returned in order; the last one repeats once exhausted.
type FakeGenerator struct {
	Replies []string
	Err     error

	mu      sync.Mutex
	prompts []string
}

func NewFakeGenerator(replies ...string) *FakeGenerator {
	return &FakeGenerator{Replies: replies}
}

func (g *FakeGenerator) Name() string { return "fake" }

func (g *FakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if len(g.Replies) == 0 {
		return "", errors.New("no reply configured")
	}
	i := min(len(g.prompts)-1, len(g.Replies)-1)
	return g.Replies[i], nil
}

// Prompts returns every prompt received so far.
func (g *FakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// FakeCatalog is a test double for [services.Catalog] keyed by search term.
type FakeCatalog struct {
	Results map[string][]models.Track
	Errs    map[string]error
	Delays  map[string]time.Duration

	mu    sync.Mutex
	terms []string
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Results: make(map[string][]models.Track),
		Errs:    make(map[string]error),
		Delays:  make(map[string]time.Duration),
	}
}

func (c *FakeCatalog) SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error) {
	c.mu.Lock()
	c.terms = append(c.terms, term)
	delay := c.Delays[term]
	err := c.Errs[term]
	tracks := c.Results[term]
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return append([]models.Track{}, tracks...), nil
}

// Terms returns the searched terms in call order.
func (c *FakeCatalog) Terms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.terms...)
}

// MemoryStore is an in-memory playlist store.
type MemoryStore struct {
	SaveErr error
	ListErr error

	mu        sync.Mutex
	sequence  int
	playlists map[string]*storedPlaylist
}

type storedPlaylist struct {
	sequence int
	playlist models.Playlist
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{playlists: make(map[string]*storedPlaylist)}
}

func (s *MemoryStore) Save(ctx context.Context, pl *models.Playlist) (*models.Playlist, error) {
	if s.SaveErr != nil {
		return nil, s.SaveErr
	}
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clonePlaylist(*pl)
	if stored.ID == "" {
		stored.ID = shared.GenerateID()
	}
	s.sequence++
	s.playlists[stored.ID] = &storedPlaylist{sequence: s.sequence, playlist: stored}

	out := clonePlaylist(stored)
	return &out, nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	out := clonePlaylist(stored.playlist)
	return &out, nil
}

func (s *MemoryStore) AppendTracks(ctx context.Context, id string, tracks []models.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.playlists[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	seen := models.IDSet(stored.playlist.Tracks)
	for _, t := range tracks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		stored.playlist.Tracks = append(stored.playlist.Tracks, t)
	}
	stored.playlist.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var owned []*storedPlaylist
	for _, stored := range s.playlists {
		if stored.playlist.OwnerID == ownerID {
			owned = append(owned, stored)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.playlist.CreatedAt.Equal(b.playlist.CreatedAt) {
			return a.playlist.CreatedAt.After(b.playlist.CreatedAt)
		}
		return a.sequence > b.sequence
	})

	out := make([]models.Playlist, 0, len(owned))
	for _, stored := range owned {
		out = append(out, clonePlaylist(stored.playlist))
	}
	return out, nil
}

// Len returns the number of stored playlists.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playlists)
}

func clonePlaylist(pl models.Playlist) models.Playlist {
	pl.Tracks = append([]models.Track{}, pl.Tracks...)
	return pl
}

// FakeNotifier records published events.
type FakeNotifier struct {
	mu     sync.Mutex
	events []services.Event
}

func (n *FakeNotifier) Notify(ctx context.Context, event services.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *FakeNotifier) Events() []services.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]services.Event(nil), n.events...)
}

// Tracks builds n tracks with ids prefix-1..prefix-n.
func Tracks(prefix string, n int) []models.Track {
	tracks := make([]models.Track, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		tracks = append(tracks, models.Track{
			ID:          id,
			Title:       "Song " + id,
			Artist:      "Artist " + prefix,
			ExternalURL: "https://open.spotify.com/track/" + id,
		})
	}
	return tracks
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
