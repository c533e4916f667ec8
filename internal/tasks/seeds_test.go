package tasks

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/shared"
	tu "github.com/desertthunder/moodmix/internal/testing"
)

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		wantArtists  []string
		wantKeywords []string
		wantErr      bool
	}{
		{
			name:         "plain object",
			reply:        `{"coreArtists":["Bonobo","Tycho"],"vibeKeywords":["downtempo"]}`,
			wantArtists:  []string{"Bonobo", "Tycho"},
			wantKeywords: []string{"downtempo"},
		},
		{
			name:         "fenced json",
			reply:        "```json\n{\"coreArtists\":[\"Nujabes\"],\"vibeKeywords\":[\"lofi\",\"rain\"]}\n```",
			wantArtists:  []string{"Nujabes"},
			wantKeywords: []string{"lofi", "rain"},
		},
		{
			name:         "uppercase fence and surrounding prose",
			reply:        "Sure! Here you go:\n```JSON\n{\"coreArtists\":[\"A\"],\"vibeKeywords\":[]}\n```\nEnjoy.",
			wantArtists:  []string{"A"},
			wantKeywords: []string{},
		},
		{
			name:         "empty arrays",
			reply:        `{"coreArtists":[],"vibeKeywords":[]}`,
			wantArtists:  []string{},
			wantKeywords: []string{},
		},
		{
			name:    "not json",
			reply:   "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "missing field",
			reply:   `{"coreArtists":["A"]}`,
			wantErr: true,
		},
		{
			name:    "null field",
			reply:   `{"coreArtists":null,"vibeKeywords":[]}`,
			wantErr: true,
		},
		{
			name:    "string instead of array",
			reply:   `{"coreArtists":"A","vibeKeywords":[]}`,
			wantErr: true,
		},
		{
			name:    "non-string element",
			reply:   `{"coreArtists":[1,2],"vibeKeywords":[]}`,
			wantErr: true,
		},
		{
			name:    "truncated object",
			reply:   `{"coreArtists":["A"],"vibeKeywords":["b"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds, err := ParseSeeds(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrExtraction) {
					t.Fatalf("expected ErrExtraction, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(seeds.CoreArtists, tt.wantArtists) {
				t.Errorf("artists = %v, want %v", seeds.CoreArtists, tt.wantArtists)
			}
			if !reflect.DeepEqual(seeds.VibeKeywords, tt.wantKeywords) {
				t.Errorf("keywords = %v, want %v", seeds.VibeKeywords, tt.wantKeywords)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	mood := `late night "drive" in the rain`
	prompt := BuildPrompt(mood)

	if !strings.Contains(prompt, mood) {
		t.Errorf("prompt should embed the mood verbatim, got %q", prompt)
	}
	for _, want := range []string{"coreArtists", "vibeKeywords", "ONLY"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSeedExtractor(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("returns parsed seeds", func(t *testing.T) {
		gen := tu.NewFakeGenerator(`{"coreArtists":["Khruangbin"],"vibeKeywords":["sunset funk"]}`)
		x := NewSeedExtractor(gen, logger)

		seeds, err := x.Extract(context.Background(), "golden hour")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := seeds.Terms(); !reflect.DeepEqual(got, []string{"Khruangbin", "sunset funk"}) {
			t.Errorf("terms = %v", got)
		}
		if prompts := gen.Prompts(); len(prompts) != 1 || !strings.Contains(prompts[0], "golden hour") {
			t.Errorf("unexpected prompts: %v", prompts)
		}
	})

	t.Run("generator failure", func(t *testing.T) {
		gen := &tu.FakeGenerator{Err: errors.New("quota exceeded")}
		x := NewSeedExtractor(gen, logger)

		_, err := x.Extract(context.Background(), "calm")
		if !errors.Is(err, shared.ErrGeneration) {
			t.Fatalf("expected ErrGeneration, got %v", err)
		}
	})

	t.Run("unusable reply", func(t *testing.T) {
		x := NewSeedExtractor(tu.NewFakeGenerator("no idea"), logger)

		_, err := x.Extract(context.Background(), "calm")
		if !errors.Is(err, shared.ErrExtraction) {
			t.Fatalf("expected ErrExtraction, got %v", err)
		}
	})

	t.Run("missing generator", func(t *testing.T) {
		x := NewSeedExtractor(nil, logger)

		_, err := x.Extract(context.Background(), "calm")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
