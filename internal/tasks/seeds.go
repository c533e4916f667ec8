package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/services"
	"github.com/desertthunder/moodmix/internal/shared"
)

const promptTemplate = `Act as an expert music curator and seasoned DJ. Create a playlist for the mood: "%s".
Return ONLY a raw JSON object, with no prose, no markdown and no code fences, in exactly this shape:
{"coreArtists": ["Artist 1", "Artist 2"], "vibeKeywords": ["keyword 1", "keyword 2"]}
coreArtists lists up to 5 artists that define the mood. vibeKeywords lists up to 5 short search phrases that capture it.`

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// SeedExtractor turns a mood prompt into a [models.SeedSet] using a [services.Generator].
type SeedExtractor struct {
	gen    services.Generator
	logger *log.Logger
}

// NewSeedExtractor creates an extractor backed by gen.
func NewSeedExtractor(gen services.Generator, logger *log.Logger) *SeedExtractor {
	return &SeedExtractor{gen: gen, logger: logger}
}

// BuildPrompt embeds mood verbatim in the curator instruction.
func BuildPrompt(mood string) string {
	return fmt.Sprintf(promptTemplate, mood)
}

// Extract asks the generator for seeds and parses its reply.
// Generator failures wrap [shared.ErrGeneration]; unusable replies wrap [shared.ErrExtraction].
func (x *SeedExtractor) Extract(ctx context.Context, mood string) (models.SeedSet, error) {
	if x.gen == nil {
		return models.SeedSet{}, fmt.Errorf("%w: generator not initialized", shared.ErrServiceUnavailable)
	}

	reply, err := x.gen.Generate(ctx, BuildPrompt(mood))
	if err != nil {
		return models.SeedSet{}, fmt.Errorf("%w: %v", shared.ErrGeneration, err)
	}

	seeds, err := ParseSeeds(reply)
	if err != nil {
		x.logger.Warn("unusable generator reply", "model", x.gen.Name(), "length", len(reply), "error", err)
		return models.SeedSet{}, err
	}

	x.logger.Debug("seeds extracted", "artists", seeds.CoreArtists, "keywords", seeds.VibeKeywords)
	return seeds, nil
}

// ParseSeeds extracts the seed object from a generator reply.
//
// Code fences and any text outside the outermost braces are ignored.
// Both fields must be present and be arrays of strings; empty arrays are valid.
func ParseSeeds(reply string) (models.SeedSet, error) {
	body, err := cleanReply(reply)
	if err != nil {
		return models.SeedSet{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return models.SeedSet{}, fmt.Errorf("%w: reply is not a JSON object: %v", shared.ErrExtraction, err)
	}

	artists, err := stringArray(fields, "coreArtists")
	if err != nil {
		return models.SeedSet{}, err
	}
	keywords, err := stringArray(fields, "vibeKeywords")
	if err != nil {
		return models.SeedSet{}, err
	}

	return models.SeedSet{CoreArtists: artists, VibeKeywords: keywords}, nil
}

// cleanReply strips code fences and trims to the outermost JSON object.
func cleanReply(reply string) (string, error) {
	s := fencePattern.ReplaceAllString(reply, "")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in reply", shared.ErrExtraction)
	}
	return s[start : end+1], nil
}

func stringArray(fields map[string]json.RawMessage, key string) ([]string, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %s", shared.ErrExtraction, key)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: field %s is not an array", shared.ErrExtraction, key)
	}

	values := []string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: field %s must contain only strings", shared.ErrExtraction, key)
	}
	return values, nil
}
