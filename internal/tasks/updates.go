package tasks

import (
	"fmt"

	"github.com/desertthunder/moodmix/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ExtractSeeds Phase = iota
	SearchCatalog
	MergeTracks
	SavePlaylist
	LoadPlaylist
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case ExtractSeeds:
		return "extract_seeds"
	case SearchCatalog:
		return "search_catalog"
	case MergeTracks:
		return "merge_tracks"
	case SavePlaylist:
		return "save_playlist"
	case LoadPlaylist:
		return "load_playlist"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func extractingSeedsUpdate(mood string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractSeeds,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Asking the curator about %q...", mood),
	}
}

func seedsExtractedUpdate(seeds models.SeedSet) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractSeeds,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Got %d artists and %d keywords", len(seeds.CoreArtists), len(seeds.VibeKeywords)),
		Data:    seeds,
	}
}

func searchingCatalogUpdate(terms int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    0,
		Total:   terms,
		Message: fmt.Sprintf("Searching the catalog for %d terms...", terms),
	}
}

func catalogSearchedUpdate(tracks int, outcomes []TermOutcome) ProgressUpdate {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    len(outcomes),
		Total:   len(outcomes),
		Message: fmt.Sprintf("Found %d unique tracks (%d terms failed)", tracks, failed),
		Data:    outcomes,
	}
}

func loadingPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading playlist %s...", id),
	}
}

func mergedTracksUpdate(existing, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d new tracks (%d already present)", added, existing),
	}
}

func savedPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SavePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist saved: %s (%d tracks)", pl.ID, len(pl.Tracks)),
		Data:    pl,
	}
}

func exportCompletedUpdate(step, total int, id string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, id, files),
	}
}

func exportFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}
