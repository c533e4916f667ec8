package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/moodmix/internal/formatter"
	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
)

// ExportOpts contains configuration for exporting an owner's history.
type ExportOpts struct {
	Format     string // json, csv, markdown, txt (default: json)
	OutputDir  string // default: moodmix_export_{epoch}
	NumWorkers int    // concurrent writers (default: 4)
}

// PlaylistExportResult is the outcome of writing one playlist.
type PlaylistExportResult struct {
	PlaylistID string `json:"playlistId"`
	MoodPrompt string `json:"moodPrompt"`
	File       string `json:"file,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// ExportResult summarizes an export run and is written as the manifest.
type ExportResult struct {
	OwnerID         string                 `json:"ownerId"`
	Format          string                 `json:"format"`
	TotalPlaylists  int                    `json:"totalPlaylists"`
	Succeeded       int                    `json:"succeeded"`
	Failed          int                    `json:"failed"`
	OutputDirectory string                 `json:"outputDirectory"`
	ManifestPath    string                 `json:"-"`
	Results         []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	index    int
	playlist models.Playlist
}

// Export writes every playlist owned by ownerID into opts.OutputDir using a worker pool,
// then writes export_manifest.json summarizing the run. Per-playlist failures are recorded, not returned.
func (e *Engine) Export(ctx context.Context, progress chan<- ProgressUpdate, ownerID string, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("moodmix_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}

	playlists, err := e.History(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		OwnerID:         ownerID,
		Format:          opts.Format,
		TotalPlaylists:  len(playlists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, len(playlists)),
	}

	jobs := make(chan exportJob, len(playlists))
	done := make(chan int, len(playlists))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					result.Results[job.index] = PlaylistExportResult{
						PlaylistID: job.playlist.ID,
						MoodPrompt: job.playlist.MoodPrompt,
						Error:      ctx.Err().Error(),
					}
				} else {
					result.Results[job.index] = writePlaylist(&job.playlist, opts)
				}
				done <- job.index
			}
		}()
	}

	for i, pl := range playlists {
		jobs <- exportJob{index: i, playlist: pl}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for idx := range done {
		completed++
		res := result.Results[idx]
		if res.Success {
			result.Succeeded++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(playlists), res.PlaylistID, 1))
		} else {
			result.Failed++
			e.sendProgress(progress, exportFailedUpdate(completed, len(playlists), res.PlaylistID, fmt.Errorf("%s", res.Error)))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, err
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func writePlaylist(pl *models.Playlist, opts ExportOpts) PlaylistExportResult {
	res := PlaylistExportResult{PlaylistID: pl.ID, MoodPrompt: pl.MoodPrompt}

	path := filepath.Join(opts.OutputDir, pl.ID+formatter.Extension(opts.Format))
	if err := formatter.WriteFile(pl, opts.Format, path); err != nil {
		res.Error = err.Error()
		return res
	}

	res.File = path
	res.Success = true
	return res
}
