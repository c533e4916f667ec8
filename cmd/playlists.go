package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moodmix/internal/formatter"
	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/desertthunder/moodmix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// progress returns a channel whose updates are logged at debug level and a func that
// drains and closes it.
func (r *Runner) progress() (chan tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range ch {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()
	return ch, func() {
		close(ch)
		wg.Wait()
	}
}

func (r *Runner) writePlaylist(pl *models.Playlist, asJSON bool) error {
	if asJSON {
		return r.writeJSON(pl, true)
	}
	return r.writePlain("%s", formatter.RenderPlaylist(pl))
}

// Generate runs the mood pipeline and saves the result under the owner.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}

	ch, done := r.progress()
	var pl *models.Playlist
	err = r.wait(ctx, "Curating...", func(ctx context.Context) error {
		var err error
		pl, err = engine.Generate(ctx, cmd.String("owner"), cmd.String("mood"), ch)
		return err
	})
	done()
	if err != nil {
		return fmt.Errorf("failed to generate playlist: %w", err)
	}

	return r.writePlaylist(pl, cmd.Bool("json"))
}

// Append adds tracks for a new mood to an existing playlist.
func (r *Runner) Append(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}

	before := 0
	if current, err := engine.Playlist(ctx, cmd.String("id")); err == nil {
		before = len(current.Tracks)
	}

	ch, done := r.progress()
	var pl *models.Playlist
	err = r.wait(ctx, "Finding more tracks...", func(ctx context.Context) error {
		var err error
		pl, err = engine.Append(ctx, cmd.String("id"), cmd.String("mood"), ch)
		return err
	})
	done()
	if err != nil {
		return fmt.Errorf("failed to append tracks: %w", err)
	}

	r.logger.Info("append complete", "id", pl.ID, "added", len(pl.Tracks)-before, "total", len(pl.Tracks))
	return r.writePlaylist(pl, cmd.Bool("json"))
}

// History lists the owner's playlists, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}

	playlists, err := engine.History(ctx, cmd.String("owner"))
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if cmd.Bool("json") {
		if playlists == nil {
			playlists = []models.Playlist{}
		}
		return r.writeJSON(playlists, true)
	}
	return r.writePlain("%s", formatter.RenderHistory(playlists))
}

// Show prints one playlist in the requested format, or writes it to --output.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	engine, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}

	pl, err := engine.Playlist(ctx, cmd.String("id"))
	if err != nil {
		return fmt.Errorf("failed to load playlist: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(pl, format, path); err != nil {
			return err
		}
		r.logger.Info("playlist written", "id", pl.ID, "path", path)
		return nil
	}

	return formatter.Write(r.output, pl, format)
}

// Export writes the owner's playlists plus a manifest to a directory.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	engine, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}

	ch, done := r.progress()
	var result *tasks.ExportResult
	err = r.wait(ctx, "Exporting...", func(ctx context.Context) error {
		var err error
		result, err = engine.Export(ctx, ch, cmd.String("owner"), tasks.ExportOpts{
			Format:     format,
			OutputDir:  cmd.String("dir"),
			NumWorkers: int(cmd.Int("workers")),
		})
		return err
	})
	done()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	styles := formatter.Styles()
	r.writePlainln("%s", styles.Title(fmt.Sprintf("Exported %d of %d playlists", result.Succeeded, result.TotalPlaylists)))
	for _, res := range result.Results {
		if res.Success {
			r.writePlainln("  %s %s", styles.OK("✓"), res.File)
		} else {
			r.writePlainln("  %s %s: %s", styles.Err("✗"), res.PlaylistID, res.Error)
		}
	}
	return r.writePlainln("%s", styles.Help("manifest: "+result.ManifestPath))
}
