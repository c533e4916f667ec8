// package formatter renders playlists to export formats (CSV, Markdown, plain text, JSON) and styled terminal output
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
)

const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the supported export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ValidFormat reports whether format is one of [Formats]. "md" and "text" are accepted aliases.
func ValidFormat(format string) bool {
	switch normalize(format) {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
		return true
	}
	return false
}

func normalize(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "md":
		return FormatMarkdown
	case "text":
		return FormatText
	default:
		return f
	}
}

// Extension returns the file extension, with leading dot, for format.
func Extension(format string) string {
	switch normalize(format) {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// ExportToCSV converts a Playlist to CSV format with columns: Position, ID, Title, Artist, Album Art, Preview, Spotify URL
func ExportToCSV(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album Art", "Preview", "Spotify URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range pl.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Title,
			track.Artist,
			track.AlbumArtURL,
			track.PreviewURL,
			track.ExternalURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Playlist to Markdown, using the first track's album art as the cover
func ExportToMarkdown(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", pl.MoodPrompt))

	if len(pl.Tracks) > 0 && pl.Tracks[0].AlbumArtURL != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", pl.Tracks[0].AlbumArtURL))
	}

	buf.WriteString(fmt.Sprintf("**ID**: %s\n", pl.ID))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(pl.Tracks)))
	buf.WriteString(fmt.Sprintf("**Created**: %s\n\n", pl.CreatedAt.Format(time.RFC3339)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range pl.Tracks {
		line := fmt.Sprintf("%s - %s", track.Artist, track.Title)
		if track.ExternalURL != "" {
			line = fmt.Sprintf("[%s](%s)", line, track.ExternalURL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, line))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Playlist to plain text format
func ExportToText(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", pl.MoodPrompt))
	buf.WriteString(fmt.Sprintf("ID: %s\n", pl.ID))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(pl.Tracks)))

	for i, track := range pl.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Playlist to indented JSON
func ExportToJSON(pl *models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(pl, true)
}

// Render converts pl to the named format.
func Render(pl *models.Playlist, format string) ([]byte, error) {
	switch normalize(format) {
	case FormatJSON:
		return ExportToJSON(pl)
	case FormatCSV:
		return ExportToCSV(pl)
	case FormatMarkdown:
		return ExportToMarkdown(pl)
	case FormatText:
		return ExportToText(pl)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// Write renders pl in format to w.
func Write(w io.Writer, pl *models.Playlist, format string) error {
	data, err := Render(pl, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", normalize(format), err)
	}
	return nil
}

// WriteFile renders pl in format to path.
//
// Defaults to {playlist.ID}{ext} as the filename.
func WriteFile(pl *models.Playlist, format, path string) error {
	if path == "" {
		path = pl.ID + Extension(format)
	}

	data, err := Render(pl, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", normalize(format), err)
	}
	return nil
}
