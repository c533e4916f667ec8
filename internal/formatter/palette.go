package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/moodmix/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Styles returns the default palette.
func Styles() *Palette { return styles }

// RenderPlaylist renders pl for the terminal.
func RenderPlaylist(pl *models.Playlist) string {
	var b strings.Builder

	b.WriteString(styles.Title(pl.MoodPrompt))
	b.WriteString("\n")
	b.WriteString(styles.Help(fmt.Sprintf("%s · %d tracks · %s", pl.ID, len(pl.Tracks), pl.CreatedAt.Format(time.DateTime))))
	b.WriteString("\n\n")

	if len(pl.Tracks) == 0 {
		b.WriteString(styles.Warn("No tracks."))
		b.WriteString("\n")
		return b.String()
	}

	width := len(fmt.Sprint(len(pl.Tracks)))
	for i, track := range pl.Tracks {
		fmt.Fprintf(&b, "%*d. %s %s\n", width, i+1, styles.OK(track.Title), styles.Help("by "+track.Artist))
	}
	return b.String()
}

// RenderHistory renders a one-line summary per playlist.
func RenderHistory(playlists []models.Playlist) string {
	if len(playlists) == 0 {
		return styles.Warn("No playlists yet.") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.Title(fmt.Sprintf("%d playlists", len(playlists))))
	b.WriteString("\n")
	for _, pl := range playlists {
		fmt.Fprintf(&b, "%s  %s %s\n",
			styles.Help(pl.CreatedAt.Format(time.DateOnly)),
			styles.OK(pl.MoodPrompt),
			styles.Help(fmt.Sprintf("(%d tracks, %s)", len(pl.Tracks), pl.ID)))
	}
	return b.String()
}
