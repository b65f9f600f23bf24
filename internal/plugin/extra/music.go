package extra

import (
	"context"
	"fmt"
	"slices"

	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/status"
)

// MusicID is the music provider's ID.
const MusicID = "music"

// Gathered field keys.
const (
	KeyTrackTitle  = "track_title"
	KeyTrackArtist = "track_artist"
	KeyIsPlaying   = "is_playing"
)

// Music shows the track a configured player is playing.
type Music struct {
	plugin.Base
	cfg *config.MusicConfig
}

// NewMusic builds the music provider from statuses.plugins.music.
func NewMusic(opts plugin.Options) (*Music, error) {
	if opts.Config == nil || opts.Config.Statuses.Plugins.Music == nil {
		return nil, noSettings(MusicID)
	}
	base, err := plugin.NewBase(MusicID, opts)
	if err != nil {
		return nil, err
	}
	return &Music{Base: base, cfg: opts.Config.Statuses.Plugins.Music}, nil
}

// GatherContext reads the playback state of every running player.
func (m *Music) GatherContext(ctx context.Context) plugin.AppContext {
	return gatherRunning(ctx, &m.Base, m.cfg.Apps, func(app string) func(context.Context) (plugin.Fields, error) {
		return func(ctx context.Context) (plugin.Fields, error) {
			pb, err := m.Probe().Playback(ctx, app)
			if err != nil {
				return nil, err
			}
			return plugin.Fields{
				KeyTrackTitle:  pb.Title,
				KeyTrackArtist: pb.Artist,
				KeyIsPlaying:   pb.Playing,
			}, nil
		}
	})
}

// Active reports true when a player is in front and the mode includes
// "focused", or when a player is playing and the mode includes "playing".
func (m *Music) Active(c plugin.Context) bool {
	when := m.cfg.WhenMode()
	if (when == "focused" || when == "both") && slices.Contains(m.cfg.Apps, c.Frontmost) {
		return true
	}
	if when == "playing" || when == "both" {
		for _, app := range m.cfg.Apps {
			if c.App(app).Bool(KeyIsPlaying) {
				return true
			}
		}
	}
	return false
}

// BuildStatus shows the first playing player's track, or a paused status
// when none is playing.
func (m *Music) BuildStatus(c plugin.Context) status.Status {
	for _, app := range m.cfg.Apps {
		if f := c.App(app); f.Bool(KeyIsPlaying) {
			return m.playing(app, f)
		}
	}
	return m.paused()
}

func (m *Music) playing(app string, f plugin.Fields) status.Status {
	st := m.AppStatus(app)
	title := f.String(KeyTrackTitle)
	if m.cfg.RemoveExtrasEnabled() {
		title = status.Clean(title)
	}
	artist := f.String(KeyTrackArtist)

	prefix := ""
	if m.cfg.PrefixEnabled() {
		prefix = st.Text + " to "
	}
	sep, now := m.Separator(), m.TimeSuffix()
	switch m.cfg.DisplayMode() {
	case "title":
		st.Text = status.Format(prefix, or(title, "[no title]"), sep, now)
	case "artist":
		st.Text = status.Format(prefix, or(artist, "[no artist]"), sep, now)
	case "both":
		main := fmt.Sprintf("%s by %s", or(title, "[no title]"), or(artist, "[no artist]"))
		st.Text = status.Format(prefix, main, sep, now)
	default:
		st.Text = st.Text + now
	}
	return st
}

// paused uses the first configured player's entry whichever player stopped.
func (m *Music) paused() status.Status {
	var first string
	if len(m.cfg.Apps) > 0 {
		first = m.cfg.Apps[0]
	}
	st := m.AppStatus(first)
	prefix := ""
	if m.cfg.PrefixEnabled() {
		prefix = st.Text + " "
	}
	st.Text = status.Format(prefix, "paused", m.Separator(), m.TimeSuffix())
	return st
}
