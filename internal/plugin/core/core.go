// Package core holds the two providers every engine runs regardless of
// configuration: Idle, which always goes first, and Fallback, which always
// goes last and always matches.
package core

import (
	"fmt"
	"time"

	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/status"
)

// Provider IDs.
const (
	IdleID     = "idle"
	FallbackID = "fallback"
)

// ///////////////////////////////////////////////
// Idle
// ///////////////////////////////////////////////

// Idle reports the user as away once input has been idle for the configured
// number of minutes. Its status type is always idle.
type Idle struct {
	plugin.Base
	timeout time.Duration
	status  status.Status
	elapsed bool
}

// NewIdle builds the idle provider from the statuses.idle section.
func NewIdle(opts plugin.Options) (*Idle, error) {
	base, err := plugin.NewBase(IdleID, opts)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config
	st, ok := cfg.Statuses.Idle.Status.Status()
	if !ok {
		st = status.Status{Emoji: "😴", Text: "Away"}
	}
	st.Type = status.Idle
	return &Idle{
		Base:    base,
		timeout: cfg.IdleTimeout(),
		status:  st,
		elapsed: cfg.Statuses.Idle.Display == "elapsed",
	}, nil
}

// Active reports whether idle time has reached the timeout.
func (p *Idle) Active(c plugin.Context) bool {
	return c.Idle >= p.timeout
}

// BuildStatus returns the idle status, with the whole idle minutes appended
// in "elapsed" display mode.
func (p *Idle) BuildStatus(c plugin.Context) status.Status {
	text := p.status.Text
	if p.elapsed {
		text = fmt.Sprintf("%s (%dm)", text, int(c.Idle/time.Minute))
	}
	return status.Status{
		Emoji: p.status.Emoji,
		Text:  status.Format("", text, p.Separator(), p.TimeSuffix()),
		Type:  status.Idle,
	}
}

// ///////////////////////////////////////////////
// Fallback
// ///////////////////////////////////////////////

// Fallback is always active. It shows the apps table entry for the frontmost
// app, else the configured default, else the built-in status.
type Fallback struct {
	plugin.Base
	def status.Status
}

// NewFallback builds the fallback provider.
func NewFallback(opts plugin.Options) (*Fallback, error) {
	base, err := plugin.NewBase(FallbackID, opts)
	if err != nil {
		return nil, err
	}
	return &Fallback{Base: base, def: opts.Config.DefaultStatus()}, nil
}

// Active always reports true.
func (p *Fallback) Active(plugin.Context) bool { return true }

// BuildStatus returns the frontmost app's entry or the default, with the time
// appended. Emoji and text are never empty.
func (p *Fallback) BuildStatus(c plugin.Context) status.Status {
	st, ok := p.Config().Statuses.Apps[c.Frontmost].Status()
	if !ok {
		st = p.def
	}
	if st.Emoji == "" {
		st.Emoji = status.FallbackEmoji
	}
	if st.Text == "" {
		st.Text = status.FallbackText
	}
	st.Text = status.Format("", st.Text, p.Separator(), p.TimeSuffix())
	return st
}
