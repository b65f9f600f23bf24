// Package presence pushes resolved statuses to Discord.
//
// A [Publisher] sits between the resolution engine and a [Sink]. It drops
// statuses that match the last one delivered, spaces sends by the configured
// update interval, and on shutdown restores the default status once the
// minimum rate-limit window has passed. [Reporter] prints each delivered
// status to the terminal.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/logger"
	"github.com/dombom/mark/internal/status"
)

// Sink delivers a status to Discord.
type Sink interface {
	SetStatus(ctx context.Context, st status.Status) error
	Close() error
}

// ///////////////////////////////////////////////
// Publisher
// ///////////////////////////////////////////////

// Options configures [New].
type Options struct {
	// Sink receives every status that passes the diff and rate limit.
	Sink Sink
	// Gap is the minimum time between two sends.
	Gap time.Duration
	// Reporter, when non-nil, prints each delivered status.
	Reporter *Reporter
	// Logger defaults to [logger.Discard].
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// Sleep waits for d or until ctx is done. Defaults to a timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Publisher remembers the last status delivered and decides when the next
// one may go out. It is safe for concurrent use.
type Publisher struct {
	sink     Sink
	reporter *Reporter
	log      *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	gap      time.Duration
	last     status.Status
	lastSent time.Time
}

// New returns a Publisher for opts.Sink.
func New(opts Options) *Publisher {
	p := &Publisher{
		sink:     opts.Sink,
		reporter: opts.Reporter,
		log:      opts.Logger,
		now:      opts.Now,
		sleep:    opts.Sleep,
		gap:      opts.Gap,
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p
}

// SetGap changes the minimum time between sends, e.g. after a config reload.
func (p *Publisher) SetGap(d time.Duration) {
	p.mu.Lock()
	p.gap = d
	p.mu.Unlock()
}

// Publish sends st when it differs from the last delivered status and more
// than the update gap has passed since that send. sent reports whether the
// sink was called and succeeded. A failed send leaves the last status
// untouched so the next cycle retries.
func (p *Publisher) Publish(ctx context.Context, st status.Status) (sent bool, err error) {
	st.Type = status.ParseType(string(st.Type))

	p.mu.Lock()
	defer p.mu.Unlock()

	if st == p.last {
		logger.Trace(p.log, "status unchanged, skipping update", "status", st.String())
		return false, nil
	}
	if !p.lastSent.IsZero() {
		if wait := p.gap - p.now().Sub(p.lastSent); wait >= 0 {
			p.log.Debug("status changed inside update interval, deferring", "status", st.String(), "wait", wait)
			return false, nil
		}
	}
	if err := p.send(ctx, st); err != nil {
		return false, err
	}
	return true, nil
}

// Reset sends def unconditionally, first waiting out whatever remains of
// [config.MinRateLimit] since the last send. It is meant for shutdown.
func (p *Publisher) Reset(ctx context.Context, def status.Status) error {
	def.Type = status.ParseType(string(def.Type))

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastSent.IsZero() {
		if remaining := config.MinRateLimit - p.now().Sub(p.lastSent); remaining > 0 {
			p.log.Info("waiting before final status reset to avoid rate limits", "remaining", remaining.Round(10*time.Millisecond))
			if err := p.sleep(ctx, remaining); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
	}
	if err := p.send(ctx, def); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	logger.Success(p.log, "final status reset")
	return nil
}

// send delivers st and records it. The caller must hold p.mu.
func (p *Publisher) send(ctx context.Context, st status.Status) error {
	if err := p.sink.SetStatus(ctx, st); err != nil {
		logger.Fail(p.log, "failed to set status", "status", st.String(), "error", err)
		return fmt.Errorf("set status: %w", err)
	}
	p.last = st
	p.lastSent = p.now()
	logger.Success(p.log, "status updated", "emoji", st.Emoji, "text", st.Text, "type", string(st.Type))
	if p.reporter != nil {
		p.reporter.Report(st)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
