package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dombom/mark/internal/status"
)

// presenceLabels describes each presence type in the activity state line.
var presenceLabels = map[status.Type]string{
	status.Online: "Online",
	status.Idle:   "Away",
	status.DND:    "Do not disturb",
}

// RPCSink publishes statuses as Rich Presence activities over IPC. It
// connects lazily and reconnects on the next status after a failed write.
// An invisible status clears the activity.
type RPCSink struct {
	client *Client
	now    func() time.Time

	mu    sync.Mutex
	since time.Time
	last  status.Status
}

// NewRPCSink returns a sink for the Discord application appID.
func NewRPCSink(appID string) *RPCSink {
	return &RPCSink{client: NewClient(appID), now: time.Now}
}

// StatusActivity converts st into the activity shown on the profile. since
// is when the status first appeared.
func StatusActivity(st status.Status, since time.Time) *Activity {
	a := &Activity{
		Details: st.Emoji + " " + st.Text,
		State:   presenceLabels[st.Type],
	}
	if !since.IsZero() {
		a.Timestamps = &Timestamps{Start: since.Unix()}
	}
	return a
}

// SetStatus sets the activity for st.
func (s *RPCSink) SetStatus(ctx context.Context, st status.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.client.Connected() {
		if err := s.client.Connect(ctx); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	var err error
	if st.Type == status.Invisible {
		err = s.client.ClearActivity(ctx)
	} else {
		if st != s.last || s.since.IsZero() {
			s.since = s.now()
		}
		err = s.client.SetActivity(ctx, StatusActivity(st, s.since))
	}
	if err != nil {
		s.client.mu.Lock()
		s.client.drop()
		s.client.mu.Unlock()
		return fmt.Errorf("set activity: %w", err)
	}
	s.last = st
	return nil
}

// Close clears the activity and disconnects.
func (s *RPCSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}
