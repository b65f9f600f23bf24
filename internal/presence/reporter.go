package presence

import (
	"fmt"
	"io"
	"sync"

	"github.com/dombom/mark/internal/status"
	"github.com/muesli/termenv"
)

// presenceDot is the marker printed before each status line.
const presenceDot = "●"

// dotStyles maps each presence type to its dot color and colorblind letter.
var dotStyles = map[status.Type]struct {
	color  termenv.ANSIColor
	letter string
}{
	status.Online:    {termenv.ANSIGreen, "O"},
	status.Idle:      {termenv.ANSIYellow, "I"},
	status.DND:       {termenv.ANSIRed, "D"},
	status.Invisible: {termenv.ANSIBlue, "N"},
}

// Reporter prints one line per delivered status: a colored presence dot
// followed by the dimmed emoji and text. In colorblind mode the dot becomes
// the type's letter (O, I, D or N).
type Reporter struct {
	mu         sync.Mutex
	out        *termenv.Output
	colorblind bool
}

// NewReporter returns a Reporter writing to w. The color profile is detected
// from w unless opts set one.
func NewReporter(w io.Writer, colorblind bool, opts ...termenv.OutputOption) *Reporter {
	return &Reporter{out: termenv.NewOutput(w, opts...), colorblind: colorblind}
}

// Report prints st.
func (r *Reporter) Report(st status.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", r.dot(st.Type), r.out.String(st.Emoji+" "+st.Text).Faint())
}

func (r *Reporter) dot(t status.Type) termenv.Style {
	ds, ok := dotStyles[t]
	if !ok {
		ds = dotStyles[status.Online]
	}
	mark := presenceDot
	if r.colorblind {
		mark = ds.letter
	}
	return r.out.String(mark).Foreground(ds.color)
}
