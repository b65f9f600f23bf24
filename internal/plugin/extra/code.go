package extra

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/status"
)

// CodeID is the code editor provider's ID.
const CodeID = "code"

// Gathered field keys.
const (
	KeyFileTitle   = "file_title"
	KeyProjectName = "project_name"
)

// fileFirstEditors title their windows "file — project". Every other editor
// is read as "project — file", which is Zed's layout.
var fileFirstEditors = map[string]bool{
	"com.microsoft.vscode":         true,
	"com.microsoft.vscodeinsiders": true,
	"com.vscodium":                 true,
	"code":                         true,
	"code-insiders":                true,
	"codium":                       true,
	"cursor":                       true,
}

// editorSuffixes are app names editors append to their window titles.
var editorSuffixes = []string{
	" - Visual Studio Code",
	" — Visual Studio Code",
	" - Visual Studio Code - Insiders",
	" - VSCodium",
	" - Cursor",
	" — Zed",
	" - Zed",
}

// Code shows the file or project open in the focused editor.
type Code struct {
	plugin.Base
	cfg *config.CodeConfig
}

// NewCode builds the code provider from statuses.plugins.code.
func NewCode(opts plugin.Options) (*Code, error) {
	if opts.Config == nil || opts.Config.Statuses.Plugins.Code == nil {
		return nil, noSettings(CodeID)
	}
	base, err := plugin.NewBase(CodeID, opts)
	if err != nil {
		return nil, err
	}
	return &Code{Base: base, cfg: opts.Config.Statuses.Plugins.Code}, nil
}

// GatherContext parses the window title of every running editor.
func (e *Code) GatherContext(ctx context.Context) plugin.AppContext {
	return gatherRunning(ctx, &e.Base, e.cfg.Apps, func(app string) func(context.Context) (plugin.Fields, error) {
		return func(ctx context.Context) (plugin.Fields, error) {
			title, err := e.Probe().WindowTitle(ctx, app)
			if err != nil {
				return nil, err
			}
			file, project := ParseEditorTitle(app, title)
			return plugin.Fields{KeyFileTitle: file, KeyProjectName: project}, nil
		}
	})
}

// Active reports whether a configured editor is in front.
func (e *Code) Active(c plugin.Context) bool {
	return slices.Contains(e.cfg.Apps, c.Frontmost)
}

// BuildStatus shows the project, file or both per the display mode.
func (e *Code) BuildStatus(c plugin.Context) status.Status {
	st := e.AppStatus(c.Frontmost)
	data := plugin.Prioritize(c.Apps, plugin.FrontFirst(c.Frontmost, e.cfg.Apps), KeyFileTitle, KeyProjectName)
	file := or(data.String(KeyFileTitle), "[no file]")
	project := or(data.String(KeyProjectName), "[no project]")

	prefix := ""
	if e.cfg.PrefixEnabled() {
		prefix = st.Text + " in "
	}
	sep, now := e.Separator(), e.TimeSuffix()
	switch e.cfg.DisplayMode() {
	case "project":
		st.Text = status.Format(prefix, project, sep, now)
	case "file":
		st.Text = status.Format(prefix, file, sep, now)
	case "both":
		st.Text = status.Format(prefix, fmt.Sprintf("%s in %s", file, project), sep, now)
	default:
		st.Text = st.Text + now
	}
	return st
}

// ParseEditorTitle splits an editor window title into file and project. The
// editor's own name and an unsaved-changes marker are dropped first. A title
// with no separator names the project in every editor: VS Code shows just
// the folder when no file is open, Zed when no buffer is.
func ParseEditorTitle(appID, title string) (file, project string) {
	title = strings.TrimPrefix(strings.TrimSpace(title), "● ")
	for _, suffix := range editorSuffixes {
		if t, ok := strings.CutSuffix(title, suffix); ok {
			title = t
			break
		}
	}
	first, second, ok := strings.Cut(title, " — ")
	if !ok {
		first, second, ok = strings.Cut(title, " - ")
	}
	if !ok {
		return "", first
	}
	if fileFirstEditors[appID] {
		return first, second
	}
	return second, first
}
