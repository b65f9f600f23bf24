package extra

import (
	"context"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/status"
)

// BrowserID is the browser provider's ID.
const BrowserID = "browser"

// Gathered field keys.
const (
	KeyURL   = "url"
	KeyTitle = "title"
)

// Browser shows the focused browser's active tab, or a special status for
// configured domains.
type Browser struct {
	plugin.Base
	cfg     *config.BrowserConfig
	exact   map[string]status.Status
	globs   []string
	globMap map[string]status.Status
}

// NewBrowser builds the browser provider from statuses.plugins.browser.
func NewBrowser(opts plugin.Options) (*Browser, error) {
	if opts.Config == nil || opts.Config.Statuses.Plugins.Browser == nil {
		return nil, noSettings(BrowserID)
	}
	base, err := plugin.NewBase(BrowserID, opts)
	if err != nil {
		return nil, err
	}
	b := &Browser{
		Base:    base,
		cfg:     opts.Config.Statuses.Plugins.Browser,
		exact:   make(map[string]status.Status),
		globMap: make(map[string]status.Status),
	}
	for key, entry := range b.cfg.SpecialStatuses {
		st, ok := entry.Status()
		if !ok {
			b.Logger().Warn("special status skipped", "domain", key, "reason", "needs emoji and text")
			continue
		}
		key = strings.ToLower(key)
		if strings.ContainsAny(key, "*?[{") {
			b.globs = append(b.globs, key)
			b.globMap[key] = st
		} else {
			b.exact[key] = st
		}
	}
	sort.Strings(b.globs)
	return b, nil
}

// GatherContext reads the active tab of every running browser.
func (b *Browser) GatherContext(ctx context.Context) plugin.AppContext {
	return gatherRunning(ctx, &b.Base, b.cfg.Apps, func(app string) func(context.Context) (plugin.Fields, error) {
		return func(ctx context.Context) (plugin.Fields, error) {
			tab, err := b.Probe().BrowserTab(ctx, app)
			if err != nil {
				return nil, err
			}
			return plugin.Fields{KeyURL: tab.URL, KeyTitle: tab.Title}, nil
		}
	})
}

// Active reports whether a configured browser is in front.
func (b *Browser) Active(c plugin.Context) bool {
	return slices.Contains(b.cfg.Apps, c.Frontmost)
}

// BuildStatus prefers a special status for the tab's domain, then the
// display mode, then the browser's own text.
func (b *Browser) BuildStatus(c plugin.Context) status.Status {
	st := b.AppStatus(c.Frontmost)
	prefix := ""
	if b.cfg.PrefixEnabled() {
		prefix = st.Text + " "
	}
	sep, now := b.Separator(), b.TimeSuffix()

	data := plugin.Prioritize(c.Apps, plugin.FrontFirst(c.Frontmost, b.cfg.Apps), KeyURL, KeyTitle)
	rawURL, title := data.String(KeyURL), data.String(KeyTitle)
	domain := Domain(rawURL)

	if domain != "" && b.cfg.UseSpecialEnabled() {
		if sp, ok := b.special(domain); ok {
			sp.Text = status.Format(prefix, sp.Text, sep, now)
			return sp
		}
	}

	switch mode := b.cfg.DisplayMode(); {
	case mode == "title" && title != "":
		st.Text = status.Format(prefix, title, sep, now)
	case mode == "url" && domain != "":
		st.Text = status.Format(prefix, domain, sep, now)
	default:
		st.Text = status.Format(st.Text, "", sep, now)
	}
	return st
}

// special looks domain up by exact key first, then by glob keys in sorted
// order.
func (b *Browser) special(domain string) (status.Status, bool) {
	if st, ok := b.exact[domain]; ok {
		return st, true
	}
	for _, pattern := range b.globs {
		if ok, _ := doublestar.Match(pattern, domain); ok {
			return b.globMap[pattern], true
		}
	}
	return status.Status{}, false
}

// Domain returns the lowercased host of rawURL without port or a leading
// "www.". A URL without a scheme is read as https.
func Domain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
