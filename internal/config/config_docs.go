package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "statuses.idle.timeout")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate the
// generated config.default.toml with inline comments and alternative examples.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},
	"update_interval": {
		Comment: "Minimum seconds between two status updates sent to Discord.",
	},
	"retry_interval": {
		Comment: "Seconds between polls of the frontmost app and idle time.\nValues below 2.9 are raised to 2.9 to stay under Discord's rate limit.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"success\", \"warn\", \"error\", \"fail\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},

	// ── Discord ──────────────────────────────────────────────────
	"discord": {
		Comment: "How statuses reach Discord",
	},
	"discord.mode": {
		Comment: "Options: \"api\", \"ipc\"\n  api: set your account's custom status (needs a user token, see token_env)\n  ipc: show Rich Presence through the running Discord client (needs app_id)",
		Alternatives: []string{
			`mode = "ipc"`,
		},
	},
	"discord.token_env": {
		Comment: "Environment variable holding your Discord token for api mode.\nA .env file in the data directory is loaded first.",
	},
	"discord.app_id": {
		Comment: "Application ID for Rich Presence in ipc mode.",
		Alternatives: []string{
			`app_id = "123456789012345678"`,
		},
	},
	"discord.colorblind": {
		Comment: "Show O/I/D/N instead of a colored dot in the console.",
	},

	// ── Statuses ─────────────────────────────────────────────────
	"statuses": {
		Comment: "Every status is [emoji, text] or [emoji, text, type].\nType is one of \"online\", \"idle\", \"dnd\", \"invisible\" and defaults to \"online\".",
	},
	"statuses.default": {
		Comment: "Shown when the frontmost app has no entry in [statuses.apps], and on exit.",
	},
	"statuses.time_format": {
		Comment: "strftime pattern for the time appended to each status.",
		Alternatives: []string{
			`time_format = "%I:%M %p"`,
		},
	},
	"statuses.show_time": {
		Comment: "Append the separator and current time to each status.",
	},
	"statuses.separator": {
		Comment: "Goes between the status text and the time.",
	},
	"statuses.apps": {
		Comment: "Default status per app, keyed by lowercased app identifier.\nRun `mark -getbundle` and focus an app to print its identifier.",
	},

	// ── Idle ─────────────────────────────────────────────────────
	"statuses.idle": {
		Comment: "Shown once you have been away from the keyboard long enough.\nIdle always wins over every plugin.",
	},
	"statuses.idle.timeout": {
		Comment: "Minutes without input before the idle status applies.",
	},
	"statuses.idle.status": {
		Comment: "[emoji, text]. The presence type is always idle.",
	},
	"statuses.idle.display": {
		Comment: "Options: \"elapsed\", \"normal\"\n  elapsed: \"Away (12m)\"\n  normal:  \"Away\"",
		Alternatives: []string{
			`display = "normal"`,
		},
	},

	// ── Plugins ──────────────────────────────────────────────────
	"statuses.plugins": {
		Comment: "Optional plugins. The first active plugin in _enabled order wins.",
	},
	"statuses.plugins._enabled": {
		Comment: "Plugins to run, in priority order. Each needs its own section below.\nAvailable: \"music\", \"browser\", \"code\"",
	},

	// ── Music ────────────────────────────────────────────────────
	"statuses.plugins.music": {
		Comment: "Shows the playing track. Supported apps: com.spotify.client, com.apple.music",
	},
	"statuses.plugins.music.apps": {
		Comment: "Player apps in priority order.",
	},
	"statuses.plugins.music.when": {
		Comment: "Options: \"playing\", \"focused\", \"both\"\n  playing: active while any player is playing\n  focused: active while a player is the frontmost app\n  both:    either of the above",
		Alternatives: []string{
			`when = "focused"`,
			`when = "both"`,
		},
	},
	"statuses.plugins.music.display": {
		Comment: "Options: \"title\", \"artist\", \"both\"\nAnything else shows the app's default text.",
		Alternatives: []string{
			`display = "title"`,
			`display = "artist"`,
		},
	},
	"statuses.plugins.music.prefix": {
		Comment: "Prefix the track with the app's text and \" to \", e.g. \"Listening to Song\". Default true.",
		Alternatives: []string{
			`prefix = false`,
		},
	},
	"statuses.plugins.music.remove_extras": {
		Comment: "Strip (feat. ...) and [Remastered] style parts from titles. Default true.",
		Alternatives: []string{
			`remove_extras = false`,
		},
	},

	// ── Browser ──────────────────────────────────────────────────
	"statuses.plugins.browser": {
		Comment: "Shows the active tab while a browser is the frontmost app.\nSupported apps: company.thebrowser.browser, com.google.chrome, com.apple.safari",
	},
	"statuses.plugins.browser.apps": {
		Comment: "Browser apps in priority order.",
	},
	"statuses.plugins.browser.display": {
		Comment: "Options: \"title\", \"url\"\nAnything else shows the app's default text.",
		Alternatives: []string{
			`display = "title"`,
		},
	},
	"statuses.plugins.browser.prefix": {
		Comment: "Prefix the tab info with the app's text. Default true.",
		Alternatives: []string{
			`prefix = false`,
		},
	},
	"statuses.plugins.browser.use_special": {
		Comment: "Use special_statuses for matching domains. Default true.",
		Alternatives: []string{
			`use_special = false`,
		},
	},
	"statuses.plugins.browser.special_statuses": {
		Comment: "Status per domain (without \"www.\"). Keys may be glob patterns such as \"*.google.com\".\nExact keys are tried first, then patterns in sorted order.",
	},

	// ── Code ─────────────────────────────────────────────────────
	"statuses.plugins.code": {
		Comment: "Shows the open project or file while an editor is the frontmost app.\nSupported apps: com.microsoft.vscode, dev.zed.zed, dev.zed.zed-preview",
	},
	"statuses.plugins.code.apps": {
		Comment: "Editor apps in priority order.",
	},
	"statuses.plugins.code.display": {
		Comment: "Options: \"project\", \"file\", \"both\"\nAnything else shows the app's default text.",
		Alternatives: []string{
			`display = "file"`,
			`display = "both"`,
		},
	},
	"statuses.plugins.code.prefix": {
		Comment: "Prefix the value with the app's text and \" in \", e.g. \"Coding in mark\". Default true.",
		Alternatives: []string{
			`prefix = false`,
		},
	},
}
