// Package main implements the Mark daemon, which watches the frontmost app,
// idle time and app state, resolves a custom status through the plugin chain
// and publishes it to Discord.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dombom/mark"
	"github.com/dombom/mark/internal/atomicfile"
	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/discord"
	"github.com/dombom/mark/internal/engine"
	"github.com/dombom/mark/internal/logger"
	"github.com/dombom/mark/internal/paths"
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/presence"
	"github.com/dombom/mark/internal/probe"
	"github.com/dombom/mark/internal/status"
	"github.com/joho/godotenv"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time with -ldflags "-X main.version=1.2.0".
var version = "dev"

// resolveVersion returns [version] when it was set at build time, otherwise
// a "dev+<hash>" tag built from the VCS info the toolchain embeds.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// PID Management
// ///////////////////////////////////////////////

// pidToken returns a random token that marks the PID file as ours.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// writePID locks the PID file and writes "PID:TOKEN" into it. The returned
// file must stay open while the daemon runs; pass it to [removePID].
func writePID(dir paths.DataDir, token string) (*os.File, error) {
	f, err := os.OpenFile(dir.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock PID file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d:%s", os.Getpid(), token); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return f, nil
}

// removePID unlocks and closes f, then deletes the PID file if it still
// carries token.
func removePID(dir paths.DataDir, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(dir.PID())
	if err != nil {
		return
	}
	if _, tok, ok := strings.Cut(string(data), ":"); ok && tok == token {
		os.Remove(dir.PID())
	}
}

// checkStalePID reports whether another instance holds the PID lock and,
// if so, its pid. A file nobody holds is left over from a dead instance and
// is removed.
func checkStalePID(dir paths.DataDir) (alive bool, pid int) {
	f, err := os.OpenFile(dir.PID(), os.O_RDWR, 0o600)
	if err != nil {
		return false, 0
	}
	if lockErr := lockFile(f); lockErr != nil {
		data, _ := os.ReadFile(dir.PID())
		f.Close()
		head, _, _ := strings.Cut(string(data), ":")
		if p, convErr := strconv.Atoi(head); convErr == nil {
			return true, p
		}
		return true, 0
	}
	_ = unlockFile(f)
	f.Close()
	os.Remove(dir.PID())
	return false, 0
}

// ///////////////////////////////////////////////
// Setup
// ///////////////////////////////////////////////

// loadConfig loads the config from dir. On first run it writes the
// documented default config and loads that.
func loadConfig(dir paths.DataDir) (*config.Config, error) {
	cfg, err := config.Load(dir.Root)
	if !errors.Is(err, config.ErrNoConfig) {
		return cfg, err
	}
	if err := atomicfile.Write(dir.Config(), mark.DefaultConfigTOML, 0o644); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}
	return config.Load(dir.Root)
}

// loadEnv reads dir/.env into the environment when it exists. Variables that
// are already set win.
func loadEnv(dir paths.DataDir) error {
	if _, err := os.Stat(dir.Env()); err != nil {
		return nil
	}
	if err := godotenv.Load(dir.Env()); err != nil {
		return fmt.Errorf("load %s: %w", paths.EnvFile, err)
	}
	return nil
}

// newSink builds the Discord transport selected by cfg.Discord.Mode.
func newSink(cfg *config.Config) (presence.Sink, error) {
	if cfg.Discord.Mode == config.ModeIPC {
		if cfg.Discord.AppID == "" {
			return nil, errors.New("discord.app_id is required in ipc mode")
		}
		return discord.NewRPCSink(cfg.Discord.AppID), nil
	}
	env := cfg.Discord.TokenEnv
	if env == "" {
		env = config.DefaultTokenEnv
	}
	token := strings.TrimSpace(os.Getenv(env))
	if token == "" {
		return nil, fmt.Errorf("%w: set %s or add it to %s", discord.ErrNoToken, env, paths.EnvFile)
	}
	return discord.NewAPIClient(token)
}

// newLogger builds the daemon logger. verbose lowers the level to debug and
// tees records to stderr.
func newLogger(dir paths.DataDir, cfg *config.Config, verbose bool) (*slog.Logger, io.Closer) {
	opts := logger.Options{
		Path:      dir.Log(),
		Level:     logger.ParseLevel(cfg.Log.Level),
		MaxSizeMB: cfg.Log.MaxSizeMB,
	}
	if verbose {
		opts.Level = min(opts.Level, logger.LevelDebug)
		opts.Console = os.Stderr
	}
	return logger.New(opts)
}

// ///////////////////////////////////////////////
// Daemon
// ///////////////////////////////////////////////

// daemon carries the state of the poll loop. The loop goroutine owns it.
type daemon struct {
	cfg     *config.Config
	probe   probe.SystemProbe
	manager *engine.Manager
	pub     *presence.Publisher
	log     *slog.Logger
	now     func() time.Time
}

// newDaemon builds the provider chain for cfg.
func newDaemon(cfg *config.Config, p probe.SystemProbe, pub *presence.Publisher, log *slog.Logger) (*daemon, error) {
	d := &daemon{probe: p, pub: pub, log: log, now: time.Now}
	if err := d.apply(cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// apply swaps in cfg with a freshly built Manager.
func (d *daemon) apply(cfg *config.Config) error {
	m, err := engine.New(plugin.Options{Config: cfg, Probe: d.probe, Logger: d.log, Now: d.now})
	if err != nil {
		return err
	}
	if d.cfg != nil && d.cfg.Discord != cfg.Discord {
		d.log.Warn("discord settings changed, restart to apply them")
	}
	d.cfg, d.manager = cfg, m
	d.pub.SetGap(cfg.UpdateGap())
	d.log.Info("plugins loaded", "chain", strings.Join(m.IDs(), " > "))
	return nil
}

// resolve runs one resolution cycle. A panic anywhere in the cycle is
// returned as an error.
func (d *daemon) resolve(ctx context.Context) (st status.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	g, err := engine.Snapshot(ctx, d.probe, d.cfg.Statuses.Plugins.Enabled)
	if err != nil {
		return status.Status{}, fmt.Errorf("snapshot: %w", err)
	}
	return d.manager.Resolve(ctx, g)
}

// tick resolves the current status and hands it to the publisher. Failures
// are logged and the previous status stays in place.
func (d *daemon) tick(ctx context.Context) {
	st, err := d.resolve(ctx)
	if err != nil {
		d.log.Error("status cycle failed", "error", err)
		return
	}
	logger.Trace(d.log, "status resolved", "status", st.String())
	_, _ = d.pub.Publish(ctx, st)
}

// run polls until a signal arrives. changes delivers config file events and
// reload returns the new config for each.
func (d *daemon) run(ctx context.Context, sig <-chan os.Signal, changes <-chan struct{}, reload func() (*config.Config, bool)) {
	ticker := time.NewTicker(d.cfg.PollInterval())
	defer ticker.Stop()

	d.tick(ctx)
	for {
		select {
		case s := <-sig:
			d.log.Info("received shutdown signal", "signal", s.String())
			return

		case <-changes:
			cfg, ok := reload()
			if !ok {
				continue
			}
			if err := d.apply(cfg); err != nil {
				d.log.Warn("config reload failed, keeping current settings", "error", err)
				continue
			}
			ticker.Reset(d.cfg.PollInterval())
			logger.Success(d.log, "config reloaded")
			d.tick(ctx)

		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// shutdown restores the default status and closes the sink.
func (d *daemon) shutdown(sink presence.Sink) {
	ctx, cancel := context.WithTimeout(context.Background(), config.MinRateLimit+15*time.Second)
	defer cancel()
	if err := d.pub.Reset(ctx, d.cfg.DefaultStatus()); err != nil {
		d.log.Error("failed to reset status", "error", err)
	}
	if err := sink.Close(); err != nil {
		d.log.Warn("failed to close discord sink", "error", err)
	}
}

// ///////////////////////////////////////////////
// Utility Modes
// ///////////////////////////////////////////////

// watchFrontmost prints the frontmost app id every time it changes until a
// signal arrives.
func watchFrontmost(ctx context.Context, p probe.SystemProbe, w io.Writer, interval time.Duration, sig <-chan os.Signal) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		if front, err := p.FrontmostApp(ctx); err == nil && front != last {
			last = front
			fmt.Fprintln(w, front)
		}
		select {
		case <-sig:
			return
		case <-ticker.C:
		}
	}
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

// options holds the parsed command line.
type options struct {
	dataDir   string
	verbose   bool
	version   bool
	getBundle bool
	once      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	fs.StringVar(&o.dataDir, "data-dir", paths.Default().Root, "Data directory for config, .env and logs")
	fs.BoolVar(&o.verbose, "verbose", false, "Log at debug level and mirror the log to stderr")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit")
	fs.BoolVar(&o.getBundle, "getbundle", false, "Print the frontmost app id whenever it changes")
	fs.BoolVar(&o.once, "once", false, "Resolve one status, print it and exit without publishing")
	err := fs.Parse(args)
	return o, err
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ver := resolveVersion()
	if opts.version {
		fmt.Printf("%s %s\n", paths.BinaryName, ver)
		return nil
	}

	p, err := probe.New()
	if err != nil {
		return fmt.Errorf("system probe: %w", err)
	}
	if opts.getBundle {
		fmt.Fprintln(os.Stderr, "Focus an app to print its id. Press Ctrl+C to exit.")
		watchFrontmost(context.Background(), p, os.Stdout, 500*time.Millisecond, signalChannel())
		return nil
	}

	dir := paths.DataDir{Root: opts.dataDir}
	if err := os.MkdirAll(dir.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.once {
		log := logger.Discard()
		if opts.verbose {
			log, _ = logger.New(logger.Options{Level: logger.LevelTrace, Console: os.Stderr})
		}
		d, err := newDaemon(cfg, p, presence.New(presence.Options{}), log)
		if err != nil {
			return err
		}
		st, err := d.resolve(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(st.String())
		return nil
	}

	if alive, pid := checkStalePID(dir); alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	if err := loadEnv(dir); err != nil {
		return err
	}

	log, logCloser := newLogger(dir, cfg, opts.verbose)
	defer logCloser.Close()
	slog.SetDefault(log)
	log.Info("mark starting", "version", ver, "data_dir", dir.Root, "mode", cfg.Discord.Mode)

	token := pidToken()
	pidFile, err := writePID(dir, token)
	if err != nil {
		return err
	}
	defer removePID(dir, token, pidFile)

	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	pub := presence.New(presence.Options{
		Sink:     sink,
		Gap:      cfg.UpdateGap(),
		Reporter: presence.NewReporter(os.Stdout, cfg.Discord.Colorblind),
		Logger:   log,
	})
	d, err := newDaemon(cfg, p, pub, log)
	if err != nil {
		return err
	}

	watcher, err := config.NewWatcher(dir.Root, log)
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	d.run(context.Background(), signalChannel(), watcher.Events(), watcher.Reload)
	d.shutdown(sink)
	logger.Success(log, "mark stopped")
	return nil
}
