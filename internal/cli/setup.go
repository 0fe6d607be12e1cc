package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/config"
	"github.com/koipond/inkwell/internal/desk"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/store"
)

// Env is the wired application environment a command runs against:
// resolved configuration, an open store, the directive registry, and the
// desk dispatching to both.
type Env struct {
	Config config.Config
	Desk   *desk.Desk

	st *store.Store
}

// Close releases the environment's database handle.
func (e *Env) Close() error {
	return e.st.Close()
}

// openEnv resolves configuration, installs the process logger, opens the
// database (creating parent directories on first use), loads directive
// definitions, and seeds the tutorial stream when the database file is new.
// Flag values override config: --db replaces database.path and --verbose
// forces debug logging.
func openEnv(ctx context.Context, opts *RootOptions, logW io.Writer) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, cmdError(ErrCodeConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	setupLogging(cfg, logW)

	// Seed only a database that did not exist before this command; a
	// journal the user emptied on purpose stays empty.
	fresh := cfg.DatabasePath == ":memory:"
	if !fresh {
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, cmdError(ErrCodeDatabase, "failed to create database directory", err)
			}
		}
		if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
			fresh = true
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, cmdError(ErrCodeDatabase, "failed to open database", err)
	}

	reg, err := directive.Builtins()
	if err != nil {
		st.Close()
		return nil, cmdError(ErrCodeDirectives, "failed to load built-in directives", err)
	}
	if cfg.DirectivesDir != "" {
		n, err := reg.LoadDir(cfg.DirectivesDir)
		if err != nil {
			st.Close()
			return nil, cmdError(ErrCodeDirectives, "failed to load user directives", err)
		}
		slog.Debug("user directives loaded", "dir", cfg.DirectivesDir, "count", n)
	}

	d := desk.New(st, reg, desk.WithSearchLimit(cfg.SearchLimit))

	if fresh {
		seeded, err := d.EnsureTutorial(ctx)
		if err != nil {
			st.Close()
			return nil, cmdError(ErrCodeDatabase, "failed to seed tutorial stream", err)
		}
		if seeded {
			slog.Debug("fresh database, tutorial stream seeded", "path", cfg.DatabasePath)
		}
	}

	return &Env{Config: cfg, Desk: d, st: st}, nil
}

// setupLogging installs the process logger per config. Diagnostics go to
// logW (stderr in production) so stdout stays parseable.
func setupLogging(cfg config.Config, logW io.Writer) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(logW, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(logW, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// readText returns the positional argument at idx when present, otherwise
// the full contents of stdin.
func readText(cmd *cobra.Command, args []string, idx int) (string, error) {
	if len(args) > idx {
		return args[idx], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", cmdError(ErrCodeReadFailed, "failed to read stdin", err)
	}
	return string(data), nil
}

// firstLine returns the first line of s truncated to max runes.
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return s
}

// formatTime renders an epoch-milliseconds timestamp for text output.
func formatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
