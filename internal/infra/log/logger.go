// Package logs builds the process logger: stdout plus optional rotating files.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"go.uber.org/fx"
	"gopkg.in/natefinch/lumberjack.v2"

	"gatekeeper/config"
	"gatekeeper/internal/errors"
)

const (
	appLogFile   = "app.log"
	errorLogFile = "error.log"
)

// Params defines the parameters required for the logger
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
}

// New creates the slog.Logger and closes its log files on stop.
func New(params Params) (*slog.Logger, error) {
	logger, closers, err := build(params.Config.Env.Log, os.Stdout)
	if err != nil {
		return nil, err
	}

	params.Append(fx.Hook{
		OnStop: func(context.Context) error {
			var errs []error
			for _, c := range closers {
				if err := c.Close(); err != nil {
					errs = append(errs, err)
				}
			}

			return errors.Wrap(errors.Join(errs...), "close log files")
		},
	})

	return logger, nil
}

// build writes to stdout at the configured level. When cfg.Dir is set it also
// writes info and above to app.log and errors to error.log, both rotated by size.
func build(cfg config.Log, stdout io.Writer) (*slog.Logger, []io.Closer, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	handlers := []slog.Handler{newHandler(stdout, level, cfg.Pretty)}
	var closers []io.Closer

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, errors.Wrapf(err, "create log dir %s", cfg.Dir)
		}

		appLevel := max(level, slog.LevelInfo)
		app := rotatingFile(filepath.Join(cfg.Dir, appLogFile), cfg)
		errs := rotatingFile(filepath.Join(cfg.Dir, errorLogFile), cfg)

		handlers = append(handlers,
			slog.NewJSONHandler(app, &slog.HandlerOptions{Level: appLevel}),
			slog.NewJSONHandler(errs, &slog.HandlerOptions{Level: slog.LevelError}),
		)
		closers = append(closers, app, errs)
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), closers, nil
	}

	return slog.New(slogmulti.Fanout(handlers...)), closers, nil
}

func newHandler(w io.Writer, level slog.Level, pretty bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if pretty {
		return slog.NewTextHandler(w, opts)
	}

	return slog.NewJSONHandler(w, opts)
}

func rotatingFile(path string, cfg config.Log) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
}

// parseLogLevel converts string log level to slog.Level. Empty means info.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log level: %s", level)
	}
}
