// Package logger owns the process-wide slog instance. The server calls
// InitFromConfig once at startup; everything else logs through L() or the
// package-level helpers and never constructs its own handler.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emberhq/ember-api/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config controls handler construction. The zero value is not usable;
// defaults() supplies the fallback.
type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
}

func defaults() Config {
	return Config{Level: "info", Format: FormatText}
}

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// InitFromConfig wires the Log section of the app config into Init.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(nil)
		return
	}
	Init(&Config{
		Level:      c.Log.Level,
		Format:     Format(c.Log.Format),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
	})
}

// Init replaces the global logger. A nil config falls back to the text
// handler at info level; calling Init again reconfigures in place.
func Init(c *Config) {
	conf := defaults()
	if c != nil {
		conf = *c
	}

	mu.Lock()
	current = build(conf)
	mu.Unlock()
}

func build(conf Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(conf.Level),
		AddSource: conf.WithSource,
	}

	var handler slog.Handler
	if strings.EqualFold(string(conf.Format), string(FormatJSON)) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// text output carries a human-readable timestamp
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, time.Now().Format("2006-01-02 15:04:05"))
			}
			return a
		}
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	l := slog.New(handler)
	if conf.Component != "" {
		l = l.With("component", conf.Component)
	}
	return l
}

// L returns the global logger, lazily initializing the default one so callers
// before InitFromConfig still get output.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(nil)

	mu.RLock()
	defer mu.RUnlock()
	return current
}

// With returns a child of the global logger carrying extra attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
