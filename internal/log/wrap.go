package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// WrapHandler wraps "next" with an interceptor that adds the attributes stored
// at [AttrsKey] to every record and honors the level stored at [LevelKey].
func WrapHandler(next slog.Handler) slog.Handler {
	return handler{next: next}
}

var _ slog.Handler = handler{}

type handler struct {
	next slog.Handler
}

// Enabled implements [slog.Handler].
func (h handler) Enabled(ctx context.Context, l slog.Level) bool {
	floor := slog.Level(1<<31 - 1)
	if l, ok := ctx.Value(LevelKey).(slog.Leveler); ok {
		floor = l.Level()
	}
	return l >= floor || h.next.Enabled(ctx, l)
}

// Handle implements [slog.Handler].
func (h handler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(AttrsKey).(slog.Value); ok {
		r.AddAttrs(v.Group()...)
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements [slog.Handler].
func (h handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return handler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h handler) WithGroup(name string) slog.Handler {
	return handler{next: h.next.WithGroup(name)}
}

// Options configures the handler constructed by [New].
type Options struct {
	// Format is "text" or "json". The empty string means "text".
	Format string
	// Level is a level name understood by [slog.Level.UnmarshalText]. The
	// empty string means "info".
	Level string
}

// New returns a [slog.Logger] writing to "w" in the configured format,
// with its handler wrapped by [WrapHandler].
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	var lvl slog.Level
	if opts.Level != "" {
		if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log: bad level %q: %w", opts.Level, err)
		}
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, hopts)
	case "json":
		h = slog.NewJSONHandler(w, hopts)
	default:
		return nil, fmt.Errorf("log: unknown format %q", opts.Format)
	}
	return slog.New(WrapHandler(h)), nil
}
