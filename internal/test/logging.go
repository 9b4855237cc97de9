// Package test holds helpers for cvssmerge tests.
package test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quay/cvssmerge/internal/log"
)

var (
	// Setup installs the test log handler exactly once.
	setup = sync.OnceFunc(func() {
		slog.SetDefault(slog.New(new(handler)))
	})

	// Getwd caches [os.Getwd], since it may be called for every [slog.Record].
	getwd = sync.OnceValue(func() string {
		dir, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		return dir
	})
)

const modname = "github.com/quay/cvssmerge/"

type ctxKey struct{}

var logHandler ctxKey

var _ slog.Handler = (handler)(nil)

// DeferredOp lets [slog.Handler.WithAttrs] and [slog.Handler.WithGroup] be
// replayed once the per-test [slog.Handler] is pulled out of a
// [context.Context].
type deferredOp func(slog.Handler) slog.Handler

// Handler implements [slog.Handler] by delegating to the handler stored in the
// [context.Context] by [Logging]. Records logged with a Context lacking one are
// dropped.
type handler []deferredOp

func fromContext(ctx context.Context) (slog.Handler, bool) {
	h, ok := ctx.Value(logHandler).(slog.Handler)
	return h, ok
}

// Enabled implements [slog.Handler].
func (h handler) Enabled(ctx context.Context, l slog.Level) bool {
	lh, ok := fromContext(ctx)
	if !ok {
		return false
	}
	return lh.Enabled(ctx, l)
}

// Handle implements [slog.Handler].
func (h handler) Handle(ctx context.Context, r slog.Record) error {
	lh, ok := fromContext(ctx)
	if !ok {
		return nil
	}
	for _, op := range h {
		lh = op(lh)
	}
	if v, ok := ctx.Value(log.AttrsKey).(slog.Value); ok {
		r.AddAttrs(v.Group()...)
	}
	return lh.Handle(ctx, r)
}

// WithAttrs implements [slog.Handler].
func (h handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return append(h, func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	})
}

// WithGroup implements [slog.Handler].
func (h handler) WithGroup(name string) slog.Handler {
	return append(h, func(h slog.Handler) slog.Handler {
		return h.WithGroup(name)
	})
}

// Logging returns a [context.Context] that makes the default [slog.Logger]
// write to the output of "t".
//
// Only records logged with the returned Context (or one derived from it) are
// written. If "parent" is provided, it's used instead of
// [context.Background].
func Logging(t testing.TB, parent ...context.Context) context.Context {
	setup()
	ctx := context.Background()
	if len(parent) > 0 {
		ctx = parent[0]
	}
	start := time.Now()
	h := slog.NewTextHandler(t.Output(), &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(g []string, a slog.Attr) slog.Attr {
			if g != nil {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String(slog.TimeKey, "+"+time.Since(start).String())
			case slog.SourceKey:
				src, ok := a.Value.Any().(*slog.Source)
				if !ok {
					return a
				}
				if src.Function != "" {
					return slog.String(slog.SourceKey, strings.TrimPrefix(src.Function, modname))
				}
				f := src.File
				if r, err := filepath.Rel(getwd(), f); err == nil && r != "" {
					f = r
				}
				return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", f, src.Line))
			}
			return a
		},
	})
	return context.WithValue(ctx, logHandler, h)
}
