// Package log holds the logging conventions shared by cvssmerge packages.
//
// Packages log with the [log/slog] default logger and the "Context" variants
// of its methods. Attributes describing the unit of work (the vulnerability
// being evaluated, the selector being run) are attached to the
// [context.Context] with [With], and a handler wrapped by [WrapHandler] adds
// them to every record.
package log

import (
	"context"
	"log/slog"
	"slices"
)

// Ctxkey is a Context key type.
//
// This is unexported so that other packages cannot construct these values.
type ctxkey int

const (
	_ ctxkey = iota

	// AttrsKey is the [context.Context] key holding the extra attributes
	// added by [With] and [WithAttr].
	//
	// The value is a [slog.Value] of kind "Group" if present.
	AttrsKey

	// LevelKey is the [context.Context] key holding a per-record minimum
	// [slog.Leveler], overriding the handler's configured level.
	LevelKey
)

// With returns a context with the key-value pairs in "args" stored at
// [AttrsKey], in the same manner as [slog.Logger.With].
func With(ctx context.Context, args ...any) context.Context {
	return WithAttr(ctx, argsToAttrSlice(args)...)
}

// WithAttr returns a context with "attrs" added to any attributes already
// stored at [AttrsKey].
//
// Later attributes replace earlier ones with the same key. Empty groups are
// dropped.
func WithAttr(ctx context.Context, attrs ...slog.Attr) context.Context {
	if v, ok := ctx.Value(AttrsKey).(slog.Value); ok {
		attrs = append(slices.Clone(v.Group()), attrs...)
	}
	seen := make(map[string]struct{}, len(attrs))
	drop := func(a slog.Attr) bool {
		_, dup := seen[a.Key]
		seen[a.Key] = struct{}{}
		return dup || (a.Value.Kind() == slog.KindGroup && len(a.Value.Group()) == 0)
	}
	slices.Reverse(attrs)
	attrs = slices.DeleteFunc(attrs, drop)
	slices.Reverse(attrs)
	return context.WithValue(ctx, AttrsKey, slog.GroupValue(attrs...))
}

// WithLevel returns a context that enables records at or above "l",
// regardless of the handler's own level.
func WithLevel(ctx context.Context, l slog.Leveler) context.Context {
	return context.WithValue(ctx, LevelKey, l)
}

// Vulnerability returns a context annotated with the vulnerability "id".
func Vulnerability(ctx context.Context, id string) context.Context {
	return WithAttr(ctx, slog.String("vulnerability", id))
}

// Selector returns a context annotated with the selector "name" and the
// vector family it is being run over.
func Selector(ctx context.Context, name, family string) context.Context {
	return WithAttr(ctx,
		slog.String("selector", name),
		slog.String("family", family),
	)
}

// The following follows [log/slog]'s handling of loosely typed arguments.

func argsToAttrSlice(args []any) []slog.Attr {
	var (
		attr  slog.Attr
		attrs []slog.Attr
	)
	for len(args) > 0 {
		attr, args = argsToAttr(args)
		attrs = append(attrs, attr)
	}
	return attrs
}

func argsToAttr(args []any) (slog.Attr, []any) {
	const badKey = `!BADKEY`
	switch x := args[0].(type) {
	case string:
		if len(args) == 1 {
			return slog.String(badKey, x), nil
		}
		return slog.Any(x, args[1]), args[2:]
	case slog.Attr:
		return x, args[1:]
	default:
		return slog.Any(badKey, x), args[1:]
	}
}
