// Package reconcile chooses the single CVSS vector to expose for a
// vulnerability.
//
// An [Engine] runs two selectors over a vulnerability's tagged vectors: the
// "initial" selector over provider data and the "context" selector, which
// additionally applies assessments. Both are run once per vector family. The
// Engine's [Policy] list then picks one family's result, preferring the
// context results and falling back to the initial results only if the context
// selector produced nothing for any family.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/quay/cvssmerge"
	"github.com/quay/cvssmerge/cvss"
	"github.com/quay/cvssmerge/internal/log"
	"github.com/quay/cvssmerge/selector"
	"github.com/quay/cvssmerge/severity"
)

// Engine reconciles tagged vectors into a single scored vector.
//
// An Engine must not be modified once it's in use; it's safe to call its
// methods concurrently.
type Engine struct {
	// Initial and Context are the selectors run over provider data and over
	// provider data with assessments. If nil, the selectors returned by
	// selector.DefaultSelectors are used.
	Initial *selector.Selector
	Context *selector.Selector
	// Policies are tried in order. If empty, DefaultPolicies is used.
	Policies []Policy
	// Ranges classify the final score. If empty, severity.DefaultRanges is
	// used.
	Ranges severity.Ranges
	// Concurrency bounds the number of concurrent evaluations done by
	// EvaluateAll. Values less than 1 mean GOMAXPROCS.
	Concurrency int
}

// New returns an Engine using the default selectors, policies and ranges.
func New() *Engine {
	initial, context := selector.DefaultSelectors()
	return &Engine{
		Initial:  initial,
		Context:  context,
		Policies: slices.Clone(DefaultPolicies),
		Ranges:   severity.DefaultRanges,
	}
}

// Validate reports whether the Engine is usable.
func (e *Engine) Validate() error {
	const op = `reconcile.Validate`
	for _, s := range []struct {
		name string
		sel  *selector.Selector
	}{
		{"initial", e.Initial},
		{"context", e.Context},
	} {
		if s.sel == nil {
			continue
		}
		if err := s.sel.Validate(); err != nil {
			return &cvssmerge.Error{Op: op, Kind: cvssmerge.ErrConfig, Message: s.name + " selector", Inner: err}
		}
	}
	for i, p := range e.Policies {
		if int(p) >= len(policyNames) {
			return &cvssmerge.Error{Op: op, Kind: cvssmerge.ErrConfig, Message: fmt.Sprintf("policies[%d]: unknown policy %v", i, p)}
		}
	}
	if len(e.Ranges) != 0 {
		if err := e.Ranges.Validate(); err != nil {
			return &cvssmerge.Error{Op: op, Kind: cvssmerge.ErrConfig, Message: "ranges", Inner: err}
		}
	}
	return nil
}

// DefaultSelectors is shared by every Engine missing a selector.
var defaultSelectors = sync.OnceValues(selector.DefaultSelectors)

func (e *Engine) selectors() (initial, context *selector.Selector) {
	initial, context = e.Initial, e.Context
	if initial == nil || context == nil {
		di, dc := defaultSelectors()
		if initial == nil {
			initial = di
		}
		if context == nil {
			context = dc
		}
	}
	return initial, context
}

func (e *Engine) policies() []Policy {
	if len(e.Policies) == 0 {
		return DefaultPolicies
	}
	return e.Policies
}

func (e *Engine) ranges() severity.Ranges {
	if len(e.Ranges) == 0 {
		return severity.DefaultRanges
	}
	return e.Ranges
}

// Where the chosen vector came from.
const (
	SourceContext = "context"
	SourceInitial = "initial"
)

// Report is the result of evaluating a single vulnerability.
type Report struct {
	ID string `json:"id"`
	// Vector is the chosen vector, or nil if no selector produced one. The
	// fields following it are only populated if Vector is not nil.
	Vector   cvss.Vector     `json:"vector"`
	Family   cvss.Family     `json:"family,omitempty"`
	Score    *float64        `json:"score,omitempty"`
	Severity *severity.Range `json:"severity,omitempty"`
	Policy   *Policy         `json:"policy,omitempty"`
	// Source is SourceContext or SourceInitial.
	Source string         `json:"source,omitempty"`
	Stats  selector.Stats `json:"stats,omitempty"`

	// Per-family selector results.
	Initial map[cvss.Family]Outcome `json:"initial"`
	Context map[cvss.Family]Outcome `json:"context"`
}

// Scored reports whether a vector was chosen.
func (r *Report) Scored() bool { return r.Vector != nil }

// Outcome is the result of a single selector run, for reporting.
type Outcome struct {
	Vector   cvss.Vector          `json:"vector"`
	Score    *float64             `json:"score,omitempty"`
	Vetoed   bool                 `json:"vetoed,omitempty"`
	VetoedBy string               `json:"vetoed_by,omitempty"`
	Stats    selector.Stats       `json:"stats,omitempty"`
	Trace    []selector.RuleTrace `json:"trace,omitempty"`
}

func outcomes(rs map[cvss.Family]selector.Result) map[cvss.Family]Outcome {
	out := make(map[cvss.Family]Outcome, len(rs))
	for f, r := range rs {
		o := Outcome{
			Vector:   r.Vector,
			Vetoed:   r.Vetoed,
			VetoedBy: r.VetoedBy,
			Stats:    r.Stats,
			Trace:    r.Trace,
		}
		if r.Vector != nil {
			s := r.Vector.Score()
			o.Score = &s
		}
		out[f] = o
	}
	return out
}

func anyVector(rs map[cvss.Family]selector.Result) bool {
	for _, r := range rs {
		if r.Vector != nil {
			return true
		}
	}
	return false
}

// Evaluate reconciles the tagged vectors "in" for the vulnerability "id".
//
// A Report without a vector is not an error: it means no selector produced
// usable data.
func (e *Engine) Evaluate(ctx context.Context, id string, in selector.Input) (_ *Report, err error) {
	start := time.Now()
	ctx = log.Vulnerability(ctx, id)
	ctx, span := tracer.Start(ctx, "Evaluate",
		trace.WithAttributes(attribute.String("vulnerability", id)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	outcome := "error"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "evaluation error")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		attrs := metric.WithAttributes(attribute.String("outcome", outcome))
		evaluationCount.Add(ctx, 1, attrs)
		evaluationDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}()

	is, cs := e.selectors()
	initial, err := is.SelectAll(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %s: initial selector: %w", id, err)
	}
	contextual, err := cs.SelectAll(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %s: context selector: %w", id, err)
	}
	r := &Report{
		ID:      id,
		Initial: outcomes(initial),
		Context: outcomes(contextual),
	}

	src, rs := SourceContext, contextual
	if !anyVector(contextual) {
		src, rs = SourceInitial, initial
	}
	for _, p := range e.policies() {
		f, ok := p.choose(rs)
		if !ok {
			slog.DebugContext(ctx, "policy chose nothing", "policy", p)
			continue
		}
		res := rs[f]
		score := res.Vector.Score()
		rng, err := e.ranges().Classify(score)
		if err != nil {
			return nil, fmt.Errorf("reconcile: %s: %w", id, err)
		}
		r.Vector = res.Vector
		r.Family = f
		r.Score = &score
		r.Severity = &rng
		r.Policy = &p
		r.Source = src
		r.Stats = res.Stats
		break
	}

	if !r.Scored() {
		outcome = "unscored"
		slog.DebugContext(ctx, "no vector chosen", "families", in.Families())
		return r, nil
	}
	outcome = "scored"
	span.SetAttributes(
		attribute.String("cvss.vector", r.Vector.String()),
		attribute.Float64("cvss.score", *r.Score),
	)
	slog.DebugContext(ctx, "vector chosen",
		"policy", r.Policy,
		"source", src,
		"vector", r.Vector,
		"score", *r.Score,
		"severity", r.Severity.Label,
	)
	return r, nil
}

// EvaluateAll calls Evaluate for every vulnerability in "in", concurrently.
//
// The first error cancels the remaining evaluations and is returned.
func (e *Engine) EvaluateAll(ctx context.Context, in map[string]selector.Input) (map[string]*Report, error) {
	lim := e.Concurrency
	if lim < 1 {
		lim = runtime.GOMAXPROCS(0)
	}
	ids := slices.Sorted(maps.Keys(in))
	out := make([]*Report, len(ids))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(lim)
	for i, id := range ids {
		eg.Go(func() error {
			if err := context.Cause(ctx); err != nil {
				return err
			}
			r, err := e.Evaluate(ctx, id, in[id])
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m := make(map[string]*Report, len(ids))
	for i, id := range ids {
		m[id] = out[i]
	}
	return m, nil
}
