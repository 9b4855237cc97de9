// Package selector reduces a set of tagged CVSS vectors to a single vector.
//
// A [Selector] is an ordered list of [Rule]s. Each Rule picks out the tagged
// vectors whose [Source] matches one of its [Entry] patterns and merges them
// into a working vector using its [Method]. Rules may record [Stats] through
// [Collector]s, and the Selector's evaluators may veto the result or fail once
// all Rules have run.
//
// Selectors operate on one vector [cvss.Family] at a time; see
// [Selector.SelectAll] for running a Selector over a mixed Input.
package selector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quay/cvssmerge"
	"github.com/quay/cvssmerge/cvss"
	"github.com/quay/cvssmerge/internal/log"
)

var (
	ruleCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvssmerge",
			Subsystem: "selector",
			Name:      "rule_applications_total",
			Help:      "Total number of rules that matched at least one vector.",
		},
		[]string{"selector", "method"},
	)
	vetoCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvssmerge",
			Subsystem: "selector",
			Name:      "evaluator_triggers_total",
			Help:      "Total number of evaluators that triggered, by action.",
		},
		[]string{"selector", "action"},
	)
)

// Selector is an ordered chain of Rules and the evaluators run on the result.
//
// Selectors are not modified by any function in this package and may be shared
// between goroutines.
type Selector struct {
	Name             string
	Rules            []Rule
	StatsEvaluators  []StatsEvaluator
	VectorEvaluators []VectorEvaluator
}

// RuleTrace describes the effect of a single Rule.
type RuleTrace struct {
	Method  Method `json:"method"`
	Matched int    `json:"matched"`
	Applied bool   `json:"applied"`
}

// Result is the outcome of running a Selector.
type Result struct {
	// Vector is the selected vector. It is nil if no Rule matched anything or
	// if an evaluator vetoed the result.
	Vector cvss.Vector
	Stats  Stats
	// Vetoed is set if an evaluator discarded the vector. VetoedBy describes
	// the evaluator.
	Vetoed   bool
	VetoedBy string
	Trace    []RuleTrace
}

// Validate reports whether every enumerated field of the Selector holds a
// known value.
func (s *Selector) Validate() error {
	for i, r := range s.Rules {
		if int(r.Method) >= len(methodNames) {
			return fmt.Errorf("rules[%d]: unknown method %v", i, r.Method)
		}
		if len(r.Entries) == 0 {
			return fmt.Errorf("rules[%d]: no entries", i)
		}
		for j, c := range r.Collectors {
			switch {
			case int(c.Provider) >= len(providerNames):
				return fmt.Errorf("rules[%d].collectors[%d]: unknown provider %v", i, j, c.Provider)
			case int(c.SetType) >= len(setTypeNames):
				return fmt.Errorf("rules[%d].collectors[%d]: unknown set type %v", i, j, c.SetType)
			case c.Attribute == "":
				return fmt.Errorf("rules[%d].collectors[%d]: missing attribute", i, j)
			}
		}
	}
	for i, e := range s.StatsEvaluators {
		switch {
		case int(e.Comparator) >= len(comparatorNames):
			return fmt.Errorf("stats_evaluators[%d]: unknown comparator %v", i, e.Comparator)
		case int(e.Action) >= len(actionNames):
			return fmt.Errorf("stats_evaluators[%d]: unknown action %v", i, e.Action)
		case e.Attribute == "":
			return fmt.Errorf("stats_evaluators[%d]: missing attribute", i)
		}
	}
	for i, e := range s.VectorEvaluators {
		switch {
		case int(e.Operation) >= len(operationNames):
			return fmt.Errorf("vector_evaluators[%d]: unknown operation %v", i, e.Operation)
		case int(e.Action) >= len(actionNames):
			return fmt.Errorf("vector_evaluators[%d]: unknown action %v", i, e.Action)
		}
	}
	return nil
}

// Select runs the Selector over "in".
//
// All vectors in "in" must be of the same [cvss.Family]. The order of "in" is
// not significant. A vetoed selection is not an error; it's reported via
// [Result.Vetoed].
func (s *Selector) Select(ctx context.Context, in Input) (Result, error) {
	const op = `selector.Select`
	in = in.Sorted()
	fs := in.Families()
	if len(fs) > 1 {
		return Result{}, &cvssmerge.Error{
			Op:      op,
			Kind:    cvssmerge.ErrInvalid,
			Message: fmt.Sprintf("%s: input has vectors of multiple families: %v", s.Name, fs),
		}
	}

	res := Result{
		Stats: make(Stats),
		Trace: make([]RuleTrace, 0, len(s.Rules)),
	}
	var w cvss.Vector
	for i := range s.Rules {
		r := &s.Rules[i]
		ms := r.matches(in)
		next, err := r.apply(w, ms)
		if err != nil {
			return Result{}, &cvssmerge.Error{
				Op:      op,
				Kind:    cvssmerge.ErrInternal,
				Message: fmt.Sprintf("%s: rule %d (%v)", s.Name, i, r.Method),
				Inner:   err,
			}
		}
		applied := !cvss.Equal(w, next)
		for j := range r.Collectors {
			r.Collectors[j].collect(res.Stats, len(ms), applied)
		}
		res.Trace = append(res.Trace, RuleTrace{
			Method:  r.Method,
			Matched: len(ms),
			Applied: applied,
		})
		if len(ms) == 0 {
			continue
		}
		ruleCounter.WithLabelValues(s.Name, r.Method.String()).Inc()
		slog.DebugContext(ctx, "rule applied",
			"rule", i,
			"method", r.Method,
			"matched", len(ms),
			"changed", applied,
			slog.Any("vector", next),
		)
		w = next
	}
	res.Vector = w

	for i := range s.StatsEvaluators {
		e := &s.StatsEvaluators[i]
		if !e.Triggered(res.Stats) {
			continue
		}
		if err := s.act(ctx, &res, e.Action, e.String()); err != nil {
			return Result{}, err
		}
		return res, nil
	}
	for i := range s.VectorEvaluators {
		e := &s.VectorEvaluators[i]
		if !e.Triggered(res.Vector) {
			continue
		}
		if err := s.act(ctx, &res, e.Action, e.String()); err != nil {
			return Result{}, err
		}
		return res, nil
	}
	return res, nil
}

// Act carries out the Action of the triggered evaluator described by "desc".
func (s *Selector) act(ctx context.Context, res *Result, a Action, desc string) error {
	vetoCounter.WithLabelValues(s.Name, a.String()).Inc()
	slog.DebugContext(ctx, "evaluator triggered", "evaluator", desc, slog.Any("stats", res.Stats))
	switch a {
	case ReturnNull:
		res.Vector = nil
		res.Vetoed = true
		res.VetoedBy = desc
		return nil
	case Fail:
		return &cvssmerge.Error{
			Op:      `selector.Select`,
			Kind:    cvssmerge.ErrPrecondition,
			Message: fmt.Sprintf("%s: evaluator %q triggered", s.Name, desc),
		}
	}
	panic(fmt.Sprintf("programmer error: unknown action %d", a))
}

// SelectAll runs the Selector once for every vector family in "in".
//
// Families that produce no vector, including vetoed ones, are present in the
// returned map with a nil [Result.Vector].
func (s *Selector) SelectAll(ctx context.Context, in Input) (map[cvss.Family]Result, error) {
	out := make(map[cvss.Family]Result, len(cvss.Families))
	for _, f := range in.Families() {
		ctx := log.Selector(ctx, s.Name, f.String())
		res, err := s.Select(ctx, in.Family(f))
		if err != nil {
			return nil, fmt.Errorf("family %v: %w", f, err)
		}
		out[f] = res
	}
	return out, nil
}
