package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/quay/cvssmerge"
	"github.com/quay/cvssmerge/reconcile"
	"github.com/quay/cvssmerge/selector"
	"github.com/quay/cvssmerge/severity"
)

// Compile validates "doc" and builds the Engine it describes.
//
// Every invalid field is reported, each prefixed with its path in the
// Document. The returned error is of kind [cvssmerge.ErrConfig].
func Compile(doc *Document) (*reconcile.Engine, error) {
	var errs *multierror.Error
	e := reconcile.New()

	if s := doc.Selectors.Initial; s != nil {
		sel, err := compileSelector("selectors.initial", selector.InitialName, s)
		errs = multierror.Append(errs, err)
		e.Initial = sel
	}
	if s := doc.Selectors.Context; s != nil {
		sel, err := compileSelector("selectors.context", selector.ContextName, s)
		errs = multierror.Append(errs, err)
		e.Context = sel
	}
	if len(doc.Policies) != 0 {
		e.Policies = make([]reconcile.Policy, len(doc.Policies))
		for i, s := range doc.Policies {
			p, err := reconcile.ParsePolicy(s)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("policies[%d]: %w", i, err))
			}
			e.Policies[i] = p
		}
	}
	if doc.Ranges != "" {
		rs, err := severity.Parse(doc.Ranges)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("ranges: %w", err))
		}
		e.Ranges = rs
	}
	if doc.Concurrency < 0 {
		errs = multierror.Append(errs, fmt.Errorf("concurrency: must not be negative"))
	}
	e.Concurrency = doc.Concurrency

	if err := errs.ErrorOrNil(); err != nil {
		return nil, &cvssmerge.Error{
			Op:    `config.Compile`,
			Kind:  cvssmerge.ErrConfig,
			Inner: err,
		}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func compileSelector(path, name string, doc *Selector) (*selector.Selector, error) {
	var errs *multierror.Error
	fail := func(f string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(path+"."+f, args...))
	}
	s := &selector.Selector{Name: name}

	if len(doc.Rules) == 0 {
		fail("rules: no rules")
	}
	for i, rd := range doc.Rules {
		var r selector.Rule
		if err := r.Method.UnmarshalText([]byte(rd.Method)); err != nil {
			fail("rules[%d].method: %w", i, err)
		}
		if len(rd.Entries) == 0 {
			fail("rules[%d].entries: no entries", i)
		}
		for j, ed := range rd.Entries {
			en, err := compileEntry(ed)
			if err != nil {
				fail("rules[%d].entries[%d]: %w", i, j, err)
			}
			r.Entries = append(r.Entries, en)
		}
		for j, cd := range rd.Collectors {
			var c selector.Collector
			var err error
			if c.Provider, err = selector.ParseProvider(cd.Provider); err != nil {
				fail("rules[%d].collectors[%d].provider: %w", i, j, err)
			}
			if c.SetType, err = selector.ParseSetType(cd.Set); err != nil {
				fail("rules[%d].collectors[%d].set: %w", i, j, err)
			}
			if c.Attribute = cd.Attribute; c.Attribute == "" {
				fail("rules[%d].collectors[%d].attribute: missing", i, j)
			}
			r.Collectors = append(r.Collectors, c)
		}
		s.Rules = append(s.Rules, r)
	}
	for i, ed := range doc.StatsEvaluators {
		var e selector.StatsEvaluator
		var err error
		if e.Attribute = ed.Attribute; e.Attribute == "" {
			fail("stats_evaluators[%d].attribute: missing", i)
		}
		if e.Comparator, err = selector.ParseComparator(ed.Comparator); err != nil {
			fail("stats_evaluators[%d].comparator: %w", i, err)
		}
		if e.Action, err = selector.ParseAction(ed.Action); err != nil {
			fail("stats_evaluators[%d].action: %w", i, err)
		}
		e.Value = ed.Value
		s.StatsEvaluators = append(s.StatsEvaluators, e)
	}
	for i, ed := range doc.VectorEvaluators {
		var e selector.VectorEvaluator
		var err error
		if e.Operation, err = selector.ParseOperation(ed.Operation); err != nil {
			fail("vector_evaluators[%d].operation: %w", i, err)
		}
		if e.Action, err = selector.ParseAction(ed.Action); err != nil {
			fail("vector_evaluators[%d].action: %w", i, err)
		}
		e.Invert = ed.Invert
		s.VectorEvaluators = append(s.VectorEvaluators, e)
	}
	return s, errs.ErrorOrNil()
}

func compileEntry(doc Entry) (selector.Entry, error) {
	if doc.Shorthand != "" {
		if len(doc.Entity)+len(doc.Role)+len(doc.Authority) != 0 {
			return selector.Entry{}, fmt.Errorf("both shorthand and fields set")
		}
		return selector.ParseEntry(doc.Shorthand), nil
	}
	var e selector.Entry
	for _, f := range []struct {
		dst *[]selector.Pattern
		src []string
	}{
		{&e.Entity, doc.Entity},
		{&e.Role, doc.Role},
		{&e.Authority, doc.Authority},
	} {
		for _, p := range f.src {
			if p == "" || p == "!" {
				return selector.Entry{}, fmt.Errorf("empty pattern")
			}
			*f.dst = append(*f.dst, selector.Pattern(p))
		}
	}
	return e, nil
}
