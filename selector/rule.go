package selector

import (
	"cmp"
	"fmt"

	"github.com/quay/cvssmerge/cvss"
)

// Method is how a [Rule] combines its matched vectors with the working
// vector.
type Method uint8

// Known methods.
const (
	// MethodAll overlays every defined metric of every match, in order.
	MethodAll Method = iota
	// MethodLower overlays the single match that results in the lowest
	// score, if that lowers the score.
	MethodLower
	// MethodHigher overlays the single match that results in the highest
	// score, if that raises the score.
	MethodHigher
	// MethodLowerMetric takes the least severe value of every metric.
	MethodLowerMetric
	// MethodHigherMetric takes the most severe value of every metric.
	MethodHigherMetric
)

var methodNames = [...]string{
	MethodAll:          "ALL",
	MethodLower:        "LOWER",
	MethodHigher:       "HIGHER",
	MethodLowerMetric:  "LOWER_METRIC",
	MethodHigherMetric: "HIGHER_METRIC",
}

// String implements [fmt.Stringer].
func (m Method) String() string { return enumString(methodNames[:], int(m), "Method") }

// MarshalText implements [encoding.TextMarshaler].
func (m Method) MarshalText() ([]byte, error) {
	if int(m) >= len(methodNames) {
		return nil, fmt.Errorf("selector: unknown method %d", uint8(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Method) UnmarshalText(b []byte) error {
	n, err := parseEnum("method", methodNames[:], string(b))
	if err != nil {
		return err
	}
	*m = Method(n)
	return nil
}

// ParseMethod parses the name of a Method.
func ParseMethod(s string) (Method, error) {
	var m Method
	return m, m.UnmarshalText([]byte(s))
}

// Rule is a single step of a [Selector].
type Rule struct {
	Method Method
	// Entries select the tagged vectors the rule applies to. A vector
	// matches if its source matches any Entry.
	Entries    []Entry
	Collectors []Collector
}

// Matches returns the members of "in" matched by the Rule, preserving order.
func (r *Rule) matches(in Input) []cvss.Vector {
	var out []cvss.Vector
	for _, t := range in {
		if MatchAny(r.Entries, t.MatchSource()) {
			out = append(out, t.Vector)
		}
	}
	return out
}

// Apply combines "ms" with the working vector "w" and returns the new working
// vector. It does not modify its arguments.
func (r *Rule) apply(w cvss.Vector, ms []cvss.Vector) (cvss.Vector, error) {
	if len(ms) == 0 {
		return w, nil
	}
	switch r.Method {
	case MethodAll:
		var err error
		for _, m := range ms {
			w, err = cvss.Overlay(w, m)
			if err != nil {
				return nil, err
			}
		}
		return w, nil
	case MethodLower:
		return pick(w, ms, -1)
	case MethodHigher:
		return pick(w, ms, 1)
	case MethodLowerMetric:
		return cvss.LeastSevere(append([]cvss.Vector{w}, ms...)...)
	case MethodHigherMetric:
		return cvss.MostSevere(append([]cvss.Vector{w}, ms...)...)
	}
	return nil, fmt.Errorf("selector: unknown method %v", r.Method)
}

// Pick overlays every match onto "w" and keeps the candidate whose score is
// best in the direction of "dir": -1 for lowest, 1 for highest. Ties are broken
// by the canonical string, so the result doesn't depend on the order of "ms".
//
// The best candidate replaces "w" if "w" is absent or can't be scored, or if
// the candidate's score is strictly better than that of "w".
func pick(w cvss.Vector, ms []cvss.Vector, dir int) (cvss.Vector, error) {
	var best cvss.Vector
	var bestScore float64
	for _, m := range ms {
		c, err := cvss.Overlay(w, m)
		if err != nil {
			return nil, err
		}
		s := c.Score()
		if best == nil {
			best, bestScore = c, s
			continue
		}
		switch d := cmp.Compare(s, bestScore) * dir; {
		case d > 0, d == 0 && c.String() < best.String():
			best, bestScore = c, s
		}
	}
	if w == nil || !w.Complete() {
		return best, nil
	}
	if cmp.Compare(bestScore, w.Score())*dir > 0 {
		return best, nil
	}
	return w, nil
}
