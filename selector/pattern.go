package selector

import (
	"strings"
)

// Pattern matches a single Source field.
//
// The empty Pattern and "*" match anything. A Pattern with a leading "!"
// matches anything except the rest of the Pattern. Otherwise, the Pattern
// matches a field equal to it, ignoring case.
type Pattern string

// Wildcard is the Pattern that matches anything.
const Wildcard Pattern = "*"

// Not returns the Pattern matching anything except "s".
func Not(s string) Pattern { return Pattern("!" + s) }

// Negated reports whether the Pattern is an exclusion.
func (p Pattern) Negated() bool {
	return strings.HasPrefix(string(p), "!")
}

// Wild reports whether the Pattern matches anything.
func (p Pattern) Wild() bool {
	return p == "" || p == Wildcard
}

// Match reports whether the Pattern matches the field "s".
func (p Pattern) Match(s string) bool {
	switch {
	case p.Wild():
		return true
	case p.Negated():
		return !Pattern(p[1:]).Match(s)
	}
	return strings.EqualFold(string(p), s)
}

// MatchAll reports whether the list of Patterns "ps" matches "s".
//
// An empty list matches anything. Otherwise, "s" must match at least one
// positive Pattern (if there are any) and every negated Pattern.
func MatchAll(ps []Pattern, s string) bool {
	var pos, hit bool
	for _, p := range ps {
		if p.Negated() {
			if !p.Match(s) {
				return false
			}
			continue
		}
		pos = true
		hit = hit || p.Match(s)
	}
	return !pos || hit
}

// Entry matches a Source field-wise.
type Entry struct {
	Entity    []Pattern `json:"entity,omitempty" yaml:"entity,omitempty"`
	Role      []Pattern `json:"role,omitempty" yaml:"role,omitempty"`
	Authority []Pattern `json:"authority,omitempty" yaml:"authority,omitempty"`
}

// Match reports whether every field of "s" is matched by the corresponding
// Pattern list.
func (e *Entry) Match(s Source) bool {
	return MatchAll(e.Entity, s.Entity) &&
		MatchAll(e.Role, s.Role) &&
		MatchAll(e.Authority, s.Authority)
}

// ParseEntry parses the "entity/role/authority" shorthand for an Entry.
//
// Each field is a ","-separated list of Patterns. Missing trailing fields
// match anything; "NVD" is equivalent to "NVD/*/*".
func ParseEntry(s string) Entry {
	var e Entry
	fs := strings.SplitN(s, "/", 3)
	dst := []*[]Pattern{&e.Entity, &e.Role, &e.Authority}
	for i, f := range fs {
		for p := range strings.SplitSeq(f, ",") {
			p = strings.TrimSpace(p)
			if Pattern(p).Wild() {
				continue
			}
			*dst[i] = append(*dst[i], Pattern(p))
		}
	}
	return e
}

// String returns the shorthand form of the Entry; see [ParseEntry].
func (e Entry) String() string {
	var b strings.Builder
	for i, ps := range [][]Pattern{e.Entity, e.Role, e.Authority} {
		if i != 0 {
			b.WriteByte('/')
		}
		if len(ps) == 0 {
			b.WriteString(string(Wildcard))
			continue
		}
		for j, p := range ps {
			if j != 0 {
				b.WriteByte(',')
			}
			b.WriteString(string(p))
		}
	}
	return b.String()
}

// MatchAny reports whether any of the Entries match "s".
func MatchAny(es []Entry, s Source) bool {
	for i := range es {
		if es[i].Match(s) {
			return true
		}
	}
	return false
}
