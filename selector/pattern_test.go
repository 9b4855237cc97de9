package selector

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPattern(t *testing.T) {
	tt := []struct {
		Pattern Pattern
		In      string
		Want    bool
	}{
		{"", "NVD", true},
		{"*", "NVD", true},
		{"NVD", "NVD", true},
		{"nvd", "NVD", true},
		{"NVD", "GHSA", false},
		{"!NVD", "GHSA", true},
		{"!NVD", "nvd", false},
		{"!*", "NVD", false},
	}
	for _, tc := range tt {
		if got, want := tc.Pattern.Match(tc.In), tc.Want; got != want {
			t.Errorf("%q.Match(%q): got: %v, want: %v", tc.Pattern, tc.In, got, want)
		}
	}
}

func TestMatchAll(t *testing.T) {
	tt := []struct {
		Name     string
		Patterns []Pattern
		In       string
		Want     bool
	}{
		{"Empty", nil, "x", true},
		{"AnyPositive", []Pattern{"a", "b"}, "b", true},
		{"NoPositive", []Pattern{"a", "b"}, "c", false},
		{"OnlyNegated", []Pattern{"!a", "!b"}, "c", true},
		{"Excluded", []Pattern{"!a", "!b"}, "b", false},
		{"Mixed", []Pattern{"*", "!a"}, "a", false},
		{"MixedHit", []Pattern{"*", "!a"}, "c", true},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			if got, want := MatchAll(tc.Patterns, tc.In), tc.Want; got != want {
				t.Errorf("got: %v, want: %v", got, want)
			}
		})
	}
}

func TestEntry(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		tt := []struct {
			In     string
			Want   Entry
			String string
		}{
			{
				In:     "NVD",
				Want:   Entry{Entity: []Pattern{"NVD"}},
				String: "NVD/*/*",
			},
			{
				In:     "NVD/*/!NVD",
				Want:   Entry{Entity: []Pattern{"NVD"}, Authority: []Pattern{"!NVD"}},
				String: "NVD/*/!NVD",
			},
			{
				In:     "GHSA, OSV/CNA/*",
				Want:   Entry{Entity: []Pattern{"GHSA", "OSV"}, Role: []Pattern{"CNA"}},
				String: "GHSA,OSV/CNA/*",
			},
		}
		for _, tc := range tt {
			got := ParseEntry(tc.In)
			if !cmp.Equal(got, tc.Want) {
				t.Error(cmp.Diff(got, tc.Want))
			}
			if got, want := got.String(), tc.String; got != want {
				t.Errorf("got: %q, want: %q", got, want)
			}
		}
	})
	t.Run("Match", func(t *testing.T) {
		e := ParseEntry("NVD/*/!NVD")
		tt := []struct {
			Source Source
			Want   bool
		}{
			{Source{"NVD", "CNA", "Red Hat"}, true},
			{Source{"NVD", "CNA", "NVD"}, false},
			{Source{"GHSA", Any, Any}, false},
		}
		for _, tc := range tt {
			if got, want := e.Match(tc.Source), tc.Want; got != want {
				t.Errorf("%v: got: %v, want: %v", tc.Source, got, want)
			}
		}
		if !MatchAny([]Entry{ParseEntry("GHSA"), e}, Source{"GHSA", Any, Any}) {
			t.Error("expected MatchAny to match")
		}
		if MatchAny(nil, Source{"GHSA", Any, Any}) {
			t.Error("expected empty entry list to match nothing")
		}
	})
}

func TestSource(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		tt := []struct {
			In   string
			Want Source
		}{
			{"NVD/CNA/NVD", Source{"NVD", "CNA", "NVD"}},
			{"GHSA", Source{"GHSA", Any, Any}},
			{"NVD/CNA", Source{"NVD", "CNA", Any}},
		}
		for _, tc := range tt {
			got, err := ParseSource(tc.In)
			if err != nil {
				t.Errorf("%q: %v", tc.In, err)
				continue
			}
			if !cmp.Equal(got, tc.Want) {
				t.Error(cmp.Diff(got, tc.Want))
			}
		}
	})
	t.Run("Error", func(t *testing.T) {
		for _, in := range []string{"", "a/b/c/d", "NVD//NVD"} {
			if _, err := ParseSource(in); err == nil {
				t.Errorf("%q: expected error", in)
			}
		}
	})
}
