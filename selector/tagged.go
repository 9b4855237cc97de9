package selector

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/quay/cvssmerge/cvss"
)

// Source identifies who published a vector and in what capacity.
type Source struct {
	// Entity is the publishing organization, e.g. "NVD" or "GHSA".
	Entity string `json:"entity" yaml:"entity"`
	// Role is the capacity the entity published in, e.g. "CNA".
	Role string `json:"role" yaml:"role"`
	// Authority is the entity the vector speaks for, e.g. the CNA that
	// originally assigned the vector.
	Authority string `json:"authority" yaml:"authority"`
}

// String returns the "entity/role/authority" form of the Source.
func (s Source) String() string {
	return s.Entity + "/" + s.Role + "/" + s.Authority
}

// ParseSource parses the "entity/role/authority" form of a Source.
//
// Missing trailing fields are set to "any"; a bare "NVD" is "NVD/any/any".
func ParseSource(s string) (Source, error) {
	if s == "" {
		return Source{}, fmt.Errorf("selector: empty source")
	}
	fs := strings.Split(s, "/")
	if len(fs) > 3 {
		return Source{}, fmt.Errorf("selector: bad source %q: too many fields", s)
	}
	for len(fs) < 3 {
		fs = append(fs, Any)
	}
	for _, f := range fs {
		if f == "" {
			return Source{}, fmt.Errorf("selector: bad source %q: empty field", s)
		}
	}
	return Source{Entity: fs[0], Role: fs[1], Authority: fs[2]}, nil
}

// Any is the placeholder for a Source field that was not specified.
const Any = "any"

// Intent describes how a manually entered assessment vector should be applied.
type Intent uint8

// Known intents.
const (
	// None marks provider data.
	None Intent = iota
	// Replace applies the assessment unconditionally.
	Replace
	// Lower applies the assessment only if it lowers the score.
	Lower
	// Higher applies the assessment only if it raises the score.
	Higher
	// LowerMetric applies each assessed metric only if it is less severe.
	LowerMetric
	// HigherMetric applies each assessed metric only if it is more severe.
	HigherMetric
)

var intentNames = [...]string{
	None:         "NONE",
	Replace:      "REPLACE",
	Lower:        "LOWER",
	Higher:       "HIGHER",
	LowerMetric:  "LOWER_METRIC",
	HigherMetric: "HIGHER_METRIC",
}

// The entities assessment vectors are published under, by Intent.
const (
	AssessmentEntity             = "Assessment"
	AssessmentLowerEntity        = "Assessment-Lower"
	AssessmentHigherEntity       = "Assessment-Higher"
	AssessmentLowerMetricEntity  = "Assessment-LowerMetric"
	AssessmentHigherMetricEntity = "Assessment-HigherMetric"
)

var intentEntities = [...]string{
	Replace:      AssessmentEntity,
	Lower:        AssessmentLowerEntity,
	Higher:       AssessmentHigherEntity,
	LowerMetric:  AssessmentLowerMetricEntity,
	HigherMetric: AssessmentHigherMetricEntity,
}

// String implements [fmt.Stringer].
func (i Intent) String() string {
	if int(i) < len(intentNames) {
		return intentNames[i]
	}
	return fmt.Sprintf("Intent(%d)", uint8(i))
}

// Entity reports the entity assessment vectors with this intent are published
// under. It reports the empty string for [None].
func (i Intent) Entity() string {
	if int(i) < len(intentEntities) {
		return intentEntities[i]
	}
	return ""
}

// MarshalText implements [encoding.TextMarshaler].
func (i Intent) MarshalText() ([]byte, error) {
	if int(i) >= len(intentNames) {
		return nil, fmt.Errorf("selector: unknown intent %d", uint8(i))
	}
	return []byte(intentNames[i]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
//
// The empty string is [None].
func (i *Intent) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = None
		return nil
	}
	n, err := parseEnum("intent", intentNames[:], string(b))
	if err != nil {
		return err
	}
	*i = Intent(n)
	return nil
}

// Tagged is a Vector annotated with its provenance.
type Tagged struct {
	Vector   cvss.Vector
	Source   Source
	Override Intent
}

// Assessment returns a Tagged for a manually entered vector.
//
// The Source's Entity is the one for "intent"; see [Intent.Entity].
func Assessment(v cvss.Vector, intent Intent) Tagged {
	if intent == None {
		intent = Replace
	}
	return Tagged{
		Vector:   v,
		Source:   Source{Entity: intent.Entity(), Role: Any, Authority: Any},
		Override: intent,
	}
}

// MatchSource reports the Source used for matching.
//
// For assessments, the Entity is always the one for the Override intent, so
// rules can select assessments by intent.
func (t Tagged) MatchSource() Source {
	s := t.Source
	if t.Override != None {
		s.Entity = t.Override.Entity()
	}
	return s
}

// Input is the set of tagged vectors for a single vulnerability.
//
// The order of an Input is not significant; see [Input.Sorted].
type Input []Tagged

// Families reports the vector families present, oldest first.
func (in Input) Families() []cvss.Family {
	seen := make(map[cvss.Family]bool, len(cvss.Families))
	for _, t := range in {
		if t.Vector != nil {
			seen[t.Vector.Version().Family()] = true
		}
	}
	var out []cvss.Family
	for _, f := range cvss.Families {
		if seen[f] {
			out = append(out, f)
		}
	}
	return out
}

// Family returns the subset of the Input with vectors of family "f".
func (in Input) Family(f cvss.Family) Input {
	var out Input
	for _, t := range in {
		if t.Vector != nil && t.Vector.Version().Family() == f {
			out = append(out, t)
		}
	}
	return out
}

// Sorted returns a copy of the Input in a canonical order: by match source,
// then by canonical vector string. Nil vectors are dropped.
func (in Input) Sorted() Input {
	out := slices.DeleteFunc(slices.Clone(in), func(t Tagged) bool { return t.Vector == nil })
	slices.SortStableFunc(out, func(a, b Tagged) int {
		return cmp.Or(
			cmp.Compare(a.MatchSource().String(), b.MatchSource().String()),
			cmp.Compare(a.Vector.String(), b.Vector.String()),
			cmp.Compare(a.Override, b.Override),
		)
	})
	return out
}

// ParseEnum returns the index of "s" in "names", ignoring case.
func parseEnum(kind string, names []string, s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "_")
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("selector: unknown %s %q", kind, s)
}
