// Package cvss implements v2.0, v3.0, v3.1, and v4.0 CVSS vectors and scoring.
//
// The primary purpose of this package is to parse CVSS vectors, use the parsed
// representation to calculate the numerical score, and produce the
// canonicalized representation of the vector. Vectors from different sources
// can be combined with [Overlay], [MostSevere], and [LeastSevere].
//
// # Parsing
//
// Parsing is lenient: unknown metrics are ignored and unknown values are
// treated as "Not Defined". Vectors missing base metrics parse successfully,
// but report false from [Vector.Complete] and score 0.
//
// # CVSS v2.0
//
// Metrics and scoring is implemented as laid out in the [v2.0 specification].
// Vectors are accepted with or without surrounding parentheses or a "CVSS:2.0/"
// prefix, and are emitted without either.
//
// # CVSS v3.0
//
// Metrics and scoring is implemented as laid out in the [v3.0 specification].
//
// # CVSS v3.1
//
// Metrics and scoring is implemented as laid out in the [v3.1 specification].
//
// # CVSS v4.0
//
// Metrics and scoring is implemented as laid out in the [v4.0 specification].
// The ordering emitted is as specified in revision 1.1, not 1.0.
//
// The v4 scoring system is not a closed-form equation; see [V4.Score] for a
// description. Where the specification is unclear, the FIRST calculator's
// behavior is followed.
//
// [v2.0 specification]: https://www.first.org/cvss/v2/guide
// [v3.0 specification]: https://www.first.org/cvss/v3-0/
// [v3.1 specification]: https://www.first.org/cvss/v3-1/
// [v4.0 specification]: https://www.first.org/cvss/v4-0/
package cvss

import (
	"encoding"
	"errors"
	"fmt"
	"strings"

	"github.com/quay/cvssmerge"
)

/*
This package is organized according to the CVSS version;
all the needed functionality specific to a version should be grouped into files with a "cvss_vN" prefix, where "N" is the major version number.

Every version describes its metrics with a schema: a table of metricDef in canonical order.
Vectors are fixed-size arrays of Value indexed by the version's Metric type.
*/
var internalDoc = struct{}{}

// ErrMalformedVector is reported when a vector is invalid in some way.
var ErrMalformedVector = errors.New("malformed vector")

// Value is a "packed" representation of the value of a metric.
//
// The zero Value is "Not Defined". Other Values are one more than the index
// into the metric's list of values, which is ordered from most to least
// severe. That is, for the same metric, a smaller nonzero Value is at least as
// severe as a larger one.
type Value uint8

// ValueUnset is reported when a metric is not defined in a Vector.
const ValueUnset = Value(0)

// GoString implements [fmt.GoStringer].
func (v Value) GoString() string {
	if v == ValueUnset {
		return "Value(Unset)"
	}
	return fmt.Sprintf("Value(%d)", uint8(v))
}

// Version is a CVSS specification version.
type Version uint8

// Known versions.
const (
	VersionUnknown Version = iota
	Version20
	Version30
	Version31
	Version40
)

// String implements [fmt.Stringer].
func (v Version) String() string {
	switch v {
	case Version20:
		return "2.0"
	case Version30:
		return "3.0"
	case Version31:
		return "3.1"
	case Version40:
		return "4.0"
	}
	return "unknown"
}

// Family reports the Family the Version belongs to.
func (v Version) Family() Family {
	switch v {
	case Version20:
		return FamilyV2
	case Version30, Version31:
		return FamilyV3
	case Version40:
		return FamilyV4
	}
	return FamilyUnknown
}

// Family is a group of versions that share a metric set.
//
// Vectors of the same Family can be combined.
type Family uint8

// Known families, in order of publication.
const (
	FamilyUnknown Family = iota
	FamilyV2
	FamilyV3
	FamilyV4
)

// Families is every known Family, oldest first.
var Families = []Family{FamilyV2, FamilyV3, FamilyV4}

// String implements [fmt.Stringer].
func (f Family) String() string {
	switch f {
	case FamilyV2:
		return "V2"
	case FamilyV3:
		return "V3"
	case FamilyV4:
		return "V4"
	}
	return "unknown"
}

// MarshalText implements [encoding.TextMarshaler].
func (f Family) MarshalText() ([]byte, error) {
	if f == FamilyUnknown {
		return nil, fmt.Errorf("cvss: unknown family %d", uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Family) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "V2":
		*f = FamilyV2
	case "V3":
		*f = FamilyV3
	case "V4":
		*f = FamilyV4
	default:
		return fmt.Errorf("cvss: unknown family %q", string(b))
	}
	return nil
}

// Vector is a CVSS vector of any version.
//
// The concrete types are [V2], [V3], and [V4]. Vectors are values; none of the
// functions in this package modify a Vector passed to them.
type Vector interface {
	encoding.TextMarshaler
	fmt.Stringer

	// Version reports the specification version of the vector.
	Version() Version
	// Score reports the most specific score for the Vector. The exact formula
	// used depends on what metrics are present.
	Score() float64
	// BaseScore reports the score using only base metrics.
	BaseScore() float64
	// Complete reports whether all base metrics are defined.
	Complete() bool
	// Len reports the number of metrics in the vector's version.
	Len() int
	// Get reports the Value of the metric at index "i".
	Get(i int) Value

	schema() *schema
	values() []Value
}

var (
	_ Vector = V2{}
	_ Vector = V3{}
	_ Vector = V4{}
)

// Parse parses a vector string of any version.
//
// The version is selected by the prefix: "CVSS:3.0/", "CVSS:3.1/", and
// "CVSS:4.0/" select the respective versions; strings without a "CVSS:" prefix
// (or with a "CVSS:2.0/" prefix) are v2 vectors.
func Parse(s string) (Vector, error) {
	var (
		v   Vector
		err error
	)
	switch ver := guessVersion(s); ver {
	case Version20:
		v, err = ParseV2(s)
	case Version30, Version31:
		v, err = ParseV3(s)
	case Version40:
		v, err = ParseV4(s)
	default:
		prefix, _, _ := strings.Cut(s, "/")
		err = fmt.Errorf("%w: unknown prefix %q", ErrMalformedVector, prefix)
	}
	if err != nil {
		return nil, &cvssmerge.Error{
			Op:      "cvss.Parse",
			Kind:    cvssmerge.ErrMalformed,
			Message: "unable to parse vector",
			Inner:   err,
		}
	}
	return v, nil
}

// MustParse is like [Parse], but panics on error.
func MustParse(s string) Vector {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// GuessVersion returns the version indicated by the prefix of a vector string.
func guessVersion(s string) Version {
	prefix, _, _ := strings.Cut(s, "/")
	switch {
	case strings.EqualFold(prefix, "CVSS:4.0"):
		return Version40
	case strings.EqualFold(prefix, "CVSS:3.1"):
		return Version31
	case strings.EqualFold(prefix, "CVSS:3.0"):
		return Version30
	case strings.EqualFold(prefix, "CVSS:2.0"):
		return Version20
	case len(prefix) >= 5 && strings.EqualFold(prefix[:5], "CVSS:"):
		return VersionUnknown
	}
	return Version20
}

// Group is a metric group.
type Group uint8

// Metric groups. The v4 "Threat" group takes the place of "Temporal".
const (
	GroupBase Group = iota
	GroupTemporal
	GroupEnvironmental
	GroupSupplemental

	GroupThreat = GroupTemporal
)

// MetricDef describes a single metric of a version.
type metricDef struct {
	Code  string
	Name  string
	Group Group
	// Values is ordered from most to least severe.
	Values []string
	// Modifies is the code of the base metric this metric modifies, if any.
	Modifies string
}

// Schema is the full description of the metrics in a version.
type schema struct {
	Metrics []metricDef
	// BaseLen is the number of base metrics, which are always first.
	BaseLen int
	// Fill is emitted for undefined metrics in a group that has any metric
	// defined. If empty, undefined metrics are always omitted.
	Fill string
	// Modified maps a metric index to the index of the base metric it
	// modifies, or -1.
	modified []int
}

func newSchema(baseLen int, fill string, ms []metricDef) *schema {
	s := schema{
		Metrics:  ms,
		BaseLen:  baseLen,
		Fill:     fill,
		modified: make([]int, len(ms)),
	}
	for i, m := range ms {
		s.modified[i] = -1
		if m.Modifies != "" {
			s.modified[i] = s.lookup(m.Modifies)
			if s.modified[i] == -1 {
				panic(fmt.Sprintf("programmer error: unknown metric %q", m.Modifies))
			}
		}
	}
	return &s
}

// Lookup returns the index for the metric with the code "code", or -1.
func (s *schema) lookup(code string) int {
	for i := range s.Metrics {
		if strings.EqualFold(s.Metrics[i].Code, code) {
			return i
		}
	}
	return -1
}

// ParseValue returns the Value for the metric at index "i", falling back to
// [ValueUnset] if "val" is not a known value.
func (s *schema) parseValue(i int, val string) Value {
	for j, n := range s.Metrics[i].Values {
		if strings.EqualFold(n, val) {
			return Value(j + 1)
		}
	}
	return ValueUnset
}

// ValueString returns the abbreviated form of the Value "v" for the metric at
// index "i", or the empty string if unset.
func (s *schema) valueString(i int, v Value) string {
	if v == ValueUnset || int(v) > len(s.Metrics[i].Values) {
		return ""
	}
	return s.Metrics[i].Values[v-1]
}

// Convert translates the Value "v" of metric "from" into the same value of
// metric "to". Metrics and their modified counterparts do not always share a
// set of values, so this is done by abbreviation.
func (s *schema) convert(from, to int, v Value) Value {
	return s.parseValue(to, s.valueString(from, v))
}

// WorstCase returns the value to be used for the metric at index "i" when it
// is not defined in "vals".
//
// Modified metrics use the value of the metric they modify; all other metrics
// use their most severe value.
func (s *schema) worstCase(vals []Value, i int) Value {
	if vals[i] != ValueUnset {
		return vals[i]
	}
	if b := s.modified[i]; b != -1 {
		bv := vals[b]
		if bv == ValueUnset {
			bv = 1
		}
		return s.convert(b, i, bv)
	}
	return 1
}

// ParseMetrics parses the "/"-separated metric list "list" into "dst".
//
// Unknown metrics are ignored and unknown values are treated as unset. If a
// metric appears multiple times, the last occurrence wins.
func (s *schema) parseMetrics(dst []Value, list string) error {
	if list == "" {
		return fmt.Errorf("%w: no metrics", ErrMalformedVector)
	}
	for seg := range strings.SplitSeq(list, "/") {
		if seg == "" {
			continue
		}
		code, val, ok := strings.Cut(seg, ":")
		if !ok || code == "" {
			return fmt.Errorf("%w: bad metric %q", ErrMalformedVector, seg)
		}
		i := s.lookup(code)
		if i == -1 {
			continue
		}
		dst[i] = s.parseValue(i, val)
	}
	return nil
}

// MarshalVector is a generic function to marshal vectors.
//
// Base metrics are emitted if defined. Other groups are emitted if any metric
// in the group is defined; undefined metrics in those groups are omitted
// unless the schema has a Fill value.
func marshalVector(prefix string, s *schema, vals []Value) []byte {
	text := append(make([]byte, 0, 64), prefix...) // Guess at an initial capacity.
	emit := func(i int, val string) {
		if len(text) != 0 {
			text = append(text, '/')
		}
		text = append(text, s.Metrics[i].Code...)
		text = append(text, ':')
		text = append(text, val...)
	}
	for lo := 0; lo < len(s.Metrics); {
		g := s.Metrics[lo].Group
		hi := lo
		var set bool
		for hi < len(s.Metrics) && s.Metrics[hi].Group == g {
			set = set || vals[hi] != ValueUnset
			hi++
		}
		for i := lo; i < hi; i++ {
			switch {
			case vals[i] != ValueUnset:
				emit(i, s.valueString(i, vals[i]))
			case set && g != GroupBase && s.Fill != "":
				emit(i, s.Fill)
			}
		}
		lo = hi
	}
	return text
}

// Defined reports the number of metrics defined in "v".
func Defined(v Vector) (n int) {
	for _, b := range v.values() {
		if b != ValueUnset {
			n++
		}
	}
	return n
}

// BaseDefined reports the number of base metrics defined in "v" and the total
// number of base metrics.
func BaseDefined(v Vector) (n, total int) {
	s := v.schema()
	for _, b := range v.values()[:s.BaseLen] {
		if b != ValueUnset {
			n++
		}
	}
	return n, s.BaseLen
}

// MetricCode reports the abbreviated name of the metric at index "i" of "v".
func MetricCode(v Vector, i int) string {
	return v.schema().Metrics[i].Code
}

// ValueString reports the abbreviated form of the value of the metric at index
// "i" of "v", or the empty string if it is not defined.
func ValueString(v Vector, i int) string {
	return v.schema().valueString(i, v.Get(i))
}

func complete(s *schema, vals []Value) bool {
	for _, b := range vals[:s.BaseLen] {
		if b == ValueUnset {
			return false
		}
	}
	return true
}

func anyDefined(s *schema, vals []Value, g Group) bool {
	for i, b := range vals {
		if b != ValueUnset && s.Metrics[i].Group == g {
			return true
		}
	}
	return false
}

// Qualitative is the "Qualitative Severity" of a score.
type Qualitative int

// The specified qualitative severities.
const (
	_ Qualitative = iota
	None
	Low
	Medium
	High
	Critical
)

// String implements [fmt.Stringer].
func (q Qualitative) String() string {
	switch q {
	case None:
		return "None"
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case Critical:
		return "Critical"
	}
	return fmt.Sprintf("Qualitative(%d)", int(q))
}

// QualitativeScore returns the qualitative severity of the provided Vector "v".
//
// There is no defined mapping for v2. The mapping defined for the other
// versions is used.
func QualitativeScore(v Vector) (q Qualitative) {
	s := v.Score()
	// The mapping is the same for v3.x and v4.0.
	switch {
	case s == 0:
		q = None
	case s < 4:
		q = Low
	case s < 7:
		q = Medium
	case s < 9:
		q = High
	default:
		q = Critical
	}
	return q
}
