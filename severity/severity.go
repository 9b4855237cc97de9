// Package severity maps numeric scores onto labeled ranges.
//
// Ranges are written as ";"-separated "label:color:min:max" segments, e.g.
//
//	None:#5b9bd5:0.0:0.0;Low:#6fb94d:0.1:3.9;Medium:#ffc000:4.0:6.9
//
// A set of Ranges must cover its whole scale without gaps or overlaps; see
// [Ranges.Validate].
package severity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quay/cvssmerge"
)

// DefaultSpec is the CVSS qualitative severity rating scale.
const DefaultSpec = `None:#5b9bd5:0.0:0.0;` +
	`Low:#6fb94d:0.1:3.9;` +
	`Medium:#ffc000:4.0:6.9;` +
	`High:#ed7d31:7.0:8.9;` +
	`Critical:#c00000:9.0:10.0`

// DefaultRanges are the Ranges described by [DefaultSpec].
var DefaultRanges = MustParse(DefaultSpec)

// Range is a single labeled interval.
type Range struct {
	Label string  `json:"label"`
	Color string  `json:"color,omitempty"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// String implements [fmt.Stringer].
//
// The result is the segment form accepted by [Parse].
func (r Range) String() string {
	return r.Label + ":" + r.Color + ":" + fmtFloat(r.Min) + ":" + fmtFloat(r.Max)
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Ranges is an ordered set of Range covering a scale.
type Ranges []Range

// Scales and the finest score step on each.
const (
	maxScore  = 10.0
	maxRatio  = 1.0
	stepScore = 0.1
	stepRatio = 0.01
	epsilon   = 1e-9
)

// Parse parses and validates a Ranges specification.
func Parse(s string) (Ranges, error) {
	const op = `severity.Parse`
	var rs Ranges
	for i, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		r, err := parseRange(seg)
		if err != nil {
			return nil, &cvssmerge.Error{
				Op:      op,
				Kind:    cvssmerge.ErrConfig,
				Message: fmt.Sprintf("segment %d (%q)", i, seg),
				Inner:   err,
			}
		}
		rs = append(rs, r)
	}
	if err := rs.Validate(); err != nil {
		return nil, &cvssmerge.Error{
			Op:    op,
			Kind:  cvssmerge.ErrConfig,
			Inner: err,
		}
	}
	return rs, nil
}

// MustParse is like [Parse], but panics on error.
func MustParse(s string) Ranges {
	rs, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return rs
}

func parseRange(s string) (Range, error) {
	var r Range
	fs := strings.Split(s, ":")
	if len(fs) != 4 {
		return r, fmt.Errorf("want 4 \":\"-separated fields, got %d", len(fs))
	}
	r.Label = strings.TrimSpace(fs[0])
	r.Color = strings.TrimSpace(fs[1])
	if r.Label == "" {
		return r, fmt.Errorf("empty label")
	}
	var err error
	if r.Min, err = parseFloat(fs[2]); err != nil {
		return r, fmt.Errorf("min: %w", err)
	}
	if r.Max, err = parseFloat(fs[3]); err != nil {
		return r, fmt.Errorf("max: %w", err)
	}
	return r, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	switch {
	case err != nil:
		return 0, err
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

// Validate reports whether the Ranges cover their scale exactly once.
//
// The scale is 0 to 10 if the last Range ends at 10 and 0 to 1 if it ends at 1.
// The first Range must start at 0, every Range must have min <= max, and the
// gap between one Range's max and the next Range's min must be at least 0 and
// at most the scale's step (0.1 or 0.01, respectively).
func (rs Ranges) Validate() error {
	if len(rs) == 0 {
		return fmt.Errorf("no ranges")
	}
	var step float64
	switch last := rs[len(rs)-1].Max; {
	case near(last, maxScore):
		step = stepScore
	case near(last, maxRatio):
		step = stepRatio
	default:
		return fmt.Errorf("last range %q ends at %v; want %v or %v", rs[len(rs)-1].Label, last, maxScore, maxRatio)
	}
	if !near(rs[0].Min, 0) {
		return fmt.Errorf("first range %q starts at %v; want 0", rs[0].Label, rs[0].Min)
	}
	seen := make(map[string]struct{}, len(rs))
	for i, r := range rs {
		if _, ok := seen[r.Label]; ok {
			return fmt.Errorf("duplicate label %q", r.Label)
		}
		seen[r.Label] = struct{}{}
		if r.Min > r.Max {
			return fmt.Errorf("range %q: min %v > max %v", r.Label, r.Min, r.Max)
		}
		if i == 0 {
			continue
		}
		prev := rs[i-1]
		switch gap := r.Min - prev.Max; {
		case gap < -epsilon:
			return fmt.Errorf("range %q overlaps %q", r.Label, prev.Label)
		case gap > step+epsilon:
			return fmt.Errorf("gap between %q and %q exceeds %v", prev.Label, r.Label, step)
		}
	}
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// Classify returns the Range "score" falls in.
//
// A score falls in a Range if it's at least the Range's min and less than the
// next Range's min; the last Range includes its max. A score outside every
// Range is reported as an error of kind [cvssmerge.ErrConfig]: the Ranges do
// not describe the scale the score is on.
func (rs Ranges) Classify(score float64) (Range, error) {
	for i := len(rs) - 1; i >= 0 && !math.IsNaN(score); i-- {
		r := rs[i]
		if score < r.Min-epsilon {
			continue
		}
		if i == len(rs)-1 && score > r.Max+epsilon {
			break
		}
		return r, nil
	}
	return Range{}, &cvssmerge.Error{
		Op:      `severity.Classify`,
		Kind:    cvssmerge.ErrConfig,
		Message: fmt.Sprintf("score %v outside of configured ranges %v", score, rs),
	}
}

// String implements [fmt.Stringer].
//
// The result is accepted by [Parse].
func (rs Ranges) String() string {
	var b strings.Builder
	for i, r := range rs {
		if i != 0 {
			b.WriteByte(';')
		}
		b.WriteString(r.String())
	}
	return b.String()
}

// MarshalText implements [encoding.TextMarshaler].
func (rs Ranges) MarshalText() ([]byte, error) {
	return []byte(rs.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (rs *Ranges) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*rs = p
	return nil
}
