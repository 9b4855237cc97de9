package reconcile

import (
	"fmt"
	"strings"

	"github.com/quay/cvssmerge"
	"github.com/quay/cvssmerge/cvss"
	"github.com/quay/cvssmerge/selector"
)

// Policy chooses one vector family out of the per-family selector results.
type Policy uint8

// Known policies.
const (
	// Latest prefers the most recently published CVSS family.
	Latest Policy = iota
	// Oldest prefers the least recently published CVSS family.
	Oldest
	// Highest prefers the family with the highest score. Ties go to the newer
	// family.
	Highest
	// Lowest prefers the family with the lowest score. Ties go to the newer
	// family.
	Lowest
	// V2 chooses the CVSS v2 result, if any.
	V2
	// V3 chooses the CVSS v3.x result, if any.
	V3
	// V4 chooses the CVSS v4 result, if any.
	V4
)

var policyNames = [...]string{
	Latest:  "LATEST",
	Oldest:  "OLDEST",
	Highest: "HIGHEST",
	Lowest:  "LOWEST",
	V2:      "V2",
	V3:      "V3",
	V4:      "V4",
}

// Accepted spellings that aren't a Policy's name.
var policyAliases = map[string]Policy{
	"V2.0": V2,
	"V3.0": V3,
	"V3.1": V3,
	"V4.0": V4,
}

// DefaultPolicies prefers the newest family, which is what most consumers
// display.
var DefaultPolicies = []Policy{Latest}

// String implements [fmt.Stringer].
func (p Policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// MarshalText implements [encoding.TextMarshaler].
func (p Policy) MarshalText() ([]byte, error) {
	if int(p) >= len(policyNames) {
		return nil, fmt.Errorf("reconcile: unknown policy %d", uint8(p))
	}
	return []byte(policyNames[p]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePolicy parses a policy token, ignoring case.
//
// Unknown tokens are reported as errors of kind [cvssmerge.ErrConfig].
func ParsePolicy(s string) (Policy, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range policyNames {
		if t == n {
			return Policy(i), nil
		}
	}
	if p, ok := policyAliases[t]; ok {
		return p, nil
	}
	return 0, &cvssmerge.Error{
		Op:      `reconcile.ParsePolicy`,
		Kind:    cvssmerge.ErrConfig,
		Message: fmt.Sprintf("unknown policy %q", s),
	}
}

// ParsePolicies parses a list of policy tokens, reporting the first bad one.
func ParsePolicies(ss []string) ([]Policy, error) {
	out := make([]Policy, len(ss))
	for i, s := range ss {
		p, err := ParsePolicy(s)
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Choose reports the family the Policy selects from "rs", considering only
// results with a vector. It reports false if the Policy selects nothing.
func (p Policy) choose(rs map[cvss.Family]selector.Result) (cvss.Family, bool) {
	has := func(f cvss.Family) bool { return rs[f].Vector != nil }
	var fs []cvss.Family
	for _, f := range cvss.Families {
		if has(f) {
			fs = append(fs, f)
		}
	}
	if len(fs) == 0 {
		return cvss.FamilyUnknown, false
	}
	switch p {
	case Latest:
		return fs[len(fs)-1], true
	case Oldest:
		return fs[0], true
	case Highest, Lowest:
		best := fs[len(fs)-1]
		for i := len(fs) - 2; i >= 0; i-- {
			f := fs[i]
			s, b := rs[f].Vector.Score(), rs[best].Vector.Score()
			if (p == Highest && s > b) || (p == Lowest && s < b) {
				best = f
			}
		}
		return best, true
	case V2:
		return cvss.FamilyV2, has(cvss.FamilyV2)
	case V3:
		return cvss.FamilyV3, has(cvss.FamilyV3)
	case V4:
		return cvss.FamilyV4, has(cvss.FamilyV4)
	}
	panic(fmt.Sprintf("programmer error: unknown policy %d", p))
}
