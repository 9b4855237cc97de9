package cvss

import (
	"fmt"
	"slices"
)

// Build constructs a Vector of the version "ver" from the values "vals".
func build(ver Version, vals []Value) Vector {
	switch ver {
	case Version20:
		var v V2
		copy(v.mv[:], vals)
		return v
	case Version30, Version31:
		var v V3
		copy(v.mv[:], vals)
		if ver == Version31 {
			v.minor = 1
		}
		return v
	case Version40:
		var v V4
		copy(v.mv[:], vals)
		return v
	}
	panic(fmt.Sprintf("programmer error: unknown version %v", ver))
}

func checkFamily(vs []Vector) (Version, error) {
	var ver Version
	for _, v := range vs {
		if v == nil {
			continue
		}
		switch {
		case ver == VersionUnknown:
		case ver.Family() != v.Version().Family():
			return VersionUnknown, fmt.Errorf("cvss: mixed families: %v and %v", ver.Family(), v.Version().Family())
		}
		// Use the latest minor version within a family.
		ver = max(ver, v.Version())
	}
	return ver, nil
}

// Overlay returns a Vector with every metric defined in "src" replacing the
// corresponding metric in "dst".
//
// A nil "dst" is allowed, in which case "src" is returned. The vectors must be
// of the same [Family]; the result uses the later minor version of the two.
func Overlay(dst, src Vector) (Vector, error) {
	switch {
	case src == nil:
		return dst, nil
	case dst == nil:
		return src, nil
	}
	ver, err := checkFamily([]Vector{dst, src})
	if err != nil {
		return nil, err
	}
	vals := slices.Clone(dst.values())
	for i, b := range src.values() {
		if b != ValueUnset {
			vals[i] = b
		}
	}
	return build(ver, vals), nil
}

// MostSevere returns a Vector with every metric set to the most severe value
// defined for that metric in any of "vs".
//
// Nil Vectors are skipped. If all are nil, nil is returned.
func MostSevere(vs ...Vector) (Vector, error) {
	return metricwise(vs, func(a, b Value) bool { return a < b })
}

// LeastSevere returns a Vector with every metric set to the least severe value
// defined for that metric in any of "vs".
//
// Nil Vectors are skipped. If all are nil, nil is returned.
func LeastSevere(vs ...Vector) (Vector, error) {
	return metricwise(vs, func(a, b Value) bool { return a > b })
}

// Metricwise builds a Vector by choosing, for every metric, the defined value
// for which "better" reports true against every other defined value.
func metricwise(vs []Vector, better func(a, b Value) bool) (Vector, error) {
	ver, err := checkFamily(vs)
	if err != nil {
		return nil, err
	}
	if ver == VersionUnknown {
		return nil, nil
	}
	var vals []Value
	for _, v := range vs {
		if v == nil {
			continue
		}
		if vals == nil {
			vals = slices.Clone(v.values())
			continue
		}
		for i, b := range v.values() {
			switch {
			case b == ValueUnset:
			case vals[i] == ValueUnset, better(b, vals[i]):
				vals[i] = b
			}
		}
	}
	return build(ver, vals), nil
}

// WorstCase returns a Vector with every undefined metric in "v" set to its
// worst case.
//
// Modified metrics take the value of the metric they modify. All other metrics
// take their most severe value. The result is always [Vector.Complete].
func WorstCase(v Vector) Vector {
	s := v.schema()
	in := v.values()
	vals := slices.Clone(in)
	// Base metrics first, so modified metrics see a complete base.
	for i := range s.BaseLen {
		vals[i] = s.worstCase(vals, i)
	}
	for i := s.BaseLen; i < len(vals); i++ {
		vals[i] = s.worstCase(vals, i)
	}
	return build(v.Version(), vals)
}

// Equal reports whether "a" and "b" are the same version and have identical
// metric values.
func Equal(a, b Vector) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	}
	return a.Version() == b.Version() && slices.Equal(a.values(), b.values())
}

// Without returns a copy of "v" with all metrics of the group "g" removed.
func Without(v Vector, g Group) Vector {
	s := v.schema()
	vals := slices.Clone(v.values())
	for i := range vals {
		if s.Metrics[i].Group == g {
			vals[i] = ValueUnset
		}
	}
	return build(v.Version(), vals)
}
