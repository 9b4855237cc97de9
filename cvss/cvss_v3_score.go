package cvss

import (
	"math"
)

// Weights are in the same order as the values in the schema.
var v3Weights = [numV3Metrics][]float64{
	{0.85, 0.62, 0.55, 0.2}, // AV
	{0.77, 0.44},            // AC
	{0.85, 0.62, 0.27},      // PR
	{0.85, 0.62},            // UI
	{0, 0},                  // S
	{0.56, 0.22, 0},         // C
	{0.56, 0.22, 0},         // I
	{0.56, 0.22, 0},         // A
	// Temporal:
	{1, 0.97, 0.94, 0.91}, // E
	{1, 0.97, 0.96, 0.95}, // RL
	{1, 0.96, 0.92},       // RC
	// Environmental:
	{1.5, 1, 0.5}, // CR
	{1.5, 1, 0.5}, // IR
	{1.5, 1, 0.5}, // AR
	// Modified metrics use the base metric's weights when not defined.
	{0.85, 0.62, 0.55, 0.2}, // MAV
	{0.77, 0.44},            // MAC
	{0.85, 0.62, 0.27},      // MPR
	{0.85, 0.62},            // MUI
	{0, 0},                  // MS
	{0.56, 0.22, 0},         // MC
	{0.56, 0.22, 0},         // MI
	{0.56, 0.22, 0},         // MA
}

// Privileges Required weights when the Scope is Changed.
var v3ChangedPR = []float64{0.85, 0.68, 0.5}

const (
	v3ScopeChanged = Value(1)
)

// V3scoring is the set of inputs to the impact and exploitability equations.
type v3scoring struct {
	av, ac, pr, ui float64
	c, i, a        float64
	changed        bool
}

// Effective returns the weights of the base or modified metrics, depending on
// "env".
func (v *V3) effective(env bool) (s v3scoring) {
	get := func(m V3Metric) Value {
		b := v.mv[m]
		if env {
			b = v3Schema.worstCase(v.mv[:], int(m+V3ModifiedAttackVector))
		}
		return b
	}
	w := func(m V3Metric) float64 {
		return v3Weights[m][get(m)-1]
	}
	s.changed = get(V3Scope) == v3ScopeChanged
	s.av, s.ac, s.ui = w(V3AttackVector), w(V3AttackComplexity), w(V3UserInteraction)
	s.pr = w(V3PrivilegesRequired)
	if s.changed {
		s.pr = v3ChangedPR[get(V3PrivilegesRequired)-1]
	}
	s.c, s.i, s.a = w(V3Confidentiality), w(V3Integrity), w(V3Availability)
	return s
}

func (v *V3) weight(m V3Metric) float64 {
	b := v.mv[m]
	if b == ValueUnset {
		// Every non-base metric's "Not Defined" weight is the
		// multiplicative identity.
		return 1
	}
	return v3Weights[m][b-1]
}

func (v *V3) roundup(f float64) float64 {
	if v.minor == 0 {
		return v30Roundup(f)
	}
	return v31Roundup(f)
}

// Score implements [Vector].
//
// The reported score is the "Environmental" score if any environmental metrics
// are present, the "Temporal" score if any temporal metrics are present, and
// the "Base" score otherwise. Incomplete vectors score 0.
func (v V3) Score() float64 {
	switch {
	case !v.Complete():
		return 0
	case v.Environmental():
		return v.EnvironmentalScore()
	case v.Temporal():
		return v.TemporalScore()
	}
	return v.BaseScore()
}

// BaseScore implements [Vector].
func (v V3) BaseScore() float64 {
	if !v.Complete() {
		return 0
	}
	s := v.effective(false)
	iss := 1 - ((1 - s.c) * (1 - s.i) * (1 - s.a))
	var impact float64
	if s.changed {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}
	if impact <= 0 {
		return 0
	}
	exploitability := s.av * s.ac * s.pr * s.ui
	exploitability *= 8.22
	if s.changed {
		return v.roundup(math.Min(1.08*(impact+exploitability), 10))
	}
	return v.roundup(math.Min(impact+exploitability, 10))
}

// TemporalScore reports the "Temporal" score.
func (v V3) TemporalScore() float64 {
	base := v.BaseScore()
	if !v.Temporal() {
		return base
	}
	return v.roundup(base * v.weight(V3ExploitMaturity) * v.weight(V3RemediationLevel) * v.weight(V3ReportConfidence))
}

// EnvironmentalScore reports the "Environmental" score.
//
// Modified metrics that are not defined take the value of the corresponding
// base metric. The v3.0 and v3.1 equations differ for a changed Modified Scope.
func (v V3) EnvironmentalScore() float64 {
	if !v.Complete() {
		return 0
	}
	s := v.effective(true)
	miss := math.Min(0.915,
		1-
			((1-v.weight(V3ConfidentialityRequirement)*s.c)*
				(1-v.weight(V3IntegrityRequirement)*s.i)*
				(1-v.weight(V3AvailabilityRequirement)*s.a)))
	var impact float64
	switch {
	case !s.changed:
		impact = 6.42 * miss
	case v.minor == 0:
		impact = 7.52*(miss-0.029) - 3.25*math.Pow(miss-0.02, 15)
	default:
		impact = 7.52*(miss-0.029) - 3.25*math.Pow(miss*0.9731-0.02, 13)
	}
	if impact <= 0 {
		return 0
	}
	exploitability := s.av * s.ac * s.pr * s.ui
	exploitability *= 8.22
	var score float64
	if s.changed {
		score = v.roundup(math.Min(1.08*(impact+exploitability), 10))
	} else {
		score = v.roundup(math.Min(impact+exploitability, 10))
	}
	if !v.Temporal() {
		return score
	}
	return v.roundup(score * v.weight(V3ExploitMaturity) * v.weight(V3RemediationLevel) * v.weight(V3ReportConfidence))
}

// V30Roundup is the "Roundup" function as implemented by the v3.0 calculator.
func v30Roundup(f float64) float64 {
	return math.Ceil(f*10) / 10
}

// V31Roundup is the "Roundup" function as defined in Appendix A of the v3.1
// specification, which avoids floating point errors.
func v31Roundup(f float64) float64 {
	i := int(math.Round(f * 100_000))
	if (i % 10_000) == 0 {
		return float64(i) / 100_000
	}
	return float64((i/10_000)+1) / 10
}
