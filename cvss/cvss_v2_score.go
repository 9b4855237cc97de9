package cvss

import (
	"math"
)

// Weights are in the same order as the values in the schema.
var v2Weights = [numV2Metrics][]float64{
	{1.0, 0.646, 0.395}, // AV
	{0.71, 0.61, 0.35},  // AC
	{0.704, 0.56, 0.45}, // Au
	{0.660, 0.275, 0.0}, // C
	{0.660, 0.275, 0.0}, // I
	{0.660, 0.275, 0.0}, // A
	// Temporal:
	{1.00, 0.95, 0.90, 0.85}, // E
	{1.00, 0.95, 0.90, 0.87}, // RL
	{1.00, 0.95, 0.90},       // RC
	// Environmental:
	{0.5, 0.4, 0.3, 0.1, 0}, // CDP
	{1.00, 0.75, 0.25, 0},   // TD
	{1.51, 1.0, 0.5},        // CR
	{1.51, 1.0, 0.5},        // IR
	{1.51, 1.0, 0.5},        // AR
}

// Weights for "Not Defined" values. Base metrics have no such weight.
var v2Undefined = [numV2Metrics]float64{
	math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(),
	1, 1, 1, // E, RL, RC
	0, 1, // CDP, TD
	1, 1, 1, // CR, IR, AR
}

func (v *V2) weights() (w [numV2Metrics]float64) {
	for i, b := range v.mv {
		if b == ValueUnset {
			w[i] = v2Undefined[i]
			continue
		}
		w[i] = v2Weights[i][b-1]
	}
	return w
}

// Score implements [Vector].
//
// The reported score is the "Environmental" score if any environmental metrics
// are present, the "Temporal" score if any temporal metrics are present, and
// the "Base" score otherwise. Incomplete vectors score 0.
func (v V2) Score() float64 {
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
func (v V2) BaseScore() float64 {
	if !v.Complete() {
		return 0
	}
	w := v.weights()
	impact := 10.41 * (1 - (1-w[V2Confidentiality])*(1-w[V2Integrity])*(1-w[V2Availability]))
	return v2Base(&w, impact)
}

// TemporalScore reports the "Temporal" score.
func (v V2) TemporalScore() float64 {
	if !v.Complete() {
		return 0
	}
	w := v.weights()
	return v2Temporal(&w, v.BaseScore())
}

// EnvironmentalScore reports the "Environmental" score.
//
// This recomputes the base and temporal scores with the "AdjustedImpact"
// equation.
func (v V2) EnvironmentalScore() float64 {
	if !v.Complete() {
		return 0
	}
	w := v.weights()
	impact := math.Min(
		10,
		10.41*(1-
			(1-w[V2Confidentiality]*w[V2ConfidentialityRequirement])*
				(1-w[V2Integrity]*w[V2IntegrityRequirement])*
				(1-w[V2Availability]*w[V2AvailabilityRequirement])),
	)
	temporal := v2Temporal(&w, v2Base(&w, impact))
	return v2Round((temporal + (10-temporal)*w[V2CollateralDamagePotential]) * w[V2TargetDistribution])
}

func v2Base(w *[numV2Metrics]float64, impact float64) float64 {
	exploitability := 20 * w[V2AccessVector] * w[V2AccessComplexity] * w[V2Authentication]
	if impact == 0 {
		// f(Impact) is 0; return early so the result isn't -0.
		return 0
	}
	const fImpact = 1.176
	return v2Round(((0.6 * impact) + (0.4 * exploitability) - 1.5) * fImpact)
}

func v2Temporal(w *[numV2Metrics]float64, base float64) float64 {
	return v2Round(base * w[V2Exploitability] * w[V2RemediationLevel] * w[V2ReportConfidence])
}

func v2Round(f float64) float64 {
	return math.Round(f*10) / 10
}
