package cvss

import (
	"encoding"
	"fmt"
	"strings"
)

// V2 is a CVSS version 2 vector.
type V2 struct {
	mv [numV2Metrics]Value
}

var (
	_ encoding.TextMarshaler   = V2{}
	_ encoding.TextUnmarshaler = (*V2)(nil)
	_ fmt.Stringer             = V2{}
)

// ParseV2 parses the provided string as a v2 vector.
func ParseV2(s string) (v V2, err error) {
	return v, v.UnmarshalText([]byte(s))
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *V2) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = s[1 : len(s)-1]
	}
	if prefix, rest, ok := strings.Cut(s, "/"); ok && strings.EqualFold(prefix, "CVSS:2.0") {
		s = rest
	}
	var mv [numV2Metrics]Value
	if err := v2Schema.parseMetrics(mv[:], s); err != nil {
		return fmt.Errorf("cvss v2: %w", err)
	}
	v.mv = mv
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (v V2) MarshalText() (text []byte, err error) {
	return marshalVector("", v2Schema, v.mv[:]), nil
}

// String implements [fmt.Stringer].
func (v V2) String() string {
	return string(marshalVector("", v2Schema, v.mv[:]))
}

// Version implements [Vector].
func (V2) Version() Version { return Version20 }

// Len implements [Vector].
func (V2) Len() int { return numV2Metrics }

// Get implements [Vector].
func (v V2) Get(i int) Value { return v.mv[i] }

// Metric reports the value of the metric "m".
func (v V2) Metric(m V2Metric) Value { return v.mv[m] }

// Complete implements [Vector].
func (v V2) Complete() bool { return complete(v2Schema, v.mv[:]) }

// Temporal reports if the vector has "Temporal" metrics.
func (v V2) Temporal() bool { return anyDefined(v2Schema, v.mv[:], GroupTemporal) }

// Environmental reports if the vector has "Environmental" metrics.
func (v V2) Environmental() bool { return anyDefined(v2Schema, v.mv[:], GroupEnvironmental) }

func (V2) schema() *schema    { return v2Schema }
func (v V2) values() []Value { return v.mv[:] }

// V2Metric is a metric in a v2 vector.
type V2Metric int

// These are the metrics defined in the specification.
const (
	V2AccessVector               V2Metric = iota // AV
	V2AccessComplexity                           // AC
	V2Authentication                             // Au
	V2Confidentiality                            // C
	V2Integrity                                  // I
	V2Availability                               // A
	V2Exploitability                             // E
	V2RemediationLevel                           // RL
	V2ReportConfidence                           // RC
	V2CollateralDamagePotential                  // CDP
	V2TargetDistribution                         // TD
	V2ConfidentialityRequirement                 // CR
	V2IntegrityRequirement                       // IR
	V2AvailabilityRequirement                    // AR

	numV2Metrics int = iota
)

// String implements [fmt.Stringer].
func (m V2Metric) String() string { return v2Schema.Metrics[m].Code }

// Name returns the long name of the metric.
func (m V2Metric) Name() string { return v2Schema.Metrics[m].Name }

// "ND" is "Not Defined" in v2, and is written out for every metric in a
// non-base group that has any metric defined.
var v2Schema = newSchema(int(V2Exploitability), "ND", []metricDef{
	{Code: "AV", Name: "Access Vector", Values: []string{"N", "A", "L"}},
	{Code: "AC", Name: "Access Complexity", Values: []string{"L", "M", "H"}},
	{Code: "Au", Name: "Authentication", Values: []string{"N", "S", "M"}},
	{Code: "C", Name: "Confidentiality Impact", Values: []string{"C", "P", "N"}},
	{Code: "I", Name: "Integrity Impact", Values: []string{"C", "P", "N"}},
	{Code: "A", Name: "Availability Impact", Values: []string{"C", "P", "N"}},
	{Code: "E", Name: "Exploitability", Group: GroupTemporal, Values: []string{"H", "F", "POC", "U"}},
	{Code: "RL", Name: "Remediation Level", Group: GroupTemporal, Values: []string{"U", "W", "TF", "OF"}},
	{Code: "RC", Name: "Report Confidence", Group: GroupTemporal, Values: []string{"C", "UR", "UC"}},
	{Code: "CDP", Name: "Collateral Damage Potential", Group: GroupEnvironmental, Values: []string{"H", "MH", "LM", "L", "N"}},
	{Code: "TD", Name: "Target Distribution", Group: GroupEnvironmental, Values: []string{"H", "M", "L", "N"}},
	{Code: "CR", Name: "Confidentiality Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "IR", Name: "Integrity Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "AR", Name: "Availability Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
})
