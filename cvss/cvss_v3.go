package cvss

import (
	"encoding"
	"fmt"
	"strings"
)

// V3 is a CVSS version 3 vector.
//
// Both v3.0 and v3.1 vectors are represented by this type.
type V3 struct {
	mv    [numV3Metrics]Value
	minor uint8
}

var (
	_ encoding.TextMarshaler   = V3{}
	_ encoding.TextUnmarshaler = (*V3)(nil)
	_ fmt.Stringer             = V3{}
)

// ParseV3 parses the provided string as a v3 vector.
func ParseV3(s string) (v V3, err error) {
	return v, v.UnmarshalText([]byte(s))
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *V3) UnmarshalText(text []byte) error {
	prefix, rest, _ := strings.Cut(string(text), "/")
	var minor uint8
	switch {
	case strings.EqualFold(prefix, "CVSS:3.0"):
		minor = 0
	case strings.EqualFold(prefix, "CVSS:3.1"):
		minor = 1
	default:
		return fmt.Errorf("cvss v3: %w: bad version: %q", ErrMalformedVector, prefix)
	}
	var mv [numV3Metrics]Value
	if err := v3Schema.parseMetrics(mv[:], rest); err != nil {
		return fmt.Errorf("cvss v3: %w", err)
	}
	v.mv, v.minor = mv, minor
	return nil
}

func (v V3) prefix() string {
	return fmt.Sprintf("CVSS:3.%d", v.minor)
}

// MarshalText implements [encoding.TextMarshaler].
func (v V3) MarshalText() (text []byte, err error) {
	return marshalVector(v.prefix(), v3Schema, v.mv[:]), nil
}

// String implements [fmt.Stringer].
func (v V3) String() string {
	return string(marshalVector(v.prefix(), v3Schema, v.mv[:]))
}

// Version implements [Vector].
func (v V3) Version() Version {
	if v.minor == 0 {
		return Version30
	}
	return Version31
}

// Len implements [Vector].
func (V3) Len() int { return numV3Metrics }

// Get implements [Vector].
func (v V3) Get(i int) Value { return v.mv[i] }

// Metric reports the value of the metric "m".
func (v V3) Metric(m V3Metric) Value { return v.mv[m] }

// Complete implements [Vector].
func (v V3) Complete() bool { return complete(v3Schema, v.mv[:]) }

// Temporal reports if the vector has "Temporal" metrics.
func (v V3) Temporal() bool { return anyDefined(v3Schema, v.mv[:], GroupTemporal) }

// Environmental reports if the vector has "Environmental" metrics.
func (v V3) Environmental() bool { return anyDefined(v3Schema, v.mv[:], GroupEnvironmental) }

func (V3) schema() *schema    { return v3Schema }
func (v V3) values() []Value { return v.mv[:] }

// V3Metric is a metric in a v3 vector.
type V3Metric int

// These are the metrics defined in the specification.
const (
	V3AttackVector               V3Metric = iota // AV
	V3AttackComplexity                           // AC
	V3PrivilegesRequired                         // PR
	V3UserInteraction                            // UI
	V3Scope                                      // S
	V3Confidentiality                            // C
	V3Integrity                                  // I
	V3Availability                               // A
	V3ExploitMaturity                            // E
	V3RemediationLevel                           // RL
	V3ReportConfidence                           // RC
	V3ConfidentialityRequirement                 // CR
	V3IntegrityRequirement                       // IR
	V3AvailabilityRequirement                    // AR
	V3ModifiedAttackVector                       // MAV
	V3ModifiedAttackComplexity                   // MAC
	V3ModifiedPrivilegesRequired                 // MPR
	V3ModifiedUserInteraction                    // MUI
	V3ModifiedScope                              // MS
	V3ModifiedConfidentiality                    // MC
	V3ModifiedIntegrity                          // MI
	V3ModifiedAvailability                       // MA

	numV3Metrics int = iota
)

// String implements [fmt.Stringer].
func (m V3Metric) String() string { return v3Schema.Metrics[m].Code }

// Name returns the long name of the metric.
func (m V3Metric) Name() string { return v3Schema.Metrics[m].Name }

var v3Schema = newSchema(int(V3ExploitMaturity), "", []metricDef{
	{Code: "AV", Name: "Attack Vector", Values: []string{"N", "A", "L", "P"}},
	{Code: "AC", Name: "Attack Complexity", Values: []string{"L", "H"}},
	{Code: "PR", Name: "Privileges Required", Values: []string{"N", "L", "H"}},
	{Code: "UI", Name: "User Interaction", Values: []string{"N", "R"}},
	{Code: "S", Name: "Scope", Values: []string{"C", "U"}},
	{Code: "C", Name: "Confidentiality", Values: []string{"H", "L", "N"}},
	{Code: "I", Name: "Integrity", Values: []string{"H", "L", "N"}},
	{Code: "A", Name: "Availability", Values: []string{"H", "L", "N"}},
	{Code: "E", Name: "Exploit Code Maturity", Group: GroupTemporal, Values: []string{"H", "F", "P", "U"}},
	{Code: "RL", Name: "Remediation Level", Group: GroupTemporal, Values: []string{"U", "W", "T", "O"}},
	{Code: "RC", Name: "Report Confidence", Group: GroupTemporal, Values: []string{"C", "R", "U"}},
	{Code: "CR", Name: "Confidentiality Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "IR", Name: "Integrity Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "AR", Name: "Availability Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "MAV", Name: "Modified Attack Vector", Group: GroupEnvironmental, Modifies: "AV", Values: []string{"N", "A", "L", "P"}},
	{Code: "MAC", Name: "Modified Attack Complexity", Group: GroupEnvironmental, Modifies: "AC", Values: []string{"L", "H"}},
	{Code: "MPR", Name: "Modified Privileges Required", Group: GroupEnvironmental, Modifies: "PR", Values: []string{"N", "L", "H"}},
	{Code: "MUI", Name: "Modified User Interaction", Group: GroupEnvironmental, Modifies: "UI", Values: []string{"N", "R"}},
	{Code: "MS", Name: "Modified Scope", Group: GroupEnvironmental, Modifies: "S", Values: []string{"C", "U"}},
	{Code: "MC", Name: "Modified Confidentiality", Group: GroupEnvironmental, Modifies: "C", Values: []string{"H", "L", "N"}},
	{Code: "MI", Name: "Modified Integrity", Group: GroupEnvironmental, Modifies: "I", Values: []string{"H", "L", "N"}},
	{Code: "MA", Name: "Modified Availability", Group: GroupEnvironmental, Modifies: "A", Values: []string{"H", "L", "N"}},
})
