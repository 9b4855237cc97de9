package cvss

import (
	"encoding"
	"fmt"
	"strings"
)

// V4 is a CVSS version 4 vector.
type V4 struct {
	mv [numV4Metrics]Value
}

var (
	_ encoding.TextMarshaler   = V4{}
	_ encoding.TextUnmarshaler = (*V4)(nil)
	_ fmt.Stringer             = V4{}
)

// ParseV4 parses the provided string as a v4 vector.
func ParseV4(s string) (v V4, err error) {
	return v, v.UnmarshalText([]byte(s))
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *V4) UnmarshalText(text []byte) error {
	prefix, rest, _ := strings.Cut(string(text), "/")
	if !strings.EqualFold(prefix, "CVSS:4.0") {
		return fmt.Errorf("cvss v4: %w: unknown version %q", ErrMalformedVector, prefix)
	}
	var mv [numV4Metrics]Value
	if err := v4Schema.parseMetrics(mv[:], rest); err != nil {
		return fmt.Errorf("cvss v4: %w", err)
	}
	v.mv = mv
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (v V4) MarshalText() (text []byte, err error) {
	return marshalVector(`CVSS:4.0`, v4Schema, v.mv[:]), nil
}

// String implements [fmt.Stringer].
func (v V4) String() string {
	return string(marshalVector(`CVSS:4.0`, v4Schema, v.mv[:]))
}

// Version implements [Vector].
func (V4) Version() Version { return Version40 }

// Len implements [Vector].
func (V4) Len() int { return numV4Metrics }

// Get implements [Vector].
func (v V4) Get(i int) Value { return v.mv[i] }

// Metric reports the value of the metric "m".
func (v V4) Metric(m V4Metric) Value { return v.mv[m] }

// Complete implements [Vector].
func (v V4) Complete() bool { return complete(v4Schema, v.mv[:]) }

// Threat reports if the vector has "Threat" metrics.
func (v V4) Threat() bool { return anyDefined(v4Schema, v.mv[:], GroupThreat) }

// Environmental reports if the vector has "Environmental" metrics.
func (v V4) Environmental() bool { return anyDefined(v4Schema, v.mv[:], GroupEnvironmental) }

// Supplemental reports if the vector has "Supplemental" metrics.
func (v V4) Supplemental() bool { return anyDefined(v4Schema, v.mv[:], GroupSupplemental) }

func (V4) schema() *schema    { return v4Schema }
func (v V4) values() []Value { return v.mv[:] }

// Effective returns the abbreviated value used for scoring the metric "m".
//
// For base metrics, this is the value of the corresponding modified metric if
// defined. Undefined values are replaced by their worst case.
func (v *V4) effective(m V4Metric) string {
	i := int(m)
	if m <= V4SubsequentSystemAvailability {
		i += int(V4ModifiedAttackVector)
	}
	return v4Schema.valueString(i, v4Schema.worstCase(v.mv[:], i))
}

// V4Metric is a metric in a v4 vector.
type V4Metric int

// These are the metrics defined in the specification.
const (
	V4AttackVector                            V4Metric = iota // AV
	V4AttackComplexity                                        // AC
	V4AttackRequirements                                      // AT
	V4PrivilegesRequired                                      // PR
	V4UserInteraction                                         // UI
	V4VulnerableSystemConfidentiality                         // VC
	V4VulnerableSystemIntegrity                               // VI
	V4VulnerableSystemAvailability                            // VA
	V4SubsequentSystemConfidentiality                         // SC
	V4SubsequentSystemIntegrity                               // SI
	V4SubsequentSystemAvailability                            // SA
	V4ExploitMaturity                                         // E
	V4ConfidentialityRequirement                              // CR
	V4IntegrityRequirement                                    // IR
	V4AvailabilityRequirement                                 // AR
	V4ModifiedAttackVector                                    // MAV
	V4ModifiedAttackComplexity                                // MAC
	V4ModifiedAttackRequirements                              // MAT
	V4ModifiedPrivilegesRequired                              // MPR
	V4ModifiedUserInteraction                                 // MUI
	V4ModifiedVulnerableSystemConfidentiality                 // MVC
	V4ModifiedVulnerableSystemIntegrity                       // MVI
	V4ModifiedVulnerableSystemAvailability                    // MVA
	V4ModifiedSubsequentSystemConfidentiality                 // MSC
	V4ModifiedSubsequentSystemIntegrity                       // MSI
	V4ModifiedSubsequentSystemAvailability                    // MSA
	V4Safety                                                  // S
	V4Automatable                                             // AU
	V4Recovery                                                // R
	V4ValueDensity                                            // V
	V4VulnerabilityResponseEffort                             // RE
	V4ProviderUrgency                                         // U

	numV4Metrics int = iota
)

// String implements [fmt.Stringer].
func (m V4Metric) String() string { return v4Schema.Metrics[m].Code }

// Name returns the long name of the metric.
func (m V4Metric) Name() string { return v4Schema.Metrics[m].Name }

var v4Schema = newSchema(int(V4ExploitMaturity), "", []metricDef{
	{Code: "AV", Name: "Attack Vector", Values: []string{"N", "A", "L", "P"}},
	{Code: "AC", Name: "Attack Complexity", Values: []string{"L", "H"}},
	{Code: "AT", Name: "Attack Requirements", Values: []string{"N", "P"}},
	{Code: "PR", Name: "Privileges Required", Values: []string{"N", "L", "H"}},
	{Code: "UI", Name: "User Interaction", Values: []string{"N", "P", "A"}},
	{Code: "VC", Name: "Vulnerable System Confidentiality", Values: []string{"H", "L", "N"}},
	{Code: "VI", Name: "Vulnerable System Integrity", Values: []string{"H", "L", "N"}},
	{Code: "VA", Name: "Vulnerable System Availability", Values: []string{"H", "L", "N"}},
	{Code: "SC", Name: "Subsequent System Confidentiality", Values: []string{"H", "L", "N"}},
	{Code: "SI", Name: "Subsequent System Integrity", Values: []string{"H", "L", "N"}},
	{Code: "SA", Name: "Subsequent System Availability", Values: []string{"H", "L", "N"}},
	{Code: "E", Name: "Exploit Maturity", Group: GroupThreat, Values: []string{"A", "P", "U"}},
	{Code: "CR", Name: "Confidentiality Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "IR", Name: "Integrity Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "AR", Name: "Availability Requirement", Group: GroupEnvironmental, Values: []string{"H", "M", "L"}},
	{Code: "MAV", Name: "Modified Attack Vector", Group: GroupEnvironmental, Modifies: "AV", Values: []string{"N", "A", "L", "P"}},
	{Code: "MAC", Name: "Modified Attack Complexity", Group: GroupEnvironmental, Modifies: "AC", Values: []string{"L", "H"}},
	{Code: "MAT", Name: "Modified Attack Requirements", Group: GroupEnvironmental, Modifies: "AT", Values: []string{"N", "P"}},
	{Code: "MPR", Name: "Modified Privileges Required", Group: GroupEnvironmental, Modifies: "PR", Values: []string{"N", "L", "H"}},
	{Code: "MUI", Name: "Modified User Interaction", Group: GroupEnvironmental, Modifies: "UI", Values: []string{"N", "P", "A"}},
	{Code: "MVC", Name: "Modified Vulnerable System Confidentiality", Group: GroupEnvironmental, Modifies: "VC", Values: []string{"H", "L", "N"}},
	{Code: "MVI", Name: "Modified Vulnerable System Integrity", Group: GroupEnvironmental, Modifies: "VI", Values: []string{"H", "L", "N"}},
	{Code: "MVA", Name: "Modified Vulnerable System Availability", Group: GroupEnvironmental, Modifies: "VA", Values: []string{"H", "L", "N"}},
	{Code: "MSC", Name: "Modified Subsequent System Confidentiality", Group: GroupEnvironmental, Modifies: "SC", Values: []string{"H", "L", "N"}},
	// Only the modified subsequent system metrics have a "Safety" value.
	{Code: "MSI", Name: "Modified Subsequent System Integrity", Group: GroupEnvironmental, Modifies: "SI", Values: []string{"S", "H", "L", "N"}},
	{Code: "MSA", Name: "Modified Subsequent System Availability", Group: GroupEnvironmental, Modifies: "SA", Values: []string{"S", "H", "L", "N"}},
	{Code: "S", Name: "Safety", Group: GroupSupplemental, Values: []string{"P", "N"}},
	{Code: "AU", Name: "Automatable", Group: GroupSupplemental, Values: []string{"Y", "N"}},
	{Code: "R", Name: "Recovery", Group: GroupSupplemental, Values: []string{"I", "U", "A"}},
	{Code: "V", Name: "Value Density", Group: GroupSupplemental, Values: []string{"C", "D"}},
	{Code: "RE", Name: "Vulnerability Response Effort", Group: GroupSupplemental, Values: []string{"H", "M", "L"}},
	{Code: "U", Name: "Provider Urgency", Group: GroupSupplemental, Values: []string{"Red", "Amber", "Green", "Clear"}},
})
