package cvss

import (
	"log/slog"
	"math"
	"strconv"
)

// Equivalence classes, as used in the macrovector.
const (
	eq1 int = iota // EQ1
	eq2            // EQ2
	eq3            // EQ3
	eq4            // EQ4
	eq5            // EQ5
	eq6            // EQ6
	numEquivalenceClass
)

// Scoring dimensions. EQ3 and EQ6 are scored jointly.
const (
	dimEQ1 int = iota
	dimEQ2
	dimEQ3EQ6
	dimEQ4
	dimEQ5
	numDimension
)

// Macrovector describes a "MacroVector" as defined in Section 8.2.
//
// Macrovectors are a descriptor for a set of vectors that have been judged to
// be similar. Every element is the level of the corresponding equivalence
// class.
type macrovector [numEquivalenceClass]uint8

// String implements [fmt.Stringer].
func (m macrovector) String() string {
	b := make([]byte, 0, numEquivalenceClass)
	for i := 0; i < numEquivalenceClass; i++ {
		b = strconv.AppendUint(b, uint64(m[i]), 10)
	}
	return string(b)
}

// Score looks up the score for the macrovector.
//
// If the macrovector does not exist, NaN is returned.
func (m macrovector) score() float64 {
	s, ok := v4MacrovectorScore[m.String()]
	if !ok {
		return math.NaN()
	}
	return s
}

// Score implements [Vector].
//
// Unlike [V2.Score] and [V3.Score], there's not a set of scores for a given
// vector, there's only one. It is computed as follows:
//
//  1. The macrovector for the vector is looked up in the specification's
//     table, giving the score of the most severe vectors in the macrovector.
//  2. For each equivalence class, the maximal scoring difference is the
//     difference between that score and the score of the next lower
//     macrovector. If there's no lower macrovector, the difference is not
//     used.
//  3. The severity distance of the vector from the most severe vector in the
//     macrovector is divided by the depth of the macrovector and multiplied
//     by the maximal scoring difference.
//  4. The mean of those proportional distances is subtracted from the
//     macrovector's score.
//
// Metrics that are not defined are treated as their worst case throughout.
// Vectors that are not [V4.Complete] score 0.
func (v V4) Score() float64 {
	return v4Round(v.rawScore())
}

// RawScore is the unrounded score of "v".
func (v V4) rawScore() float64 {
	if !v.Complete() {
		return 0
	}
	var nonzero int
	for _, m := range []V4Metric{
		V4VulnerableSystemConfidentiality,
		V4VulnerableSystemIntegrity,
		V4VulnerableSystemAvailability,
		V4SubsequentSystemConfidentiality,
		V4SubsequentSystemIntegrity,
		V4SubsequentSystemAvailability,
	} {
		if v.effective(m) != "N" {
			nonzero++
		}
	}
	if nonzero == 0 {
		return 0
	}

	cur := v.macrovector()
	value := cur.score()

	var msd [numDimension]float64
	for d := range numDimension {
		low := cur
		var s float64
		switch d {
		case dimEQ1:
			low[eq1]++
			s = low.score()
		case dimEQ2:
			low[eq2]++
			s = low.score()
		case dimEQ4:
			low[eq4]++
			s = low.score()
		case dimEQ5:
			low[eq5]++
			s = low.score()
		case dimEQ3EQ6:
			switch {
			case cur[eq3] == 1 && cur[eq6] == 1, cur[eq3] == 0 && cur[eq6] == 1:
				low[eq3]++
				s = low.score()
			case cur[eq3] == 1 && cur[eq6] == 0:
				low[eq6]++
				s = low.score()
			case cur[eq3] == 0 && cur[eq6] == 0:
				// Two lower macrovectors; use the higher one.
				alt := cur
				low[eq3]++
				alt[eq6]++
				s = math.Max(low.score(), alt.score())
			default:
				low[eq3]++
				low[eq6]++
				s = low.score()
			}
		}
		msd[d] = value - s
	}

	dist, ok := v.severityDistance(cur)
	if !ok {
		slog.Warn("cvss v4: no maximal vector found for macrovector",
			"vector", v.String(),
			"macrovector", cur.String())
	}

	var sum, n float64
	for d := range numDimension {
		if math.IsNaN(msd[d]) {
			continue
		}
		n++
		sum += msd[d] * (dist[d] / v4Depth(d, cur))
	}
	var mean float64
	if n != 0 {
		mean = sum / n
	}

	score := value - mean
	score = math.Max(score, 0)
	return math.Min(score, 10)
}

// BaseScore implements [Vector].
//
// This is the score of the vector with all threat, environmental, and
// supplemental metrics removed.
func (v V4) BaseScore() float64 {
	var b V4
	copy(b.mv[:V4ExploitMaturity], v.mv[:V4ExploitMaturity])
	return b.Score()
}

// V4Round rounds to one decimal place, as the FIRST calculator does.
func v4Round(f float64) float64 {
	const epsilon = 1e-6
	return math.Round((f+epsilon)*10) / 10
}

// SeverityDistance finds the first maximal vector of the macrovector "cur"
// that is at least as severe as "v" in every metric, and returns the distance
// to it in each scoring dimension.
func (v *V4) severityDistance(cur macrovector) (dist [numDimension]float64, ok bool) {
	var eff [numV4Metrics]int
	for m := range v4Levels {
		if v4Levels[m] != nil {
			eff[m] = v4Level(m, v.effective(V4Metric(m)))
		}
	}

	frags := [numDimension][]v4Fragment{
		dimEQ1:    v4MaxFrag.EQ1[cur[eq1]],
		dimEQ2:    v4MaxFrag.EQ2[cur[eq2]],
		dimEQ3EQ6: v4MaxFrag.EQ3EQ6[[2]uint8{cur[eq3], cur[eq6]}],
		dimEQ4:    v4MaxFrag.EQ4[cur[eq4]],
		dimEQ5:    v4MaxFrag.EQ5[cur[eq5]],
	}
	// The fragments for each dimension set disjoint metrics, so the
	// cartesian product can be searched one dimension at a time.
	for d, fs := range frags {
		var found bool
	Search:
		for _, f := range fs {
			var sum int
			for _, fv := range f {
				diff := eff[fv.Metric] - fv.Level
				if diff < 0 {
					continue Search
				}
				sum += diff
			}
			found = true
			if d != dimEQ5 {
				dist[d] = float64(sum)
			}
			break
		}
		if !found {
			return dist, false
		}
	}
	return dist, true
}

// Macrovector returns the macrovector for the vector "v".
func (v *V4) macrovector() (mvec macrovector) {
	av := v.effective(V4AttackVector)
	pr := v.effective(V4PrivilegesRequired)
	ui := v.effective(V4UserInteraction)
	ac := v.effective(V4AttackComplexity)
	at := v.effective(V4AttackRequirements)
	vc := v.effective(V4VulnerableSystemConfidentiality)
	vi := v.effective(V4VulnerableSystemIntegrity)
	va := v.effective(V4VulnerableSystemAvailability)
	sc := v.effective(V4SubsequentSystemConfidentiality)
	si := v.effective(V4SubsequentSystemIntegrity)
	sa := v.effective(V4SubsequentSystemAvailability)
	e := v.effective(V4ExploitMaturity)
	cr := v.effective(V4ConfidentialityRequirement)
	ir := v.effective(V4IntegrityRequirement)
	ar := v.effective(V4AvailabilityRequirement)

	// EQ1
	switch {
	// AV:N and PR:N and UI:N
	case av == "N" && pr == "N" && ui == "N":
		mvec[eq1] = 0
	// (AV:N or PR:N or UI:N) and not (AV:N and PR:N and UI:N) and not AV:P
	case (av == "N" || pr == "N" || ui == "N") && av != "P":
		mvec[eq1] = 1
	// AV:P or not(AV:N or PR:N or UI:N)
	default:
		mvec[eq1] = 2
	}

	// EQ2
	switch {
	// AC:L and AT:N
	case ac == "L" && at == "N":
		mvec[eq2] = 0
	// not (AC:L and AT:N)
	default:
		mvec[eq2] = 1
	}

	// EQ3
	switch {
	// VC:H and VI:H
	case vc == "H" && vi == "H":
		mvec[eq3] = 0
	// not (VC:H and VI:H) and (VC:H or VI:H or VA:H)
	case vc == "H" || vi == "H" || va == "H":
		mvec[eq3] = 1
	// not (VC:H or VI:H or VA:H)
	default:
		mvec[eq3] = 2
	}

	// EQ4
	switch {
	// MSI:S or MSA:S
	case si == "S" || sa == "S":
		mvec[eq4] = 0
	// not (MSI:S or MSA:S) and (SC:H or SI:H or SA:H)
	case sc == "H" || si == "H" || sa == "H":
		mvec[eq4] = 1
	// not (MSI:S or MSA:S) and not (SC:H or SI:H or SA:H)
	default:
		mvec[eq4] = 2
	}

	// EQ5
	switch e {
	case "A":
		mvec[eq5] = 0
	case "P":
		mvec[eq5] = 1
	default:
		mvec[eq5] = 2
	}

	// EQ6
	switch {
	// (CR:H and VC:H) or (IR:H and VI:H) or (AR:H and VA:H)
	case cr == "H" && vc == "H" || ir == "H" && vi == "H" || ar == "H" && va == "H":
		mvec[eq6] = 0
	// not (CR:H and VC:H) and not (IR:H and VI:H) and not (AR:H and VA:H)
	default:
		mvec[eq6] = 1
	}

	// EQ3 and EQ6 are scored as one dimension, using the joint table from
	// the specification. Check that the independently computed levels agree.
	v.checkJoint(mvec, vc, vi, va, cr, ir, ar)

	return mvec
}

// CheckJoint reports whether the EQ3 and EQ6 levels of "mvec" match the
// joint table, logging a warning if they do not. The independently computed
// levels are used regardless.
func (v *V4) checkJoint(mvec macrovector, vc, vi, va, cr, ir, ar string) bool {
	j3, j6 := v4JointEQ3EQ6(vc, vi, va, cr, ir, ar)
	if j3 == mvec[eq3] && j6 == mvec[eq6] {
		return true
	}
	slog.Warn("cvss v4: joint EQ3/EQ6 level disagrees with independent levels",
		"vector", v.String(),
		"eq3", mvec[eq3],
		"eq6", mvec[eq6],
		"joint_eq3", j3,
		"joint_eq6", j6)
	return false
}

// V4JointEQ3EQ6 computes the EQ3 and EQ6 levels from the joint table (Table
// 30 of the specification).
func v4JointEQ3EQ6(vc, vi, va, cr, ir, ar string) (eq3, eq6 uint8) {
	anyH := vc == "H" || vi == "H" || va == "H"
	bothH := vc == "H" && vi == "H"
	reqH := cr == "H" && vc == "H" || ir == "H" && vi == "H" || ar == "H" && va == "H"
	switch {
	case bothH && (cr == "H" || ir == "H" || ar == "H" && va == "H"):
		return 0, 0
	case bothH:
		return 0, 1
	case anyH && reqH:
		return 1, 0
	case anyH:
		return 1, 1
	default:
		return 2, 1
	}
}
