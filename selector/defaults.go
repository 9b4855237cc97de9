package selector

// Names of the default selectors.
const (
	InitialName = "initial"
	ContextName = "context"
)

// Attributes collected by the default selectors.
const (
	ProvidedAttr    = "provided"
	AssessmentsAttr = "assessments"
)

// Assessments matches no assessment entity.
var notAssessment = []Pattern{
	Not(AssessmentEntity),
	Not(AssessmentLowerEntity),
	Not(AssessmentHigherEntity),
	Not(AssessmentLowerMetricEntity),
	Not(AssessmentHigherMetricEntity),
}

// ProviderRules layer provider data: other providers first, then vectors NVD
// republished for another authority, then NVD's own.
func providerRules() []Rule {
	count := []Collector{{Provider: Count, Attribute: ProvidedAttr, SetType: Add}}
	return []Rule{
		{
			Method:     MethodAll,
			Entries:    []Entry{{Entity: append([]Pattern{Not("NVD")}, notAssessment...)}},
			Collectors: count,
		},
		{
			Method:     MethodAll,
			Entries:    []Entry{{Entity: []Pattern{"NVD"}, Authority: []Pattern{Not("NVD")}}},
			Collectors: count,
		},
		{
			Method:     MethodAll,
			Entries:    []Entry{{Entity: []Pattern{"NVD"}, Authority: []Pattern{"NVD"}}},
			Collectors: count,
		},
	}
}

func assessmentRule(m Method, entity string) Rule {
	return Rule{
		Method:     m,
		Entries:    []Entry{{Entity: []Pattern{Pattern(entity)}}},
		Collectors: []Collector{{Provider: Count, Attribute: AssessmentsAttr, SetType: Add}},
	}
}

// DefaultSelectors returns the built-in initial and context Selectors.
//
// The initial Selector considers provider data only. The context Selector
// additionally applies assessments: replacements first, then the conditional
// ones. Both discard vectors without a fully defined base.
func DefaultSelectors() (initial, context *Selector) {
	veto := []VectorEvaluator{{Operation: BaseFullyDefined, Invert: true, Action: ReturnNull}}
	initial = &Selector{
		Name:             InitialName,
		Rules:            providerRules(),
		VectorEvaluators: veto,
	}
	context = &Selector{
		Name: ContextName,
		Rules: append(providerRules(),
			assessmentRule(MethodAll, AssessmentEntity),
			assessmentRule(MethodLower, AssessmentLowerEntity),
			assessmentRule(MethodHigher, AssessmentHigherEntity),
			assessmentRule(MethodLowerMetric, AssessmentLowerMetricEntity),
			assessmentRule(MethodHigherMetric, AssessmentHigherMetricEntity),
		),
		VectorEvaluators: veto,
	}
	return initial, context
}
