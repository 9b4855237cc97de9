package selector

import (
	"fmt"
	"maps"
	"slices"

	"github.com/quay/cvssmerge/cvss"
)

// Stats are the named counters collected while running a [Selector].
//
// Attributes that were never set read as 0.
type Stats map[string]int

// Get reports the value of the attribute "k".
func (s Stats) Get(k string) int { return s[k] }

// Keys reports the set attributes, sorted.
func (s Stats) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Provider is the source of the value a [Collector] records.
type Provider uint8

// Known providers.
const (
	// Presence provides 1 if the rule matched any vectors, 0 otherwise.
	Presence Provider = iota
	// Absence provides 1 if the rule matched no vectors, 0 otherwise.
	Absence
	// Count provides the number of vectors the rule matched.
	Count
	// Applied provides 1 if the rule changed the working vector, 0
	// otherwise.
	Applied
)

var providerNames = [...]string{
	Presence: "PRESENCE",
	Absence:  "ABSENCE",
	Count:    "COUNT",
	Applied:  "APPLIED",
}

// String implements [fmt.Stringer].
func (p Provider) String() string { return enumString(providerNames[:], int(p), "Provider") }

// ParseProvider parses the name of a Provider.
func ParseProvider(s string) (Provider, error) {
	n, err := parseEnum("provider", providerNames[:], s)
	return Provider(n), err
}

// SetType is how a [Collector] combines the provided value with the
// attribute's current value.
type SetType uint8

// Known set types.
const (
	Add SetType = iota
	Subtract
	Set
	Max
	Min
)

var setTypeNames = [...]string{
	Add:      "ADD",
	Subtract: "SUBTRACT",
	Set:      "SET",
	Max:      "MAX",
	Min:      "MIN",
}

// String implements [fmt.Stringer].
func (t SetType) String() string { return enumString(setTypeNames[:], int(t), "SetType") }

// ParseSetType parses the name of a SetType.
func ParseSetType(s string) (SetType, error) {
	n, err := parseEnum("set type", setTypeNames[:], s)
	return SetType(n), err
}

// Collector records a statistic about a rule into an attribute.
//
// Collectors run whether or not the rule matched anything.
type Collector struct {
	Provider  Provider
	Attribute string
	SetType   SetType
}

// Collect records the statistic for a rule that matched "matched" vectors and
// did or did not change the working vector.
func (c *Collector) collect(st Stats, matched int, applied bool) {
	var v int
	switch c.Provider {
	case Presence:
		v = b2i(matched > 0)
	case Absence:
		v = b2i(matched == 0)
	case Count:
		v = matched
	case Applied:
		v = b2i(applied)
	}
	cur := st[c.Attribute]
	switch c.SetType {
	case Add:
		cur += v
	case Subtract:
		cur -= v
	case Set:
		cur = v
	case Max:
		cur = max(cur, v)
	case Min:
		cur = min(cur, v)
	}
	st[c.Attribute] = cur
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Action is what an evaluator does when it triggers.
type Action uint8

// Known actions.
const (
	// ReturnNull vetoes the result: the Selector produces no vector.
	ReturnNull Action = iota
	// Fail causes the Selector to return an error.
	Fail
)

var actionNames = [...]string{
	ReturnNull: "RETURN_NULL",
	Fail:       "FAIL",
}

// String implements [fmt.Stringer].
func (a Action) String() string { return enumString(actionNames[:], int(a), "Action") }

// ParseAction parses the name of an Action.
func ParseAction(s string) (Action, error) {
	n, err := parseEnum("action", actionNames[:], s)
	return Action(n), err
}

// Comparator compares a collected attribute against a constant.
type Comparator uint8

// Known comparators.
const (
	Equal Comparator = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

var comparatorNames = [...]string{
	Equal:          "EQUAL",
	NotEqual:       "NOT_EQUAL",
	Less:           "LESS",
	LessOrEqual:    "LESS_OR_EQUAL",
	Greater:        "GREATER",
	GreaterOrEqual: "GREATER_OR_EQUAL",
}

// String implements [fmt.Stringer].
func (c Comparator) String() string { return enumString(comparatorNames[:], int(c), "Comparator") }

// ParseComparator parses the name of a Comparator.
func ParseComparator(s string) (Comparator, error) {
	n, err := parseEnum("comparator", comparatorNames[:], s)
	return Comparator(n), err
}

func (c Comparator) compare(a, b int) bool {
	switch c {
	case Equal:
		return a == b
	case NotEqual:
		return a != b
	case Less:
		return a < b
	case LessOrEqual:
		return a <= b
	case Greater:
		return a > b
	case GreaterOrEqual:
		return a >= b
	}
	panic(fmt.Sprintf("programmer error: unknown comparator %d", c))
}

// StatsEvaluator triggers its Action when the collected Attribute compares
// true against Value.
//
// For example, to discard the result if no assessment vectors were found:
//
//	StatsEvaluator{Attribute: "assessments", Comparator: Less, Value: 1, Action: ReturnNull}
type StatsEvaluator struct {
	Attribute  string
	Comparator Comparator
	Value      int
	Action     Action
}

// Triggered reports whether the evaluator's Action should be taken.
func (e *StatsEvaluator) Triggered(st Stats) bool {
	return e.Comparator.compare(st.Get(e.Attribute), e.Value)
}

// String implements [fmt.Stringer].
func (e StatsEvaluator) String() string {
	return fmt.Sprintf("%s %v %d -> %v", e.Attribute, e.Comparator, e.Value, e.Action)
}

// Operation is a property of a vector checked by a [VectorEvaluator].
type Operation uint8

// Known operations.
const (
	// BaseFullyDefined is true if every base metric is defined.
	BaseFullyDefined Operation = iota
	// BasePartiallyDefined is true if some, but not all, base metrics are
	// defined.
	BasePartiallyDefined
	// BaseUndefined is true if no base metrics are defined. It is true for
	// the absent vector.
	BaseUndefined
)

var operationNames = [...]string{
	BaseFullyDefined:     "BASE_FULLY_DEFINED",
	BasePartiallyDefined: "BASE_PARTIALLY_DEFINED",
	BaseUndefined:        "BASE_UNDEFINED",
}

// String implements [fmt.Stringer].
func (o Operation) String() string { return enumString(operationNames[:], int(o), "Operation") }

// ParseOperation parses the name of an Operation.
func ParseOperation(s string) (Operation, error) {
	n, err := parseEnum("operation", operationNames[:], s)
	return Operation(n), err
}

// VectorEvaluator triggers its Action when the Operation holds for the
// selected vector, or when it does not hold if Invert is set.
//
// For example, to discard results that can't be scored:
//
//	VectorEvaluator{Operation: BaseFullyDefined, Invert: true, Action: ReturnNull}
type VectorEvaluator struct {
	Operation Operation
	Invert    bool
	Action    Action
}

// Triggered reports whether the evaluator's Action should be taken for the
// vector "v", which may be nil.
func (e *VectorEvaluator) Triggered(v cvss.Vector) bool {
	var n, total int
	if v != nil {
		n, total = cvss.BaseDefined(v)
	}
	var ok bool
	switch e.Operation {
	case BaseFullyDefined:
		ok = v != nil && n == total
	case BasePartiallyDefined:
		ok = n > 0 && n < total
	case BaseUndefined:
		ok = n == 0
	default:
		panic(fmt.Sprintf("programmer error: unknown operation %d", e.Operation))
	}
	return ok != e.Invert
}

// String implements [fmt.Stringer].
func (e VectorEvaluator) String() string {
	not := ""
	if e.Invert {
		not = "!"
	}
	return fmt.Sprintf("%s%v -> %v", not, e.Operation, e.Action)
}

func enumString(names []string, i int, kind string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", kind, i)
}
