package ldmodel

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Operator identifies the comparison a Clause performs.
type Operator string

// The set of operators understood by the evaluator. An Operator value outside this list never causes
// an evaluation error; its comparison never succeeds, so the clause does not match unless Negate is set
// (see Evaluator.clauseMatchesContext in package eval).
const (
	OperatorIn                 Operator = "in"
	OperatorEndsWith           Operator = "endsWith"
	OperatorStartsWith         Operator = "startsWith"
	OperatorMatches            Operator = "matches"
	OperatorContains           Operator = "contains"
	OperatorLessThan           Operator = "lessThan"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorSegmentMatch       Operator = "segmentMatch"
	OperatorSemVerEqual        Operator = "semVerEqual"
	OperatorSemVerLessThan     Operator = "semVerLessThan"
	OperatorSemVerGreaterThan  Operator = "semVerGreaterThan"
)

// Clause describes one condition within a FlagRule or SegmentRule.
type Clause struct {
	// ContextKind is the kind of context this clause tests. Ignored (and normally unset) when Attribute
	// is "kind", since in that case the clause tests the context's kind directly. An empty value means
	// ldcontext.DefaultKind.
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	// Attribute is the context attribute to test. Ignored if Op is OperatorSegmentMatch.
	Attribute ldattr.Ref `json:"attribute"`
	// Op is the comparison to perform.
	Op Operator `json:"op"`
	// Values is compared against the context's attribute value as an OR: the clause matches if any one
	// value matches. For OperatorSegmentMatch, Values should contain exactly one string, the segment key.
	Values []ldvalue.Value `json:"values"`
	// Negate inverts the result of the clause. It is applied last, so a negated clause also matches
	// when the context has no value for Attribute.
	Negate bool `json:"negate,omitempty"`
}
