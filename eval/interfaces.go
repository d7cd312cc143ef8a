// Package eval implements the core flag evaluation algorithm: given a feature flag, a set of
// segments, and an evaluation context, it produces an EvaluationDetail describing the result.
//
// This package has no knowledge of how flags and segments are stored or transported. It is driven
// entirely through the DataProvider and BigSegmentProvider interfaces, so it can be reused by
// callers that already have flag/segment data in hand (such as the Relay Proxy) as well as by the
// main SDK's data system.
package eval

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"

	"github.com/fctrl/go-server-sdk/ldmodel"
)

// DataProvider is the interface through which the Evaluator reads flags and segments.
//
// Implementations are not required to be safe for concurrent modification, but they do need to be
// safe for concurrent reads, since evaluations may happen on any number of goroutines.
type DataProvider interface {
	// GetFeatureFlag returns the flag with the given key, or false if it does not exist (or was
	// deleted).
	GetFeatureFlag(key string) (*ldmodel.FeatureFlag, bool)

	// GetSegment returns the segment with the given key, or false if it does not exist (or was
	// deleted).
	GetSegment(key string) (*ldmodel.Segment, bool)
}

// BigSegmentProvider is the interface through which the Evaluator queries Big Segment
// membership. It is implemented by ldcomponents/ldstoreimpl.BigSegmentStoreWrapper; tests can use
// a simpler implementation.
type BigSegmentProvider interface {
	// GetMembership returns the Big Segment membership state for the context with the given key,
	// plus a status describing whether that state can be trusted.
	GetMembership(contextKey string) (ldreason.BigSegmentsStatus, Membership)
}

// Membership abstracts over the membership query result for a single context, so the evaluator
// does not need to depend on any particular store's representation.
type Membership interface {
	// CheckMembership reports whether the context is included in, excluded from, or has no
	// recorded status (ok == false) for the segment identified by segmentRef.
	CheckMembership(segmentRef string) (included bool, ok bool)
}

// PrerequisiteEvalRecord describes the result of evaluating one prerequisite flag while
// evaluating some other flag.
type PrerequisiteEvalRecord struct {
	// Prerequisite is the flag that was evaluated.
	Prerequisite *ldmodel.FeatureFlag
	// Result is the detail produced by evaluating the prerequisite.
	Result ldreason.EvaluationDetail
}

// Result is the output of a top-level Evaluate call.
type Result struct {
	// Detail is the evaluation result.
	Detail ldreason.EvaluationDetail
	// PrerequisiteEvals records every prerequisite flag that was evaluated along the way, in the
	// order they were evaluated, regardless of whether evaluation of the top-level flag ultimately
	// succeeded.
	PrerequisiteEvals []PrerequisiteEvalRecord
}

// Evaluator performs flag evaluations against a DataProvider and, optionally, a
// BigSegmentProvider.
type Evaluator struct {
	dataProvider       DataProvider
	bigSegmentProvider BigSegmentProvider
	errorLogger        func(string)
}

// NewEvaluator creates an Evaluator that reads flags and segments from the given DataProvider. Big
// Segment support is disabled until WithBigSegments is applied.
func NewEvaluator(dataProvider DataProvider) *Evaluator {
	return &Evaluator{dataProvider: dataProvider}
}

// EvaluatorOption configures an Evaluator constructed with NewEvaluatorWithOptions.
type EvaluatorOption func(*Evaluator)

// WithBigSegments attaches a BigSegmentProvider to the Evaluator, enabling evaluation of segments
// that have Unbounded set.
func WithBigSegments(provider BigSegmentProvider) EvaluatorOption {
	return func(e *Evaluator) { e.bigSegmentProvider = provider }
}

// WithErrorLogger attaches a callback invoked whenever the evaluator detects malformed flag data.
// The callback is invoked each time the malformed data is encountered; repeated errors for the same
// item are not deduplicated.
func WithErrorLogger(logger func(string)) EvaluatorOption {
	return func(e *Evaluator) { e.errorLogger = logger }
}

// NewEvaluatorWithOptions creates an Evaluator with additional options beyond the DataProvider.
func NewEvaluatorWithOptions(dataProvider DataProvider, options ...EvaluatorOption) *Evaluator {
	e := NewEvaluator(dataProvider)
	for _, o := range options {
		o(e)
	}
	return e
}

func (e *Evaluator) logError(message string) {
	if e.errorLogger != nil {
		e.errorLogger(message)
	}
}

// individualContext returns the individual context of the given kind within the context (an empty
// kind means the default "user" kind), and whether such an individual context exists.
func individualContext(context ldcontext.Context, kind ldcontext.Kind) (ldcontext.Context, bool) {
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	ic := context.IndividualContextByKind(kind)
	return ic, ic.IsDefined()
}
