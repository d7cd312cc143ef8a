package eval

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/fctrl/go-server-sdk/ldmodel"
)

//nolint:gochecknoglobals // immutable constants, not mutable state
var (
	keyRef = ldattr.NewLiteralRef(ldattr.KeyAttr)
	noSeed = ldvalue.OptionalInt{}
)

type malformedFlagError struct {
	message string
}

func (e malformedFlagError) Error() string { return e.message }

func errMalformedFlag(message string) error {
	return malformedFlagError{message: message}
}

// evalState carries the per-top-level-evaluation state that needs to be threaded through
// recursive prerequisite and segment-match calls: the cycle-detection stack of flag keys, the
// accumulated prerequisite evaluation records, and Big Segment bookkeeping.
type evalState struct {
	flagStack    []string
	prereqEvals  []PrerequisiteEvalRecord
	segmentState segmentMatchContext
}

// Evaluate computes the EvaluationDetail for a flag against a context. defaultValue is returned
// (wrapped in a detail with an ERROR reason) whenever evaluation cannot proceed normally.
func (e *Evaluator) Evaluate(flag *ldmodel.FeatureFlag, context ldcontext.Context, defaultValue ldvalue.Value) Result {
	if context.Err() != nil {
		return Result{Detail: errorDetail(ldreason.EvalErrorUserNotSpecified, defaultValue)}
	}
	if flag == nil {
		return Result{Detail: errorDetail(ldreason.EvalErrorFlagNotFound, defaultValue)}
	}

	state := &evalState{}
	detail, err := e.evaluateInternal(flag, context, defaultValue, state)
	if err != nil {
		e.logError(err.Error())
		detail = errorDetail(ldreason.EvalErrorMalformedFlag, defaultValue)
	}

	if state.segmentState.bigSegmentsQueried {
		detail.Reason = ldreason.NewEvalReasonFromReasonWithBigSegmentsStatus(detail.Reason, state.segmentState.bigSegmentsStatus)
	}

	return Result{Detail: detail, PrerequisiteEvals: state.prereqEvals}
}

func (e *Evaluator) evaluateInternal(
	flag *ldmodel.FeatureFlag,
	context ldcontext.Context,
	defaultValue ldvalue.Value,
	state *evalState,
) (ldreason.EvaluationDetail, error) {
	if !flag.On {
		return e.offResult(flag, defaultValue), nil
	}

	for _, s := range state.flagStack {
		if s == flag.Key {
			return ldreason.EvaluationDetail{}, errMalformedFlag("flag prerequisite cycle detected for key " + flag.Key)
		}
	}
	state.flagStack = append(state.flagStack, flag.Key)
	defer func() { state.flagStack = state.flagStack[:len(state.flagStack)-1] }()

	prereqFailedKey, err := e.checkPrerequisites(flag, context, state)
	if err != nil {
		return ldreason.EvaluationDetail{}, err
	}
	if prereqFailedKey != "" {
		return e.detailForVariationOrError(flag, flag.OffVariation, defaultValue,
			ldreason.NewEvalReasonPrerequisiteFailed(prereqFailedKey))
	}

	if detail, matched, err := e.checkTargets(flag, context, defaultValue); err != nil || matched {
		return detail, err
	}

	for i, rule := range flag.Rules {
		matched, err := e.ruleMatchesContext(context, rule, &state.segmentState)
		if err != nil {
			return ldreason.EvaluationDetail{}, err
		}
		if matched {
			return e.detailForVariationOrRollout(flag, rule.VariationOrRollout, context, defaultValue,
				func(inExperiment bool) ldreason.EvaluationReason {
					return ldreason.NewEvalReasonRuleMatchExperiment(i, rule.ID, inExperiment)
				},
				func() ldreason.EvaluationReason { return ldreason.NewEvalReasonRuleMatch(i, rule.ID) },
			)
		}
	}

	return e.detailForVariationOrRollout(flag, flag.Fallthrough, context, defaultValue,
		func(inExperiment bool) ldreason.EvaluationReason {
			return ldreason.NewEvalReasonFallthroughExperiment(inExperiment)
		},
		func() ldreason.EvaluationReason { return ldreason.NewEvalReasonFallthrough() },
	)
}

func (e *Evaluator) offResult(flag *ldmodel.FeatureFlag, defaultValue ldvalue.Value) ldreason.EvaluationDetail {
	detail, err := e.detailForVariationOrError(flag, flag.OffVariation, defaultValue, ldreason.NewEvalReasonOff())
	if err != nil {
		e.logError(err.Error())
		return errorDetail(ldreason.EvalErrorMalformedFlag, defaultValue)
	}
	return detail
}

// checkPrerequisites evaluates the prerequisites in order and stops at the first one that fails,
// recording a PrerequisiteEvalRecord for each prerequisite flag it evaluated, whether or not that
// flag passed. It returns the key of the first prerequisite that failed (flag not found, flag off,
// or wrong variation), or "" if all prerequisites passed.
func (e *Evaluator) checkPrerequisites(
	flag *ldmodel.FeatureFlag,
	context ldcontext.Context,
	state *evalState,
) (string, error) {
	for _, prereq := range flag.Prerequisites {
		prereqFlag, ok := e.dataProvider.GetFeatureFlag(prereq.Key)
		if !ok {
			return prereq.Key, nil
		}

		detail, err := e.evaluateInternal(prereqFlag, context, ldvalue.Null(), state)
		if err != nil {
			return "", err
		}
		state.prereqEvals = append(state.prereqEvals, PrerequisiteEvalRecord{
			Prerequisite: prereqFlag,
			Result:       detail,
		})

		if !prereqFlag.On || detail.VariationIndex.OrElse(-1) != prereq.Variation {
			return prereq.Key, nil
		}
	}
	return "", nil
}

// checkTargets implements context_targets-before-legacy-targets precedence: if the flag has any
// context_targets, only those are consulted (context_targets includes a user-kind list mirroring
// the legacy targets, generated when the flag data was produced). Otherwise fall back to the
// legacy targets list, which is always for the default ("user") kind.
func (e *Evaluator) checkTargets(
	flag *ldmodel.FeatureFlag,
	context ldcontext.Context,
	defaultValue ldvalue.Value,
) (ldreason.EvaluationDetail, bool, error) {
	targets := flag.ContextTargets
	if len(targets) == 0 {
		targets = flag.Targets
	}
	for _, t := range targets {
		ic, ok := individualContext(context, t.ContextKind)
		if !ok || !contains(t.Values, ic.Key()) {
			continue
		}
		detail, err := e.detailForVariationOrError(flag, ldvalue.NewOptionalInt(t.Variation), defaultValue,
			ldreason.NewEvalReasonTargetMatch())
		return detail, true, err
	}
	return ldreason.EvaluationDetail{}, false, nil
}

func (e *Evaluator) ruleMatchesContext(
	context ldcontext.Context,
	rule ldmodel.FlagRule,
	smc *segmentMatchContext,
) (bool, error) {
	for _, clause := range rule.Clauses {
		matched, err := e.clauseMatchesContext(context, clause, smc)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) clauseMatchesContext(
	context ldcontext.Context,
	clause ldmodel.Clause,
	smc *segmentMatchContext,
) (bool, error) {
	var matched bool
	var err error

	switch {
	case clause.Op == ldmodel.OperatorSegmentMatch:
		matched, err = e.clauseMatchesAnySegment(context, clause, smc)
	case clause.Attribute.String() == ldattr.KindAttr:
		matched = clauseMatchesKind(context, clause)
	default:
		matched = e.clauseMatchesAttribute(context, clause)
	}
	if err != nil {
		return false, err
	}
	if clause.Negate {
		return !matched, nil
	}
	return matched, nil
}

func (e *Evaluator) clauseMatchesAnySegment(
	context ldcontext.Context,
	clause ldmodel.Clause,
	smc *segmentMatchContext,
) (bool, error) {
	for _, v := range clause.Values {
		if !v.IsString() {
			continue
		}
		matched, err := e.matchSegment(context, v.StringValue(), smc)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func clauseMatchesKind(context ldcontext.Context, clause ldmodel.Clause) bool {
	for i := 0; i < context.IndividualContextCount(); i++ {
		ic := context.IndividualContextByIndex(i)
		kindValue := ldvalue.String(string(ic.Kind()))
		if matchesAnyClauseValue(clause, kindValue) {
			return true
		}
	}
	return false
}

func (e *Evaluator) clauseMatchesAttribute(context ldcontext.Context, clause ldmodel.Clause) bool {
	ic, ok := individualContext(context, clause.ContextKind)
	if !ok {
		return false
	}
	value := ic.GetValueForRef(clause.Attribute)
	if value.IsNull() {
		return false
	}
	if value.Type() == ldvalue.ArrayType {
		for i := 0; i < value.Count(); i++ {
			if matchesAnyClauseValue(clause, value.GetByIndex(i)) {
				return true
			}
		}
		return false
	}
	return matchesAnyClauseValue(clause, value)
}

func matchesAnyClauseValue(clause ldmodel.Clause, contextValue ldvalue.Value) bool {
	for _, v := range clause.Values {
		if matchOperator(clause.Op, contextValue, v) {
			return true
		}
	}
	return false
}

// detailForVariationOrRollout resolves a VariationOrRollout to a variation and builds a detail,
// using matchReason to build the EvaluationReason when the resolution came from a rollout (the
// bool tells it whether the flag is in an experiment) or plainReason when it came from a fixed
// variation index.
func (e *Evaluator) detailForVariationOrRollout(
	flag *ldmodel.FeatureFlag,
	vr ldmodel.VariationOrRollout,
	context ldcontext.Context,
	defaultValue ldvalue.Value,
	matchReason func(inExperiment bool) ldreason.EvaluationReason,
	plainReason func() ldreason.EvaluationReason,
) (ldreason.EvaluationDetail, error) {
	if !vr.IsRollout() {
		return e.detailForVariationOrError(flag, vr.Variation, defaultValue, plainReason())
	}

	variation, inExperiment, ok := resolveRollout(flag, vr.Rollout, context)
	if !ok {
		return errorDetail(ldreason.EvalErrorMalformedFlag, defaultValue), errMalformedFlag("rollout has no variations for flag " + flag.Key)
	}
	return e.detailForVariationOrError(flag, ldvalue.NewOptionalInt(variation), defaultValue, matchReason(inExperiment))
}

// resolveRollout walks a rollout's weighted variations, accumulating weight/100000 until the
// running total exceeds the context's bucket value. If no variation is reached due to rounding,
// the last variation in the list is returned rather than treating this as an error.
func resolveRollout(flag *ldmodel.FeatureFlag, rollout ldmodel.Rollout, context ldcontext.Context) (int, bool, bool) {
	if len(rollout.Variations) == 0 {
		return 0, false, false
	}

	bucketBy := rollout.BucketBy
	if !bucketBy.IsDefined() {
		bucketBy = keyRef
	}

	bucket, ok := bucketContext(context, rollout.ContextKind, flag.Key, bucketBy, flag.Salt, rollout.Seed)
	if !ok {
		bucket = 0
	}

	var sum float32
	for _, wv := range rollout.Variations {
		sum += float32(wv.Weight) / 100000.0
		if bucket < sum {
			inExperiment := rollout.IsExperiment() && !wv.Untracked
			return wv.Variation, inExperiment, true
		}
	}

	last := rollout.Variations[len(rollout.Variations)-1]
	inExperiment := rollout.IsExperiment() && !last.Untracked
	return last.Variation, inExperiment, true
}

func (e *Evaluator) detailForVariationOrError(
	flag *ldmodel.FeatureFlag,
	variation ldvalue.OptionalInt,
	defaultValue ldvalue.Value,
	reason ldreason.EvaluationReason,
) (ldreason.EvaluationDetail, error) {
	index, ok := variation.Get()
	if !ok {
		return ldreason.EvaluationDetail{Value: ldvalue.Null(), Reason: reason}, nil
	}
	if index < 0 || index >= len(flag.Variations) {
		return ldreason.EvaluationDetail{}, errMalformedFlag("variation index out of range for flag " + flag.Key)
	}
	return ldreason.NewEvaluationDetail(flag.Variations[index], index, reason), nil
}

func errorDetail(kind ldreason.EvalErrorKind, defaultValue ldvalue.Value) ldreason.EvaluationDetail {
	return ldreason.NewEvaluationDetailForError(kind, defaultValue)
}
