package eval

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fctrl/go-server-sdk/ldbuilders"
	"github.com/fctrl/go-server-sdk/ldmodel"
)

type testDataProvider struct {
	flags    map[string]*ldmodel.FeatureFlag
	segments map[string]*ldmodel.Segment
}

func newTestDataProvider() *testDataProvider {
	return &testDataProvider{flags: map[string]*ldmodel.FeatureFlag{}, segments: map[string]*ldmodel.Segment{}}
}

func (p *testDataProvider) addFlag(f ldmodel.FeatureFlag) {
	p.flags[f.Key] = &f
}

func (p *testDataProvider) addSegment(s ldmodel.Segment) {
	p.segments[s.Key] = &s
}

func (p *testDataProvider) GetFeatureFlag(key string) (*ldmodel.FeatureFlag, bool) {
	f, ok := p.flags[key]
	return f, ok
}

func (p *testDataProvider) GetSegment(key string) (*ldmodel.Segment, bool) {
	s, ok := p.segments[key]
	return s, ok
}

type testMembership map[string]bool

func (m testMembership) CheckMembership(segmentRef string) (bool, bool) {
	v, ok := m[segmentRef]
	return v, ok
}

type testBigSegmentProvider struct {
	status      ldreason.BigSegmentsStatus
	memberships map[string]testMembership
	queries     int
}

func (p *testBigSegmentProvider) GetMembership(contextKey string) (ldreason.BigSegmentsStatus, Membership) {
	p.queries++
	m, ok := p.memberships[contextKey]
	if !ok {
		return p.status, nil
	}
	return p.status, m
}

var basicUser = ldcontext.New("user-key")

func boolVariations() []ldvalue.Value {
	return []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)}
}

func TestEvaluateFlagOff(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(false).
		OffVariation(0).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(false), result.Detail.Value)
	assert.Equal(t, 0, result.Detail.VariationIndex.OrElse(-1))
	assert.Equal(t, ldreason.NewEvalReasonOff(), result.Detail.Reason)
}

func TestEvaluateFlagOffWithNoOffVariation(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(false).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(true))

	assert.True(t, result.Detail.Value.IsNull())
	assert.False(t, result.Detail.VariationIndex.IsDefined())
	assert.Equal(t, ldreason.NewEvalReasonOff(), result.Detail.Reason)
}

func TestEvaluateFlagFallthrough(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(1).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonFallthrough(), result.Detail.Reason)
}

func TestEvaluateTargetMatch(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddTarget(1, "user-key").
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonTargetMatch(), result.Detail.Reason)
}

func TestEvaluateContextTargetTakesPrecedenceOverLegacyTarget(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddTarget(1, "user-key").
		AddContextTarget(ldcontext.DefaultKind, 0, "someone-else").
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	// Since ContextTargets is non-empty it takes precedence, and user-key is not listed there, so
	// the flag falls through to the fallthrough variation rather than matching the legacy target.
	assert.Equal(t, ldvalue.Bool(false), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonFallthrough(), result.Detail.Reason)
}

func TestEvaluateRuleMatch(t *testing.T) {
	rule := ldbuilders.NewRuleBuilder().
		ID("rule1").
		Clauses(ldbuilders.Clause("email", ldmodel.OperatorIn, ldvalue.String("a@b.com"))).
		Variation(1)

	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddRule(rule).
		Variations(boolVariations()...).
		Build()

	context := ldcontext.NewBuilder("user-key").SetString("email", "a@b.com").Build()
	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, context, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonRuleMatch(0, "rule1"), result.Detail.Reason)
}

func TestEvaluatePrerequisiteFailedWhenOff(t *testing.T) {
	provider := newTestDataProvider()
	prereq := ldbuilders.NewFlagBuilder("prereq").
		On(false).
		OffVariation(0).
		Variations(boolVariations()...).
		Build()
	provider.addFlag(prereq)

	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(1).
		AddPrerequisite("prereq", 1).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(provider).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(false), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonPrerequisiteFailed("prereq"), result.Detail.Reason)
	require.Len(t, result.PrerequisiteEvals, 1)
	assert.Equal(t, "prereq", result.PrerequisiteEvals[0].Prerequisite.Key)
}

func TestEvaluatePrerequisiteSucceeds(t *testing.T) {
	provider := newTestDataProvider()
	prereq := ldbuilders.NewFlagBuilder("prereq").
		On(true).
		OffVariation(0).
		FallthroughVariation(1).
		Variations(boolVariations()...).
		Build()
	provider.addFlag(prereq)

	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(1).
		AddPrerequisite("prereq", 1).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(provider).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonFallthrough(), result.Detail.Reason)
	require.Len(t, result.PrerequisiteEvals, 1)
}

func TestEvaluatePrerequisiteCycleIsMalformed(t *testing.T) {
	provider := newTestDataProvider()

	flagA := ldbuilders.NewFlagBuilder("flagA").
		On(true).
		OffVariation(0).
		FallthroughVariation(1).
		AddPrerequisite("flagB", 1).
		Variations(boolVariations()...).
		Build()
	flagB := ldbuilders.NewFlagBuilder("flagB").
		On(true).
		OffVariation(0).
		FallthroughVariation(1).
		AddPrerequisite("flagA", 1).
		Variations(boolVariations()...).
		Build()
	provider.addFlag(flagA)
	provider.addFlag(flagB)

	result := NewEvaluator(provider).Evaluate(&flagA, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldreason.EvalErrorMalformedFlag, result.Detail.Reason.GetErrorKind())
}

func TestEvaluateSegmentMatch(t *testing.T) {
	provider := newTestDataProvider()
	provider.addSegment(ldbuilders.NewSegmentBuilder("segment1").Included("user-key").Build())

	rule := ldbuilders.NewRuleBuilder().
		ID("rule1").
		Clauses(ldbuilders.SegmentMatchClause("segment1")).
		Variation(1)
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddRule(rule).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(provider).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, ldreason.NewEvalReasonRuleMatch(0, "rule1"), result.Detail.Reason)
}

func TestEvaluateSegmentCycleIsMalformed(t *testing.T) {
	provider := newTestDataProvider()
	provider.addSegment(ldbuilders.NewSegmentBuilder("segment1").
		AddRule(ldbuilders.NewSegmentRuleBuilder().Clauses(ldbuilders.SegmentMatchClause("segment1"))).
		Build())

	rule := ldbuilders.NewRuleBuilder().
		Clauses(ldbuilders.SegmentMatchClause("segment1")).
		Variation(1)
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddRule(rule).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(provider).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldreason.EvalErrorMalformedFlag, result.Detail.Reason.GetErrorKind())
}

func TestEvaluateBigSegmentNotConfigured(t *testing.T) {
	provider := newTestDataProvider()
	provider.addSegment(ldbuilders.NewSegmentBuilder("segment1").Unbounded(ldcontext.DefaultKind, 1).Build())

	rule := ldbuilders.NewRuleBuilder().Clauses(ldbuilders.SegmentMatchClause("segment1")).Variation(1)
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddRule(rule).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(provider).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(false), result.Detail.Value)
	assert.Equal(t, ldreason.BigSegmentsNotConfigured, result.Detail.Reason.GetBigSegmentsStatus())
}

func TestEvaluateBigSegmentMembership(t *testing.T) {
	provider := newTestDataProvider()
	provider.addSegment(ldbuilders.NewSegmentBuilder("segment1").Unbounded(ldcontext.DefaultKind, 2).Build())

	bigSegments := &testBigSegmentProvider{
		status: ldreason.BigSegmentsHealthy,
		memberships: map[string]testMembership{
			"user-key": {"segment1.g2": true},
		},
	}

	rule := ldbuilders.NewRuleBuilder().Clauses(ldbuilders.SegmentMatchClause("segment1")).Variation(1)
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddRule(rule).
		Variations(boolVariations()...).
		Build()

	evaluator := NewEvaluatorWithOptions(provider, WithBigSegments(bigSegments))
	result := evaluator.Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, ldreason.BigSegmentsHealthy, result.Detail.Reason.GetBigSegmentsStatus())
	assert.Equal(t, 1, bigSegments.queries)
}

func TestEvaluateRollout(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		Fallthrough(ldbuilders.Rollout(ldbuilders.Bucket(0, 0), ldbuilders.Bucket(1, 100000))).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	// With a 0% weight on variation 0 and 100% on variation 1, every context lands on variation 1.
	assert.Equal(t, ldvalue.Bool(true), result.Detail.Value)
	assert.Equal(t, 1, result.Detail.VariationIndex.OrElse(-1))
}

func TestEvaluateExperimentRolloutSetsInExperiment(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		Fallthrough(ldbuilders.ExperimentRollout(42, ldbuilders.Bucket(1, 100000))).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.True(t, result.Detail.Reason.IsInExperiment())
}

func TestEvaluateUnknownOperatorNeverMatches(t *testing.T) {
	rule := ldbuilders.NewRuleBuilder().
		Clauses(ldbuilders.Clause("email", "bogusOperator", ldvalue.String("x"))).
		Variation(1)
	flag := ldbuilders.NewFlagBuilder("flag").
		On(true).
		OffVariation(0).
		FallthroughVariation(0).
		AddRule(rule).
		Variations(boolVariations()...).
		Build()

	result := NewEvaluator(newTestDataProvider()).Evaluate(&flag, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldreason.NewEvalReasonFallthrough(), result.Detail.Reason)
}

func TestEvaluateContextError(t *testing.T) {
	result := NewEvaluator(newTestDataProvider()).Evaluate(
		&ldmodel.FeatureFlag{Key: "flag"}, ldcontext.Context{}, ldvalue.Bool(false))

	assert.Equal(t, ldreason.EvalErrorUserNotSpecified, result.Detail.Reason.GetErrorKind())
}

func TestEvaluateFlagNotFound(t *testing.T) {
	result := NewEvaluator(newTestDataProvider()).Evaluate(nil, basicUser, ldvalue.Bool(false))

	assert.Equal(t, ldreason.EvalErrorFlagNotFound, result.Detail.Reason.GetErrorKind())
}
