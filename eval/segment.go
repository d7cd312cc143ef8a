package eval

import (
	"strconv"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"

	"github.com/fctrl/go-server-sdk/ldmodel"
)

// segmentKey formats the membership lookup key for a particular generation of a Big Segment, as
// used by BigSegmentProvider/Membership.
func segmentKey(segmentKey string, generation int) string {
	return segmentKey + ".g" + strconv.Itoa(generation)
}

// segmentMatchContext carries the per-evaluation state needed while matching segments: the
// cycle-detection stack of segment keys currently being evaluated, and a cache of Big Segment
// membership query results so a context is only queried once per evaluation even if referenced by
// several segments.
type segmentMatchContext struct {
	stack              []string
	bigSegmentsStatus  ldreason.BigSegmentsStatus
	bigSegmentsQueried bool
	membershipCache    map[string]Membership
}

func (e *Evaluator) matchSegment(
	context ldcontext.Context,
	key string,
	smc *segmentMatchContext,
) (bool, error) {
	for _, s := range smc.stack {
		if s == key {
			return false, errMalformedFlag("segment rule references its own segment, forming a cycle")
		}
	}

	segment, ok := e.dataProvider.GetSegment(key)
	if !ok {
		return false, nil
	}

	smc.stack = append(smc.stack, key)
	defer func() { smc.stack = smc.stack[:len(smc.stack)-1] }()

	return e.segmentContainsContext(context, segment, smc)
}

func (e *Evaluator) segmentContainsContext(
	context ldcontext.Context,
	segment *ldmodel.Segment,
	smc *segmentMatchContext,
) (bool, error) {
	if segment.Unbounded {
		return e.bigSegmentContainsContext(context, segment, smc)
	}

	kind := ldcontext.DefaultKind
	ic, ok := individualContext(context, kind)
	if ok {
		if contains(segment.Included, ic.Key()) {
			return true, nil
		}
	}
	for _, t := range segment.IncludedContexts {
		if ic, ok := individualContext(context, t.ContextKind); ok && contains(t.Values, ic.Key()) {
			return true, nil
		}
	}
	if ok && contains(segment.Excluded, ic.Key()) {
		return false, nil
	}
	for _, t := range segment.ExcludedContexts {
		if ic, ok := individualContext(context, t.ContextKind); ok && contains(t.Values, ic.Key()) {
			return false, nil
		}
	}

	return e.matchSegmentRules(context, segment, smc)
}

func (e *Evaluator) bigSegmentContainsContext(
	context ldcontext.Context,
	segment *ldmodel.Segment,
	smc *segmentMatchContext,
) (bool, error) {
	generation, ok := segment.Generation.Get()
	if !ok {
		smc.bigSegmentsStatus = ldreason.BigSegmentsNotConfigured
		smc.bigSegmentsQueried = true
		return e.matchSegmentRules(context, segment, smc)
	}

	ic, ok := individualContext(context, segment.UnboundedContextKind)
	if !ok {
		return false, nil
	}

	if e.bigSegmentProvider == nil {
		smc.bigSegmentsStatus = ldreason.BigSegmentsNotConfigured
		smc.bigSegmentsQueried = true
		return e.matchSegmentRules(context, segment, smc)
	}

	membership := e.lookupBigSegmentMembership(ic.Key(), smc)

	if membership != nil {
		if included, ok := membership.CheckMembership(segmentKey(segment.Key, generation)); ok {
			return included, nil
		}
	}
	return e.matchSegmentRules(context, segment, smc)
}

// lookupBigSegmentMembership queries (and caches) Big Segment membership for a context key,
// folding the resulting status into the evaluation-wide status: once any query in this evaluation
// reports something other than HEALTHY, that status sticks for the rest of the evaluation, since
// the overall reason can only carry one value.
func (e *Evaluator) lookupBigSegmentMembership(
	contextKey string,
	smc *segmentMatchContext,
) Membership {
	if smc.membershipCache == nil {
		smc.membershipCache = make(map[string]Membership)
	}
	if m, ok := smc.membershipCache[contextKey]; ok {
		return m
	}

	status, membership := e.bigSegmentProvider.GetMembership(contextKey)
	smc.membershipCache[contextKey] = membership
	if !smc.bigSegmentsQueried || status != ldreason.BigSegmentsHealthy {
		smc.bigSegmentsStatus = status
	}
	smc.bigSegmentsQueried = true
	return membership
}

func (e *Evaluator) matchSegmentRules(
	context ldcontext.Context,
	segment *ldmodel.Segment,
	smc *segmentMatchContext,
) (bool, error) {
	for _, rule := range segment.Rules {
		matched, err := e.segmentRuleMatchesContext(context, segment, rule, smc)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) segmentRuleMatchesContext(
	context ldcontext.Context,
	segment *ldmodel.Segment,
	rule ldmodel.SegmentRule,
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

	weight, hasWeight := rule.Weight.Get()
	if !hasWeight {
		return true, nil
	}

	bucketBy := rule.BucketBy
	if !bucketBy.IsDefined() {
		bucketBy = keyRef
	}
	bucket, ok := bucketContext(context, rule.RolloutContextKind, segment.Key, bucketBy, segment.Salt, noSeed)
	if !ok {
		return false, nil
	}
	return bucket < float32(weight)/100000.0, nil
}

func contains(values []string, key string) bool {
	for _, v := range values {
		if v == key {
			return true
		}
	}
	return false
}
