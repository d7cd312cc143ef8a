package ldbuilders

import (
	"github.com/fctrl/go-server-sdk/ldmodel"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// SegmentBuilder provides a builder pattern for ldmodel.Segment.
type SegmentBuilder struct {
	segment ldmodel.Segment
}

// SegmentRuleBuilder provides a builder pattern for ldmodel.SegmentRule.
type SegmentRuleBuilder struct {
	rule ldmodel.SegmentRule
}

// NewSegmentBuilder creates a SegmentBuilder.
func NewSegmentBuilder(key string) *SegmentBuilder {
	return &SegmentBuilder{segment: ldmodel.Segment{Key: key}}
}

// Build returns the configured Segment.
func (b *SegmentBuilder) Build() ldmodel.Segment {
	return b.segment
}

// AddRule adds a rule to the segment.
func (b *SegmentBuilder) AddRule(r *SegmentRuleBuilder) *SegmentBuilder {
	b.segment.Rules = append(b.segment.Rules, r.Build())
	return b
}

// Excluded sets the segment's Excluded list, for the default context kind.
func (b *SegmentBuilder) Excluded(keys ...string) *SegmentBuilder {
	b.segment.Excluded = keys
	return b
}

// Included sets the segment's Included list, for the default context kind.
func (b *SegmentBuilder) Included(keys ...string) *SegmentBuilder {
	b.segment.Included = keys
	return b
}

// IncludedContexts adds a target list for a non-default context kind to the segment's IncludedContexts.
func (b *SegmentBuilder) IncludedContexts(contextKind ldcontext.Kind, keys ...string) *SegmentBuilder {
	b.segment.IncludedContexts = append(b.segment.IncludedContexts,
		ldmodel.SegmentTarget{ContextKind: contextKind, Values: keys})
	return b
}

// ExcludedContexts adds a target list for a non-default context kind to the segment's ExcludedContexts.
func (b *SegmentBuilder) ExcludedContexts(contextKind ldcontext.Kind, keys ...string) *SegmentBuilder {
	b.segment.ExcludedContexts = append(b.segment.ExcludedContexts,
		ldmodel.SegmentTarget{ContextKind: contextKind, Values: keys})
	return b
}

// Version sets the segment's Version property.
func (b *SegmentBuilder) Version(value int) *SegmentBuilder {
	b.segment.Version = value
	return b
}

// Salt sets the segment's Salt property.
func (b *SegmentBuilder) Salt(value string) *SegmentBuilder {
	b.segment.Salt = value
	return b
}

// Unbounded marks the segment as a Big Segment for the given context kind.
func (b *SegmentBuilder) Unbounded(contextKind ldcontext.Kind, generation int) *SegmentBuilder {
	b.segment.Unbounded = true
	b.segment.UnboundedContextKind = contextKind
	b.segment.Generation = ldvalue.NewOptionalInt(generation)
	return b
}

// Deleted sets the segment's Deleted property.
func (b *SegmentBuilder) Deleted(value bool) *SegmentBuilder {
	b.segment.Deleted = value
	return b
}

// NewSegmentRuleBuilder creates a SegmentRuleBuilder.
func NewSegmentRuleBuilder() *SegmentRuleBuilder {
	return &SegmentRuleBuilder{}
}

// Build returns the configured SegmentRule.
func (b *SegmentRuleBuilder) Build() ldmodel.SegmentRule {
	return b.rule
}

// BucketBy sets the rule's BucketBy property, for the default context kind.
func (b *SegmentRuleBuilder) BucketBy(attribute string) *SegmentRuleBuilder {
	b.rule.BucketBy = attrRef(attribute, "")
	return b
}

// Clauses sets the rule's list of clauses.
func (b *SegmentRuleBuilder) Clauses(clauses ...ldmodel.Clause) *SegmentRuleBuilder {
	b.rule.Clauses = clauses
	return b
}

// ID sets the rule's ID property.
func (b *SegmentRuleBuilder) ID(id string) *SegmentRuleBuilder {
	b.rule.ID = id
	return b
}

// Weight sets the rule's Weight property.
func (b *SegmentRuleBuilder) Weight(value int) *SegmentRuleBuilder {
	if value <= 0 {
		b.rule.Weight = ldvalue.OptionalInt{}
	} else {
		b.rule.Weight = ldvalue.NewOptionalInt(value)
	}
	return b
}

// RolloutContextKind sets the context kind used for this rule's rollout bucketing.
func (b *SegmentRuleBuilder) RolloutContextKind(contextKind ldcontext.Kind) *SegmentRuleBuilder {
	b.rule.RolloutContextKind = contextKind
	return b
}
