package ldbuilders

import (
	"github.com/fctrl/go-server-sdk/ldmodel"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// NoVariation represents the lack of a variation index (for FlagBuilder.OffVariation, etc.).
const NoVariation = -1

// Bucket constructs a WeightedVariation with the specified variation index and weight.
func Bucket(variationIndex int, weight int) ldmodel.WeightedVariation {
	return ldmodel.WeightedVariation{Variation: variationIndex, Weight: weight}
}

// Rollout constructs a VariationOrRollout with the specified buckets.
func Rollout(buckets ...ldmodel.WeightedVariation) ldmodel.VariationOrRollout {
	return ldmodel.VariationOrRollout{Rollout: ldmodel.Rollout{Variations: buckets}}
}

// ExperimentRollout constructs a VariationOrRollout representing an experiment.
func ExperimentRollout(seed int, buckets ...ldmodel.WeightedVariation) ldmodel.VariationOrRollout {
	return ldmodel.VariationOrRollout{
		Rollout: ldmodel.Rollout{
			Kind:       ldmodel.RolloutKindExperiment,
			Variations: buckets,
			Seed:       ldvalue.NewOptionalInt(seed),
		},
	}
}

// Variation constructs a VariationOrRollout with the specified variation index.
func Variation(variationIndex int) ldmodel.VariationOrRollout {
	return ldmodel.VariationOrRollout{Variation: ldvalue.NewOptionalInt(variationIndex)}
}

// FlagBuilder provides a builder pattern for ldmodel.FeatureFlag.
type FlagBuilder struct {
	flag ldmodel.FeatureFlag
}

// RuleBuilder provides a builder pattern for ldmodel.FlagRule.
type RuleBuilder struct {
	rule ldmodel.FlagRule
}

// NewFlagBuilder creates a FlagBuilder.
func NewFlagBuilder(key string) *FlagBuilder {
	return &FlagBuilder{flag: ldmodel.FeatureFlag{Key: key}}
}

// NewFlagBuilderFrom creates a FlagBuilder initialized from an existing flag.
func NewFlagBuilderFrom(fromFlag ldmodel.FeatureFlag) *FlagBuilder {
	return &FlagBuilder{flag: fromFlag}
}

// Build returns the configured FeatureFlag.
func (b *FlagBuilder) Build() ldmodel.FeatureFlag {
	return b.flag
}

// AddPrerequisite adds a flag prerequisite.
func (b *FlagBuilder) AddPrerequisite(key string, variationIndex int) *FlagBuilder {
	b.flag.Prerequisites = append(b.flag.Prerequisites, ldmodel.Prerequisite{Key: key, Variation: variationIndex})
	return b
}

// AddRule adds a flag rule.
func (b *FlagBuilder) AddRule(r *RuleBuilder) *FlagBuilder {
	b.flag.Rules = append(b.flag.Rules, r.Build())
	return b
}

// AddTarget adds a context-key target set for the default context kind.
func (b *FlagBuilder) AddTarget(variationIndex int, keys ...string) *FlagBuilder {
	b.flag.Targets = append(b.flag.Targets, ldmodel.Target{Values: keys, Variation: variationIndex})
	return b
}

// AddContextTarget adds a context-key target set for a non-default context kind.
func (b *FlagBuilder) AddContextTarget(contextKind ldcontext.Kind, variationIndex int, keys ...string) *FlagBuilder {
	b.flag.ContextTargets = append(b.flag.ContextTargets,
		ldmodel.Target{ContextKind: contextKind, Values: keys, Variation: variationIndex})
	return b
}

// ClientSideUsingEnvironmentID sets the flag's ClientSideAvailability.UsingEnvironmentID property.
func (b *FlagBuilder) ClientSideUsingEnvironmentID(value bool) *FlagBuilder {
	b.flag.ClientSideAvailability.UsingEnvironmentID = value
	b.flag.ClientSideAvailability.Explicit = true
	return b
}

// Deleted sets the flag's Deleted property.
func (b *FlagBuilder) Deleted(value bool) *FlagBuilder {
	b.flag.Deleted = value
	return b
}

// Fallthrough sets the flag's Fallthrough property.
func (b *FlagBuilder) Fallthrough(vr ldmodel.VariationOrRollout) *FlagBuilder {
	b.flag.Fallthrough = vr
	return b
}

// FallthroughVariation sets the flag's Fallthrough property to a fixed variation.
func (b *FlagBuilder) FallthroughVariation(variationIndex int) *FlagBuilder {
	return b.Fallthrough(Variation(variationIndex))
}

// OffVariation sets the flag's OffVariation property.
func (b *FlagBuilder) OffVariation(variationIndex int) *FlagBuilder {
	if variationIndex == NoVariation {
		b.flag.OffVariation = ldvalue.OptionalInt{}
	} else {
		b.flag.OffVariation = ldvalue.NewOptionalInt(variationIndex)
	}
	return b
}

// On sets the flag's On property.
func (b *FlagBuilder) On(value bool) *FlagBuilder {
	b.flag.On = value
	return b
}

// Salt sets the flag's Salt property.
func (b *FlagBuilder) Salt(value string) *FlagBuilder {
	b.flag.Salt = value
	return b
}

// SingleVariation configures the flag to have only one variation value which it always returns.
func (b *FlagBuilder) SingleVariation(value ldvalue.Value) *FlagBuilder {
	return b.Variations(value).OffVariation(0).On(false)
}

// Variations sets the flag's list of variation values.
func (b *FlagBuilder) Variations(values ...ldvalue.Value) *FlagBuilder {
	b.flag.Variations = values
	return b
}

// Version sets the flag's Version property.
func (b *FlagBuilder) Version(value int) *FlagBuilder {
	b.flag.Version = value
	return b
}

// NewRuleBuilder creates a RuleBuilder.
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{}
}

// Build returns the configured FlagRule.
func (b *RuleBuilder) Build() ldmodel.FlagRule {
	return b.rule
}

// Clauses sets the rule's list of clauses.
func (b *RuleBuilder) Clauses(clauses ...ldmodel.Clause) *RuleBuilder {
	b.rule.Clauses = clauses
	return b
}

// ID sets the rule's ID property.
func (b *RuleBuilder) ID(id string) *RuleBuilder {
	b.rule.ID = id
	return b
}

// Variation sets the rule to use a fixed variation.
func (b *RuleBuilder) Variation(variationIndex int) *RuleBuilder {
	return b.VariationOrRollout(Variation(variationIndex))
}

// VariationOrRollout sets the rule to use either a variation or a percentage rollout.
func (b *RuleBuilder) VariationOrRollout(vr ldmodel.VariationOrRollout) *RuleBuilder {
	b.rule.VariationOrRollout = vr
	return b
}

// Clause constructs a basic Clause for the default context kind.
func Clause(attribute string, op ldmodel.Operator, values ...ldvalue.Value) ldmodel.Clause {
	return ldmodel.Clause{Attribute: attrRef(attribute, ""), Op: op, Values: values}
}

// ClauseWithKind constructs a Clause that tests an attribute of a non-default context kind.
func ClauseWithKind(
	contextKind ldcontext.Kind,
	attribute string,
	op ldmodel.Operator,
	values ...ldvalue.Value,
) ldmodel.Clause {
	return ldmodel.Clause{ContextKind: contextKind, Attribute: attrRef(attribute, contextKind), Op: op, Values: values}
}

// Negate returns the same Clause with the Negate property set to true.
func Negate(c ldmodel.Clause) ldmodel.Clause {
	c.Negate = true
	return c
}

// SegmentMatchClause constructs a Clause that uses the segmentMatch operator.
func SegmentMatchClause(segmentKeys ...string) ldmodel.Clause {
	clause := ldmodel.Clause{Op: ldmodel.OperatorSegmentMatch}
	for _, key := range segmentKeys {
		clause.Values = append(clause.Values, ldvalue.String(key))
	}
	return clause
}

func attrRef(attribute string, contextKind ldcontext.Kind) ldattr.Ref {
	if attribute == "" {
		return ldattr.Ref{}
	}
	if contextKind == "" {
		return ldattr.NewLiteralRef(attribute)
	}
	return ldattr.NewRef(attribute)
}
