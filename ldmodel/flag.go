package ldmodel

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// FeatureFlag describes an individual feature flag together with all of its targeting rules.
//
// Flag data normally comes from the data system in JSON form; application code should not construct
// FeatureFlag directly except in tests.
type FeatureFlag struct {
	// Key is the unique string key of the feature flag.
	Key string `json:"key"`
	// Version is incremented every time the flag's configuration changes. It is used for both
	// optimistic-concurrency guards in the data store and for reporting in EvaluationReason.
	Version int `json:"version"`
	// On is true if targeting is turned on for this flag. If On is false, the evaluator always uses
	// OffVariation and ignores every other field.
	On bool `json:"on"`
	// Prerequisites is a list of other flags that must evaluate to a specific variation before this
	// flag's own targets, rules, or fallthrough are considered.
	Prerequisites []Prerequisite `json:"prerequisites,omitempty"`
	// Targets contains sets of individually targeted context keys for the default context kind.
	Targets []Target `json:"targets,omitempty"`
	// ContextTargets contains sets of individually targeted context keys for non-default context kinds.
	ContextTargets []Target `json:"contextTargets,omitempty"`
	// Rules is an ordered list of rules that may match a context. The first matching rule wins.
	Rules []FlagRule `json:"rules,omitempty"`
	// Fallthrough is used when targeting is on but no Target or Rule matched the context.
	Fallthrough VariationOrRollout `json:"fallthrough"`
	// OffVariation is the variation index returned when On is false. If unset, evaluation returns
	// ldvalue.Null() with no variation index.
	OffVariation ldvalue.OptionalInt `json:"offVariation,omitempty"`
	// Variations holds every possible result value for this flag; Target, Rule, and Fallthrough entries
	// reference these by index.
	Variations []ldvalue.Value `json:"variations"`
	// Salt is mixed into the percentage-rollout bucketing hash so that rollouts are stable per-flag but
	// not correlated across flags.
	Salt string `json:"salt,omitempty"`
	// ClientSideAvailability describes whether this flag may be exposed to client-side SDKs. It has no
	// effect on server-side evaluation.
	ClientSideAvailability ClientSideAvailability `json:"-"`
	// Deleted marks this value as a tombstone for a deleted flag rather than a real flag. Tombstones are
	// only meaningful inside a data store; the evaluator never evaluates a deleted flag.
	Deleted bool `json:"-"`
}

// Prerequisite describes a requirement that another flag return a specific variation before this flag's
// own targeting is considered.
type Prerequisite struct {
	// Key is the flag key of the prerequisite flag.
	Key string `json:"key"`
	// Variation is the variation index that the prerequisite flag must return for the condition to be
	// satisfied.
	Variation int `json:"variation"`
}

// Target describes a set of context keys, for one context kind, that should receive a fixed variation.
type Target struct {
	// ContextKind is the kind of context this target list applies to. An empty value means
	// ldcontext.DefaultKind.
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	// Values is the set of context keys that match this target.
	Values []string `json:"values"`
	// Variation is the variation index to return for a matching context.
	Variation int `json:"variation"`
}

// FlagRule describes one targeting rule: a set of ANDed clauses, plus the variation or rollout to use
// when all of them match.
type FlagRule struct {
	VariationOrRollout
	// ID is a randomized identifier assigned when the rule was created; it is echoed back in
	// EvaluationReason.RuleID for analytics correlation.
	ID string `json:"id,omitempty"`
	// Clauses is the list of conditions that must all match for the rule to apply.
	Clauses []Clause `json:"clauses,omitempty"`
}

// RolloutKind distinguishes a plain percentage rollout from an experiment.
type RolloutKind string

const (
	// RolloutKindRollout is a standard percentage rollout.
	RolloutKindRollout RolloutKind = "rollout"
	// RolloutKindExperiment is a rollout whose bucketing also drives experimentation analytics.
	RolloutKindExperiment RolloutKind = "experiment"
)

// VariationOrRollout describes either a fixed variation index or a percentage rollout. Exactly one of
// Variation or Rollout applies; a Rollout is considered present only if it has at least one
// WeightedVariation.
type VariationOrRollout struct {
	// Variation is the fixed variation index to use, if this is not a rollout.
	Variation ldvalue.OptionalInt `json:"variation,omitempty"`
	// Rollout describes a percentage rollout to use instead of a fixed variation.
	Rollout Rollout `json:"rollout,omitempty"`
}

// IsRollout reports whether this VariationOrRollout specifies a rollout rather than a fixed variation.
func (v VariationOrRollout) IsRollout() bool {
	return len(v.Rollout.Variations) > 0
}

// Rollout describes how contexts are distributed across variations in a percentage rollout.
type Rollout struct {
	// Kind distinguishes a plain rollout from an experiment. The zero value behaves as
	// RolloutKindRollout.
	Kind RolloutKind `json:"kind,omitempty"`
	// ContextKind is the kind of context whose attributes are used for bucketing. An empty value means
	// ldcontext.DefaultKind.
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	// Variations lists the variations and their relative weights. Weights are integers from 0 to 100000
	// and should sum to 100000; any shortfall is absorbed by the final entry.
	Variations []WeightedVariation `json:"variations"`
	// BucketBy names the context attribute used to distinguish contexts for bucketing, for rollouts and
	// experiments alike. An undefined Ref means the context's key.
	BucketBy ldattr.Ref `json:"bucketBy,omitempty"`
	// Seed, if set, pins the bucketing hash input so that rollouts sharing a Seed bucket contexts
	// identically regardless of flag key or salt.
	Seed ldvalue.OptionalInt `json:"seed,omitempty"`
}

// IsExperiment reports whether this rollout represents an experiment.
func (r Rollout) IsExperiment() bool {
	return r.Kind == RolloutKindExperiment
}

// WeightedVariation is one bucket of a percentage rollout.
type WeightedVariation struct {
	// Variation is the variation index returned for contexts that land in this bucket.
	Variation int `json:"variation"`
	// Weight is this bucket's share of the rollout, from 0 to 100000.
	Weight int `json:"weight"`
	// Untracked suppresses analytics tracking for contexts landing in this bucket of an experiment.
	Untracked bool `json:"untracked,omitempty"`
}

// ClientSideAvailability describes whether a flag may be sent to client-side SDKs. Server-side
// evaluation ignores this; it exists only because it is part of the flag's wire representation.
type ClientSideAvailability struct {
	UsingMobileKey     bool `json:"usingMobileKey,omitempty"`
	UsingEnvironmentID bool `json:"usingEnvironmentId,omitempty"`
	Explicit           bool `json:"-"`
}
