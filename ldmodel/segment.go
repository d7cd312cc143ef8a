package ldmodel

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Segment describes a named group of contexts, determined by explicit key lists, matching rules, or
// (for Big Segments) external store membership.
type Segment struct {
	// Key is the unique string key of the segment.
	Key string `json:"key"`
	// Version is incremented every time the segment's configuration changes.
	Version int `json:"version"`
	// Included lists context keys, for the default context kind, that are always in the segment.
	Included []string `json:"included,omitempty"`
	// Excluded lists context keys, for the default context kind, that are never in the segment unless
	// also present in Included.
	Excluded []string `json:"excluded,omitempty"`
	// IncludedContexts is like Included but for non-default context kinds.
	IncludedContexts []SegmentTarget `json:"includedContexts,omitempty"`
	// ExcludedContexts is like Excluded but for non-default context kinds.
	ExcludedContexts []SegmentTarget `json:"excludedContexts,omitempty"`
	// Salt is mixed into the rollout-rule bucketing hash for this segment.
	Salt string `json:"salt,omitempty"`
	// Rules is an ordered list of rules; the first one that matches determines segment membership for
	// a context that wasn't already resolved by Included/Excluded.
	Rules []SegmentRule `json:"rules,omitempty"`
	// Unbounded is true if this is a Big Segment: membership is tracked externally rather than in
	// Included/Excluded, because the list may be too large to embed in ordinary flag data.
	Unbounded bool `json:"unbounded,omitempty"`
	// UnboundedContextKind is the context kind whose membership is tracked externally, if Unbounded is
	// true. An empty value means ldcontext.DefaultKind.
	UnboundedContextKind ldcontext.Kind `json:"unboundedContextKind,omitempty"`
	// Generation identifies which generation of big-segment membership data is current for this segment.
	// LaunchDarkly increments it when a big segment is deleted and recreated with the same key. It is
	// meaningful only when Unbounded is true; if unset, big-segment matching cannot be performed for
	// this segment.
	Generation ldvalue.OptionalInt `json:"generation,omitempty"`
	// Deleted marks this value as a tombstone for a deleted segment rather than a real segment.
	Deleted bool `json:"-"`
}

// SegmentTarget is a set of individually included or excluded context keys for one context kind.
type SegmentTarget struct {
	// ContextKind is the kind of context this list applies to. An empty value means
	// ldcontext.DefaultKind.
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	// Values is the set of matching context keys.
	Values []string `json:"values"`
}

// SegmentRule describes one segment-membership rule: a set of ANDed clauses, with an optional
// percentage-rollout restriction on which matching contexts are actually included.
type SegmentRule struct {
	// ID is a randomized identifier assigned when the rule was created.
	ID string `json:"id,omitempty"`
	// Clauses is the list of conditions that must all match.
	Clauses []Clause `json:"clauses,omitempty"`
	// Weight, if defined, restricts matching contexts to this percentage (0-100000) of the total.
	// Contexts failing the rollout check are treated as not matched by this rule (subsequent rules are
	// still tried).
	Weight ldvalue.OptionalInt `json:"weight,omitempty"`
	// BucketBy names the attribute used for the rollout bucketing computation. Ignored if Weight is
	// undefined. An undefined Ref means the context's key.
	BucketBy ldattr.Ref `json:"bucketBy,omitempty"`
	// RolloutContextKind is the context kind whose attributes are used for bucketing, if Weight is
	// defined. An empty value means ldcontext.DefaultKind.
	RolloutContextKind ldcontext.Kind `json:"rolloutContextKind,omitempty"`
}
