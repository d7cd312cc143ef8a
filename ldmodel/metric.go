package ldmodel

import "github.com/launchdarkly/go-sdk-common/v3/ldvalue"

// Metric describes a server-defined sampling rate for an analytics event series, delivered through the
// same data system as flags and segments so that sampling decisions can change without an SDK release.
type Metric struct {
	// Key is the unique string key of the event series this sampling ratio applies to. It is not part
	// of the item's own wire representation; like flags and segments, it is carried alongside the item
	// by the data store.
	Key string `json:"-"`
	// SamplingRatio is the fraction of matching events that should be sent, expressed as 1-in-N. An
	// undefined value means no server-side override is in effect.
	SamplingRatio ldvalue.OptionalInt `json:"samplingRatio,omitempty"`
	// Version is incremented every time the metric's configuration changes.
	Version int `json:"version"`
	// Deleted marks this value as a tombstone for a deleted metric rather than a real one.
	Deleted bool `json:"-"`
}
