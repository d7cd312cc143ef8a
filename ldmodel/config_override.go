package ldmodel

import "github.com/launchdarkly/go-sdk-common/v3/ldvalue"

// ConfigOverride is a value that the server can use to override an SDK configuration setting without
// requiring a new release of application code, delivered through the same data system as flags and
// segments.
type ConfigOverride struct {
	// Key is the unique string key of the overridden setting. It is not part of the item's own wire
	// representation; like flags and segments, it is carried alongside the item by the data store.
	Key string `json:"-"`
	// Value is the overridden setting's value.
	Value ldvalue.Value `json:"value"`
	// Version is incremented every time the override's configuration changes.
	Version int `json:"version"`
	// Deleted marks this value as a tombstone for a deleted override rather than a real one.
	Deleted bool `json:"-"`
}
