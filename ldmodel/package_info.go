// Package ldmodel defines the data model types used by the flag evaluation engine: feature flags,
// segments, rules, clauses, and percentage rollouts.
//
// Flag and segment data normally arrives from the data system (see package datasystem) as JSON and is
// deserialized into these types; application code does not usually construct them directly.
package ldmodel
