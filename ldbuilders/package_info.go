// Package ldbuilders provides a fluent builder API for constructing ldmodel.FeatureFlag and
// ldmodel.Segment values, mainly for use in tests.
package ldbuilders
