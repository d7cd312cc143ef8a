// Package bigsegments is an internal package containing implementation details for the SDK's Big
// Segment functionality, not including the segment matching logic, which lives in the eval package. These are
// not visible from outside of the SDK.
//
// This does not include implementations of specific Big Segment store integrations such as Redis.
// Those are implemented in separate repositories such as
// https://github.com/launchdarkly/go-server-sdk-redis-redigo.
package bigsegments
