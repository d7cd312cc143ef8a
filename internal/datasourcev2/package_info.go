// Package datasourcev2 is an internal package containing implementation types for the SDK's data source
// implementations (streaming, polling, etc.) and related functionality. These types are not visible
// from outside of the SDK.
//
// WARNING: This particular implementation supports the upcoming flag delivery v2 format which is not
// publicly available.
//
// This does not include a file data source; there is none in this module.
package datasourcev2
