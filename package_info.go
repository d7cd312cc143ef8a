// Package ldclient is the main package for the LaunchDarkly SDK.
//
// This package contains the types and methods for the SDK client (LDClient) and its overall
// configuration.
//
// Subpackages in the same module provide additional functionality for specific features of the
// client. Most applications that need to change any configuration settings will use the
// ldcomponents package.
//
// The SDK also uses types from the go-sdk-common/v3 module and its subpackages that represent
// standard data structures in the LaunchDarkly model. All applications that evaluate feature
// flags will use the ldcontext package; for some features such as custom attributes, the
// ldvalue package is also helpful.
package ldclient
