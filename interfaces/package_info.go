// Package interfaces contains interfaces that allow customization of LaunchDarkly components.
//
// You will not need to refer to these types in your code unless you are creating a plug-in
// component, such as a database integration.
package interfaces
