// Package datasource is an internal package containing implementation types shared by the SDK's
// legacy (FDv1) data source implementations and related status/update plumbing. These types are not
// visible from outside of the SDK.
package datasource
