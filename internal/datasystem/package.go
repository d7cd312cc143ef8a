// Package datasystem encapsulates the interactions between the SDK's data store, data source, and other related
// components.
// There are two data system implementations: FDv1, which represents the functionality of the SDK before the
// FDv2 protocol was introduced, and FDv2, which runs initializers and synchronizers under the FDv2 protocol.
package datasystem
