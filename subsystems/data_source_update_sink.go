package subsystems

import (
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"
)

// DataSourceUpdateSink is an interface that a data source implementation can use to push data into
// the SDK.
//
// Application code does not need to use this type. It is for data source implementations.
//
// The SDK passes this in the ClientContext when it is creating a data source component (FDv1 mode).
type DataSourceUpdateSink interface {
	// Init overwrites the store's contents with a set of items for each collection.
	Init(allData []ldstoretypes.Collection) bool

	// Upsert updates or inserts an item in the specified collection.
	Upsert(kind ldstoretypes.DataKind, key string, item ldstoretypes.ItemDescriptor) bool

	// UpdateStatus informs the SDK of a change in the data source's operational status.
	UpdateStatus(newState interfaces.DataSourceState, newError interfaces.DataSourceErrorInfo)

	// GetDataStoreStatusProvider returns the SDK's DataStoreStatusProvider, so that the data source
	// can know whether the underlying store is in a valid state.
	GetDataStoreStatusProvider() interfaces.DataStoreStatusProvider
}
