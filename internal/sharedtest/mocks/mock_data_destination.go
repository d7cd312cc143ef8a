package mocks

import (
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/internal/datastatus"
	"github.com/fctrl/go-server-sdk/internal/sharedtest"
	"github.com/fctrl/go-server-sdk/subsystems"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"
)

// MockDataDestination is a mock implementation of a data destination used in tests involving FDv2 data sources.
type MockDataDestination struct {
	DataStore               *sharedtest.CapturingDataStore
	dataStoreStatusProvider *mockDataStoreStatusProvider
}

// NewMockDataDestination creates an instance of MockDataDestination.
func NewMockDataDestination(realStore subsystems.DataStore) *MockDataDestination {
	dataStore := sharedtest.NewCapturingDataStore(realStore)
	dataStoreStatusProvider := &mockDataStoreStatusProvider{
		dataStore: dataStore,
		status:    interfaces.DataStoreStatus{Available: true},
		statusCh:  make(chan interfaces.DataStoreStatus, 10),
	}
	return &MockDataDestination{
		DataStore:               dataStore,
		dataStoreStatusProvider: dataStoreStatusProvider,
	}
}

// Init in this test implementation, delegates to d.DataStore.
func (d *MockDataDestination) Init(allData []ldstoretypes.Collection, _ datastatus.DataStatus) bool {
	for _, coll := range allData {
		AssertNotNil(coll.Kind)
	}
	err := d.DataStore.Init(allData)
	return err == nil
}

// Upsert in this test implementation, delegates to d.DataStore.
func (d *MockDataDestination) Upsert(
	kind ldstoretypes.DataKind,
	key string,
	newItem ldstoretypes.ItemDescriptor,
) bool {
	AssertNotNil(kind)
	_, err := d.DataStore.Upsert(kind, key, newItem)
	return err == nil
}

// GetDataStoreStatusProvider returns a stub implementation that does not have full functionality
// but enough to test a data source with.
func (d *MockDataDestination) GetDataStoreStatusProvider() interfaces.DataStoreStatusProvider {
	return d.dataStoreStatusProvider
}

// UpdateStoreStatus simulates a change in the data store status.
func (d *MockDataDestination) UpdateStoreStatus(newStatus interfaces.DataStoreStatus) {
	d.dataStoreStatusProvider.statusCh <- newStatus
}
