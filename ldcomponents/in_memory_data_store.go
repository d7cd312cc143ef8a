package ldcomponents

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/fctrl/go-server-sdk/internal/datastore"
	"github.com/fctrl/go-server-sdk/subsystems"
)

type inMemoryDataStoreFactory struct{}

// Build is called internally by the SDK.
func (f inMemoryDataStoreFactory) Build(
	context subsystems.ClientContext,
) (subsystems.DataStore, error) {
	loggers := context.GetLogging().Loggers
	loggers.SetPrefix("InMemoryDataStore:")
	return datastore.NewInMemoryDataStore(loggers), nil
}

// DescribeConfiguration is used internally by the SDK to inspect the configuration.
func (f inMemoryDataStoreFactory) DescribeConfiguration(context subsystems.ClientContext) ldvalue.Value {
	return ldvalue.String("memory")
}

// InMemoryDataStore returns the default in-memory DataStore implementation factory.
func InMemoryDataStore() subsystems.ComponentConfigurer[subsystems.DataStore] {
	return inMemoryDataStoreFactory{}
}
