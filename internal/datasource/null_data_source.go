package datasource

import "github.com/fctrl/go-server-sdk/subsystems"

// NewNullDataSource returns a stub implementation of DataSource used when the SDK is configured to
// run in offline mode.
func NewNullDataSource() subsystems.DataSource {
	return nullDataSource{}
}

type nullDataSource struct{}

func (n nullDataSource) IsInitialized() bool {
	return true
}

func (n nullDataSource) Close() error {
	return nil
}

func (n nullDataSource) Start(closeWhenReady chan<- struct{}) {
	close(closeWhenReady)
}
