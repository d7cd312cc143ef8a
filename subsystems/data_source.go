package subsystems

import (
	"io"
)

// DataSource describes the interface for an object that receives feature flag data.
//
// Both FDv1 data sources and FDv2 initializers/synchronizers implement this interface. An FDv2 data
// source pushes the data it obtains through the DataDestination and DataSourceStatusReporter that were
// set on the ClientContext before Build was called, rather than returning it directly - this lets the
// same DataSource implementation serve as either a one-shot initializer (Start, wait for ready, Close) or
// a long-lived synchronizer (Start, and keep running).
type DataSource interface {
	io.Closer

	// IsInitialized returns true if the data source has successfully initialized at some point.
	//
	// Once this is true, it should remain true even if a problem occurs later.
	IsInitialized() bool

	// Start tells the data source to begin initializing. It should not try to make any connections
	// or do any other significant activity until Start is called.
	//
	// The data source should close the closeWhenReady channel if and when it has either successfully
	// initialized for the first time, or determined that initialization cannot ever succeed.
	Start(closeWhenReady chan<- struct{})
}

// FallbackSignaler is optionally implemented by a DataSource that is able to detect it has been
// permanently rejected by LaunchDarkly and that the data system should switch over to a fallback
// DataSource, never retrying this one again. The channel is closed (at most once) when fallback
// is required.
type FallbackSignaler interface {
	FallbackRequested() <-chan struct{}
}
