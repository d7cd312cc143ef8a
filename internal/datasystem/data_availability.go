package datasystem

import (
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/internal"
	"github.com/fctrl/go-server-sdk/subsystems"
)

type DataAvailability string

const (
	// Defaults means the SDK has no data and will evaluate flags using the application-provided default values.
	Defaults = DataAvailability("defaults")
	// Cached means the SDK has data, not necessarily the latest, which will be used to evaluate flags.
	Cached = DataAvailability("cached")
	// Refreshed means the SDK has obtained, at least once, the latest known data from LaunchDarkly.
	Refreshed = DataAvailability("refreshed")
)

// DataSystem is the common interface satisfied by both FDv1 and FDv2, the two ways the SDK can be
// wired up to obtain and store flag and segment data. LDClient depends only on this interface, so it
// does not need to know which one a given Config selected.
type DataSystem interface {
	// Start tells the data system to begin initializing. closeWhenReady is closed once the system has
	// either obtained data or determined that it never will.
	Start(closeWhenReady chan struct{})

	// Stop releases every resource owned by the data system.
	Stop() error

	// Store returns read-only access to the flag and segment data the system currently holds.
	Store() subsystems.ReadOnlyStore

	// DataAvailability reports whether the system is serving fresh, cached, or default data.
	DataAvailability() DataAvailability

	//nolint:revive // Data system implementation.
	DataSourceStatusBroadcaster() *internal.Broadcaster[interfaces.DataSourceStatus]
	//nolint:revive // Data system implementation.
	DataSourceStatusProvider() interfaces.DataSourceStatusProvider
	//nolint:revive // Data system implementation.
	DataStoreStatusBroadcaster() *internal.Broadcaster[interfaces.DataStoreStatus]
	//nolint:revive // Data system implementation.
	DataStoreStatusProvider() interfaces.DataStoreStatusProvider
	//nolint:revive // Data system implementation.
	FlagChangeEventBroadcaster() *internal.Broadcaster[interfaces.FlagChangeEvent]
}
