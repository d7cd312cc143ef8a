package subsystems

// SynchronizersConfiguration specifies the primary and optional secondary DataSource that an FDv2
// data system uses to keep its data up to date after the initial basis has been obtained.
//
// Secondary exists to support fallback: if the primary synchronizer is permanently unable to operate
// (for instance, because LaunchDarkly has signaled that this environment no longer supports the FDv2
// protocol, detected via FallbackSignaler), the data system switches over to Secondary and never
// returns to Primary.
type SynchronizersConfiguration struct {
	Primary   DataSource
	Secondary DataSource
}

// DataSystemConfiguration is built by a ComponentConfigurer[DataSystemConfiguration], and describes how
// an FDv2 data system should obtain and store its data.
type DataSystemConfiguration struct {
	// Store is where flag/segment data is held. If it implements persistence, it is used in the mode
	// given by StoreMode until the in-memory store has data, after which point it is only written to
	// (never read from) if StoreMode is DataStoreModeReadWrite.
	Store DataStore

	// StoreMode controls whether Store is written to as new data arrives, or only read from at startup.
	StoreMode DataStoreMode

	// Initializers obtain data for the SDK in a one-shot manner at startup. Each is started and, once it
	// either signals readiness or its context is done, closed before the next one (or the synchronizers)
	// runs. Their job is to get the SDK into a state where it is serving somewhat fresh values as fast as
	// possible, before the (comparatively slower) synchronizers have connected.
	Initializers []DataSource

	// Synchronizers keep data up to date after the initial basis has been obtained.
	Synchronizers SynchronizersConfiguration

	// Offline, if true, means the data system makes no network connections at all.
	Offline bool
}
