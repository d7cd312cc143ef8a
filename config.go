package ldclient

import (
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/ldevents"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// HTTPConfigurationFactory is implemented by ldcomponents.HTTPConfiguration(), and can be assigned to
// Config.HTTP.
type HTTPConfigurationFactory interface {
	Build(clientContext subsystems.ClientContext) (subsystems.HTTPConfiguration, error)
}

// LoggingConfigurationFactory is implemented by ldcomponents.Logging() and ldcomponents.NoLogging(), and
// can be assigned to Config.Logging.
type LoggingConfigurationFactory interface {
	Build(clientContext subsystems.ClientContext) subsystems.LoggingConfiguration
}

// Config exposes advanced configuration options for the LaunchDarkly client.
//
// All of these settings are optional, so a zero-value Config is always valid: it uses an in-memory data
// store, streaming data source, no analytics event delivery, and default logging.
//
//	var config ld.Config
//	config.DataStore = ldcomponents.PersistentDataStore(ldredis.DataStore())
type Config struct {
	// DataSource configures how the SDK receives feature flag, segment, and related data from
	// LaunchDarkly. If nil, the default is ldcomponents.StreamingDataSource().
	DataSource subsystems.ComponentConfigurer[subsystems.DataSource]

	// DataStore configures where the SDK holds flag and segment data. If nil, the default is
	// ldcomponents.InMemoryDataStore().
	DataStore subsystems.ComponentConfigurer[subsystems.DataStore]

	// DataSystem, if set, opts the client into the FDv2 data system (ldcomponents.DataSystem()):
	// initializers for a fast first payload plus primary/secondary synchronizers with fallback
	// support. If nil, the client uses the FDv1 data system configured by DataSource/DataStore.
	DataSystem subsystems.ComponentConfigurer[subsystems.DataSystemConfiguration]

	// Events configures the SDK's analytics event delivery. If nil, the default is
	// ldcomponents.NoEvents(): no events are ever sent. ldcomponents has no builder for
	// ldevents.NewDefaultEventProcessor, so events are delivered only when this field is set to a
	// configurer that builds an EventProcessor.
	Events subsystems.ComponentConfigurer[ldevents.EventProcessor]

	// HTTP configures the SDK's network connection behavior. If nil, the default is
	// ldcomponents.HTTPConfiguration().
	HTTP HTTPConfigurationFactory

	// Logging configures the SDK's logging behavior. If nil, the default is ldcomponents.Logging().
	Logging LoggingConfigurationFactory

	// Offline, if true, puts the client into offline mode: no network connections are made and every
	// evaluation returns the caller-supplied default value.
	Offline bool

	// ServiceEndpoints allows overriding the base URIs the SDK uses to reach LaunchDarkly services.
	ServiceEndpoints interfaces.ServiceEndpoints

	// ApplicationInfo configures application metadata that may be used in LaunchDarkly analytics.
	ApplicationInfo interfaces.ApplicationInfo
}
