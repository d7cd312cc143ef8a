package ldcomponents

import (
	"errors"
	"fmt"

	"github.com/fctrl/go-server-sdk/subsystems"
)

// DataSystemConfigurationBuilder builds the configuration for the SDK's FDv2 data system: where data is
// stored, how it is initially obtained, and how it is kept up to date.
type DataSystemConfigurationBuilder struct {
	storeBuilder         subsystems.ComponentConfigurer[subsystems.DataStore]
	initializerBuilders  []subsystems.ComponentConfigurer[subsystems.DataSource]
	primarySyncBuilder   subsystems.ComponentConfigurer[subsystems.DataSource]
	secondarySyncBuilder subsystems.ComponentConfigurer[subsystems.DataSource]
	offline              bool
}

// DataSystem returns a configuration builder for the FDv2 data system, defaulted to streaming-preferred
// behavior: a polling initializer for a fast first payload, a streaming primary synchronizer, and a
// polling secondary synchronizer used as a fallback if streaming is permanently rejected.
func DataSystem() *DataSystemConfigurationBuilder {
	d := &DataSystemConfigurationBuilder{}
	return d.StreamingPreferred()
}

// Store sets the factory for the data store (in-memory, or a persistent store wrapped appropriately).
func (d *DataSystemConfigurationBuilder) Store(
	store subsystems.ComponentConfigurer[subsystems.DataStore],
) *DataSystemConfigurationBuilder {
	d.storeBuilder = store
	return d
}

// Initializers sets the one-shot initializers used to obtain an initial payload of data as quickly as
// possible, before the synchronizers have connected.
func (d *DataSystemConfigurationBuilder) Initializers(
	initializers ...subsystems.ComponentConfigurer[subsystems.DataSource],
) *DataSystemConfigurationBuilder {
	d.initializerBuilders = initializers
	return d
}

// PrependInitializers adds initializers that run before any already configured.
func (d *DataSystemConfigurationBuilder) PrependInitializers(
	initializers ...subsystems.ComponentConfigurer[subsystems.DataSource],
) *DataSystemConfigurationBuilder {
	d.initializerBuilders = append(initializers, d.initializerBuilders...)
	return d
}

// Synchronizers sets the primary and secondary (fallback) synchronizers.
func (d *DataSystemConfigurationBuilder) Synchronizers(
	primary, secondary subsystems.ComponentConfigurer[subsystems.DataSource],
) *DataSystemConfigurationBuilder {
	d.primarySyncBuilder = primary
	d.secondarySyncBuilder = secondary
	return d
}

// Synchronizer sets a single primary synchronizer, with no fallback.
func (d *DataSystemConfigurationBuilder) Synchronizer(
	sync subsystems.ComponentConfigurer[subsystems.DataSource],
) *DataSystemConfigurationBuilder {
	return d.Synchronizers(sync, nil)
}

// PollingOnly configures the data system to use only polling, with no streaming connection at all.
func (d *DataSystemConfigurationBuilder) PollingOnly() *DataSystemConfigurationBuilder {
	return d.Initializers().Synchronizer(PollingDataSourceV2())
}

// StreamingPreferred configures the data system to use a polling initializer for a fast first payload,
// a streaming primary synchronizer, and a polling secondary synchronizer used if LaunchDarkly signals
// that streaming is permanently unavailable for this environment. This is the default.
func (d *DataSystemConfigurationBuilder) StreamingPreferred() *DataSystemConfigurationBuilder {
	return d.Initializers(PollingInitializer()).Synchronizers(StreamingDataSourceV2(), PollingDataSourceV2())
}

// Offline, if true, configures the data system to make no network connections at all.
func (d *DataSystemConfigurationBuilder) Offline(offline bool) *DataSystemConfigurationBuilder {
	d.offline = offline
	return d
}

// Build is called internally by the SDK.
func (d *DataSystemConfigurationBuilder) Build(
	context subsystems.ClientContext,
) (subsystems.DataSystemConfiguration, error) {
	var conf subsystems.DataSystemConfiguration
	conf.Offline = d.offline

	if d.secondarySyncBuilder != nil && d.primarySyncBuilder == nil {
		return subsystems.DataSystemConfiguration{}, errors.New("cannot have a secondary synchronizer without a primary synchronizer")
	}
	if d.storeBuilder != nil {
		store, err := d.storeBuilder.Build(context)
		if err != nil {
			return subsystems.DataSystemConfiguration{}, err
		}
		conf.Store = store
	}
	for i, initializerBuilder := range d.initializerBuilders {
		if initializerBuilder == nil {
			return subsystems.DataSystemConfiguration{}, fmt.Errorf("initializer %d is nil", i)
		}
		initializer, err := initializerBuilder.Build(context)
		if err != nil {
			return subsystems.DataSystemConfiguration{}, err
		}
		conf.Initializers = append(conf.Initializers, initializer)
	}
	if d.primarySyncBuilder != nil {
		primarySync, err := d.primarySyncBuilder.Build(context)
		if err != nil {
			return subsystems.DataSystemConfiguration{}, err
		}
		conf.Synchronizers.Primary = primarySync
	}
	if d.secondarySyncBuilder != nil {
		secondarySync, err := d.secondarySyncBuilder.Build(context)
		if err != nil {
			return subsystems.DataSystemConfiguration{}, err
		}
		conf.Synchronizers.Secondary = secondarySync
	}
	return conf, nil
}
