package ldcomponents

import (
	"github.com/fctrl/go-server-sdk/ldevents"
	"github.com/fctrl/go-server-sdk/subsystems"
)

type nullEventProcessorFactory struct{}

// NoEvents returns a configuration object that disables analytics events.
//
// Storing this in Config.Events causes the SDK to discard all analytics events and not send them to
// LaunchDarkly, regardless of any other configuration.
//
//	config := ld.Config{
//	    Events: ldcomponents.NoEvents(),
//	}
func NoEvents() subsystems.ComponentConfigurer[ldevents.EventProcessor] {
	return nullEventProcessorFactory{}
}

// Build is called internally by the SDK.
func (f nullEventProcessorFactory) Build(
	clientContext subsystems.ClientContext,
) (ldevents.EventProcessor, error) {
	return ldevents.NewNullEventProcessor(), nil
}
