package internal

import (
	"github.com/fctrl/go-server-sdk/ldevents"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// ClientContextImpl is the SDK's standard implementation of subsystems.ClientContext.
//
// It embeds subsystems.BasicClientContext so that callers constructing component configurers can
// read or copy the public fields directly (for instance, to inject a DataStoreUpdateSink before
// calling a DataStore factory's Build method), while still adding SDK-internal state that isn't
// part of the public interface.
type ClientContextImpl struct {
	subsystems.BasicClientContext

	// DiagnosticsManager is shared between components that need to record diagnostic data, such as
	// the streaming data source. It is nil if diagnostic events are disabled.
	DiagnosticsManager *ldevents.DiagnosticsManager
}

// NewClientContextImpl creates the SDK's standard implementation of subsystems.ClientContext.
func NewClientContextImpl(
	basic subsystems.BasicClientContext,
	diagnosticsManager *ldevents.DiagnosticsManager,
) *ClientContextImpl {
	return &ClientContextImpl{BasicClientContext: basic, DiagnosticsManager: diagnosticsManager}
}
