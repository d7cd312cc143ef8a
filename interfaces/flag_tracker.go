package interfaces

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// FlagChangeEvent is sent to listeners registered with FlagTracker.AddFlagChangeListener whenever a
// flag's configuration changes in a way that could change its evaluation result for some context, or
// when a flag is added or deleted.
//
// This event does not carry the flag's new value, because any given flag change could produce
// different results for different contexts and the SDK does not know in advance which contexts an
// application cares about. Use AddFlagValueChangeListener to track the resolved value for one
// specific flag and context.
type FlagChangeEvent struct {
	// Key is the flag key.
	Key string
}

// FlagValueChangeEvent is sent to listeners registered with FlagTracker.AddFlagValueChangeListener
// whenever a change in the data might have changed the evaluation result for a specific flag, context,
// and default value.
type FlagValueChangeEvent struct {
	// Key is the flag key.
	Key string
	// OldValue is the flag's evaluation result value before the change.
	OldValue ldvalue.Value
	// NewValue is the flag's evaluation result value after the change.
	NewValue ldvalue.Value
}

// FlagTracker is an interface for tracking changes in feature flag configurations.
//
// An implementation of this interface is returned by LDClient.GetFlagTracker(). Application code
// never needs to implement this interface.
type FlagTracker interface {
	// AddFlagChangeListener subscribes for notifications of feature flag changes in general. The
	// returned channel should be closed with RemoveFlagChangeListener when no longer needed.
	AddFlagChangeListener() <-chan FlagChangeEvent

	// RemoveFlagChangeListener unsubscribes from notifications of feature flag changes.
	RemoveFlagChangeListener(listener <-chan FlagChangeEvent)

	// AddFlagValueChangeListener subscribes for notifications of a change in the evaluation result of a
	// specific flag for a specific context and default value, starting from its value now.
	AddFlagValueChangeListener(
		flagKey string,
		context ldcontext.Context,
		defaultValue ldvalue.Value,
	) <-chan FlagValueChangeEvent

	// RemoveFlagValueChangeListener unsubscribes from notifications of a flag value change.
	RemoveFlagValueChangeListener(listener <-chan FlagValueChangeEvent)
}
