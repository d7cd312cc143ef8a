package interfaces

import (
	"fmt"
	"time"
)

// DataSourceState is a value representing the overall current state of the data source.
type DataSourceState string

const (
	// DataSourceStateInitializing is the initial state when the data source has been created but has
	// not yet performed an initial finished initializing.
	DataSourceStateInitializing DataSourceState = "INITIALIZING"
	// DataSourceStateValid means that the data source is currently operating normally and has received
	// fresh data.
	DataSourceStateValid DataSourceState = "VALID"
	// DataSourceStateInterrupted means that a problem occurred since the last time the state was VALID,
	// and the source is still trying to recover without having restarted from scratch.
	DataSourceStateInterrupted DataSourceState = "INTERRUPTED"
	// DataSourceStateOff means that the data source has been permanently shut down, either by the
	// application or because it encountered an unrecoverable error.
	DataSourceStateOff DataSourceState = "OFF"
)

// DataSourceErrorKind describes the category of a DataSourceErrorInfo.
type DataSourceErrorKind string

const (
	// DataSourceErrorKindUnknown is used when no other error kind applies.
	DataSourceErrorKindUnknown DataSourceErrorKind = "UNKNOWN"
	// DataSourceErrorKindNetworkError represents an I/O error while trying to make an HTTP request
	// or read the response.
	DataSourceErrorKindNetworkError DataSourceErrorKind = "NETWORK_ERROR"
	// DataSourceErrorKindErrorResponse means the HTTP server returned an error response status.
	DataSourceErrorKindErrorResponse DataSourceErrorKind = "ERROR_RESPONSE"
	// DataSourceErrorKindInvalidData means the data source received malformed data from LaunchDarkly.
	DataSourceErrorKindInvalidData DataSourceErrorKind = "INVALID_DATA"
	// DataSourceErrorKindStoreError means the data source itself was fine, but an error occurred when
	// writing the received data to the data store.
	DataSourceErrorKindStoreError DataSourceErrorKind = "STORE_ERROR"
)

// DataSourceErrorInfo describes the last error encountered by the data source, if any.
type DataSourceErrorInfo struct {
	// Kind is the general category of the error.
	Kind DataSourceErrorKind
	// StatusCode is the HTTP status code if Kind is DataSourceErrorKindErrorResponse, or zero otherwise.
	StatusCode int
	// Message describes the error, if a description is available.
	Message string
	// Time is when the error occurred.
	Time time.Time
}

// String returns a concise string representation of the error.
func (e DataSourceErrorInfo) String() string {
	s := string(e.Kind)
	switch {
	case e.StatusCode > 0 && e.Message != "":
		s += fmt.Sprintf("(%d,%s)", e.StatusCode, e.Message)
	case e.StatusCode > 0:
		s += fmt.Sprintf("(%d)", e.StatusCode)
	case e.Message != "":
		s += fmt.Sprintf("(%s)", e.Message)
	}
	if !e.Time.IsZero() {
		s += "@" + e.Time.Format(time.RFC3339)
	}
	return s
}

// DataSourceStatus is a snapshot of the data source's current state plus the last error it saw.
type DataSourceStatus struct {
	// State is the basic state of the data source as of this snapshot.
	State DataSourceState
	// StateSince is when the data source most recently entered State.
	StateSince time.Time
	// LastError is the last error this data source encountered, if any, regardless of whether it has
	// since recovered.
	LastError DataSourceErrorInfo
}

// String returns a concise string representation of the status.
func (s DataSourceStatus) String() string {
	return fmt.Sprintf("Status(%s,%s,%s)", s.State, s.StateSince.Format(time.RFC3339), s.LastError.String())
}

// DataSourceStatusProvider is an interface for querying the status of the SDK's data source, which
// provides information about the actual flag/segment data for the SDK.
//
// The data source could be the streaming or polling connection to LaunchDarkly, or it could be a
// file data source or test data source, depending on the SDK's configuration.
//
// An application can monitor this to see if there has ever been an outage and how long it lasted,
// or to implement application logic that depends on the data source being initialized.
type DataSourceStatusProvider interface {
	// GetStatus returns the current status of the data source.
	GetStatus() DataSourceStatus

	// AddStatusListener subscribes for notifications of status changes. The returned channel should
	// be closed with RemoveStatusListener when no longer needed.
	AddStatusListener() <-chan DataSourceStatus

	// RemoveStatusListener unsubscribes from notifications of status changes.
	RemoveStatusListener(listener <-chan DataSourceStatus)

	// WaitFor blocks until the data source state becomes desiredState, or timeout elapses, returning
	// true if desiredState was reached.
	WaitFor(desiredState DataSourceState, timeout time.Duration) bool
}
