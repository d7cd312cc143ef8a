package ldstoreimpl

import (
	"time"

	"github.com/fctrl/go-server-sdk/subsystems"
)

// BigSegmentsConfigurationProperties encapsulates the SDK's configuration with regard to big segments.
//
// This struct implements the BigSegmentsConfiguration interface, but allows for addition of new
// properties. In a future version, BigSegmentsConfigurationBuilder and other configuration builders
// may be changed to use concrete types instead of interfaces.
type BigSegmentsConfigurationProperties struct {
	// Store the data store instance that is used for big segments data. If nil, big segments are disabled.
	Store subsystems.BigSegmentStore

	// ContextCacheSize is the maximum number of contexts whose big segment state will be cached by the SDK
	// at any given time.
	ContextCacheSize int

	// ContextCacheTime is the maximum length of time that the big segment state for a context will be cached
	// by the SDK.
	ContextCacheTime time.Duration

	// StatusPollInterval is the interval at which the SDK will poll the big segment store to make sure
	// it is available and to determine how long ago it was updated
	StatusPollInterval time.Duration

	// StaleAfter is the maximum length of time between updates of the big segments data before the data
	// is considered out of date.
	StaleAfter time.Duration

	// StartPolling is true if the polling task should be started immediately. Otherwise, it will only
	// start after calling BigSegmentStoreWrapper.SetPollingActive(true). This property is always true
	// in regular use of the SDK; the Relay Proxy may set it to false.
	StartPolling bool
}

func (p BigSegmentsConfigurationProperties) GetStore() subsystems.BigSegmentStore { //nolint:golint
	return p.Store
}

func (p BigSegmentsConfigurationProperties) GetContextCacheSize() int { //nolint:golint
	return p.ContextCacheSize
}

func (p BigSegmentsConfigurationProperties) GetContextCacheTime() time.Duration { //nolint:golint
	return p.ContextCacheTime
}

func (p BigSegmentsConfigurationProperties) GetStatusPollInterval() time.Duration { //nolint:golint
	return p.StatusPollInterval
}

func (p BigSegmentsConfigurationProperties) GetStaleAfter() time.Duration { //nolint:golint
	return p.StaleAfter
}
