package sharedtest

import (
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// NewSimpleTestContext returns a basic implementation of subsystems.ClientContext for use in test code.
func NewSimpleTestContext(sdkKey string) subsystems.ClientContext {
	return NewTestContext(sdkKey, nil, nil)
}

// NewTestContext returns a basic implementation of subsystems.ClientContext for use in test code.
// We can't use internal.NewClientContextImpl for this because of circular references.
func NewTestContext(
	sdkKey string,
	optHTTPConfig *subsystems.HTTPConfiguration,
	optLoggingConfig *subsystems.LoggingConfiguration,
) subsystems.BasicClientContext {
	ret := subsystems.BasicClientContext{SDKKey: sdkKey}
	if optHTTPConfig != nil {
		ret.HTTP = *optHTTPConfig
	}
	if optLoggingConfig != nil {
		ret.Logging = *optLoggingConfig
	} else {
		ret.Logging = TestLoggingConfig()
	}
	return ret
}

// TestLoggingConfig returns a LoggingConfiguration corresponding to NewTestLoggers().
func TestLoggingConfig() subsystems.LoggingConfiguration {
	return subsystems.LoggingConfiguration{Loggers: NewTestLoggers()}
}

// TestLoggingConfigWithLoggers returns a LoggingConfiguration that uses the given Loggers instance.
func TestLoggingConfigWithLoggers(loggers ldlog.Loggers) subsystems.LoggingConfiguration {
	return subsystems.LoggingConfiguration{Loggers: loggers}
}

// TestHTTPConfig returns a default HTTPConfiguration for use in test code.
func TestHTTPConfig() subsystems.HTTPConfiguration {
	return subsystems.HTTPConfiguration{
		CreateHTTPClient: func() *http.Client {
			client := *http.DefaultClient
			return &client
		},
	}
}
