package testhelpers

import (
	"github.com/fctrl/go-server-sdk/ldcomponents"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// SimpleClientContext is a reference implementation of subsystems.ClientContext for test code.
//
// The SDK uses the ClientContext interface to pass its configuration to subcomponents. Its standard
// implementation also contains other environment information that is only relevant to built-in SDK
// code. SimpleClientContext may be useful for external code to test a custom component.
type SimpleClientContext struct {
	subsystems.BasicClientContext
}

// NewSimpleClientContext creates a SimpleClientContext instance, with a standard HTTP configuration
// and a default logging configuration.
func NewSimpleClientContext(sdkKey string) SimpleClientContext {
	ctx := SimpleClientContext{subsystems.BasicClientContext{SDKKey: sdkKey}}
	httpConfig, _ := ldcomponents.HTTPConfiguration().Build(ctx)
	ctx.HTTP = httpConfig
	ctx.Logging = ldcomponents.Logging().Build(ctx)
	return ctx
}

// WithHTTP returns a new SimpleClientContext based on the original one, but adding the specified
// HTTP configuration.
func (s SimpleClientContext) WithHTTP(
	httpConfig subsystems.ComponentConfigurer[subsystems.HTTPConfiguration],
) SimpleClientContext {
	ret := s
	ret.HTTP, _ = httpConfig.Build(s)
	return ret
}

// WithLogging returns a new SimpleClientContext based on the original one, but adding the specified
// logging configuration.
func (s SimpleClientContext) WithLogging(loggingConfig *ldcomponents.LoggingConfigurationBuilder) SimpleClientContext {
	ret := s
	ret.Logging = loggingConfig.Build(s)
	return ret
}
