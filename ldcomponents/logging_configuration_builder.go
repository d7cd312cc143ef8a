package ldcomponents

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/fctrl/go-server-sdk/internal"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// DefaultLogDataSourceOutageAsErrorAfter is the default value for
// LoggingConfigurationBuilder.LogDataSourceOutageAsErrorAfter.
const DefaultLogDataSourceOutageAsErrorAfter = time.Minute

// LoggingConfigurationBuilder contains methods for configuring the SDK's logging behavior.
//
// If you want to set non-default values for any of these properties, create a builder with
// ldcomponents.Logging(), change its properties with the LoggingConfigurationBuilder methods, and
// store it in Config.Logging:
//
//	config := ld.Config{
//	    Logging: ldcomponents.Logging().MinLevel(ldlog.Warn),
//	}
type LoggingConfigurationBuilder struct {
	inited                          bool
	loggers                         ldlog.Loggers
	logEvaluationErrors             bool
	logContextKeyInErrors           bool
	logDataSourceOutageAsErrorAfter time.Duration
}

// Logging returns a configuration builder for the SDK's logging configuration.
//
// The default configuration has logging enabled with default settings. If you want to set non-default
// values for any of these properties, create a builder with ldcomponents.Logging(), change its properties
// with the LoggingConfigurationBuilder methods, and store it in Config.Logging:
//
//	config := ld.Config{
//	    Logging: ldcomponents.Logging().MinLevel(ldlog.Warn),
//	}
func Logging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{}
}

func (b *LoggingConfigurationBuilder) checkValid() bool {
	if b == nil {
		internal.LogErrorNilPointerMethod("LoggingConfigurationBuilder")
		return false
	}
	if !b.inited {
		b.loggers = ldlog.NewDefaultLoggers()
		b.logDataSourceOutageAsErrorAfter = DefaultLogDataSourceOutageAsErrorAfter
		b.inited = true
	}
	return true
}

// LogEvaluationErrors sets whether the client should log a warning message whenever a flag cannot be evaluated due
// to an error (e.g. there is no flag with that key, or the context properties are invalid). By default, these
// messages are not logged, although you can detect such errors programmatically using the VariationDetail methods.
func (b *LoggingConfigurationBuilder) LogEvaluationErrors(logEvaluationErrors bool) *LoggingConfigurationBuilder {
	if b.checkValid() {
		b.logEvaluationErrors = logEvaluationErrors
	}
	return b
}

// LogContextKeyInErrors sets whether log messages for errors related to a specific context can include the
// context key. By default, they will not, since the context key might be considered privileged information.
func (b *LoggingConfigurationBuilder) LogContextKeyInErrors(logContextKeyInErrors bool) *LoggingConfigurationBuilder {
	if b.checkValid() {
		b.logContextKeyInErrors = logContextKeyInErrors
	}
	return b
}

// Loggers specifies an instance of ldlog.Loggers to use for SDK logging. The ldlog package contains
// methods for customizing the destination and level filtering of log output.
func (b *LoggingConfigurationBuilder) Loggers(loggers ldlog.Loggers) *LoggingConfigurationBuilder {
	if b.checkValid() {
		b.loggers = loggers
	}
	return b
}

// MinLevel specifies the minimum level for log output, where ldlog.Debug is the lowest and ldlog.Error
// is the highest. Log messages at a level lower than this will be suppressed. The default is
// ldlog.Info.
//
// This is equivalent to creating an ldlog.Loggers instance, calling SetMinLevel() on it, and then
// passing it to LoggingConfigurationBuilder.Loggers().
func (b *LoggingConfigurationBuilder) MinLevel(level ldlog.LogLevel) *LoggingConfigurationBuilder {
	if b.checkValid() {
		b.loggers.SetMinLevel(level)
	}
	return b
}

// LogDataSourceOutageAsErrorAfter sets the time threshold, if any, after which the SDK will log a data
// source outage at Error level instead of Warn level. A value of zero means the outage is always logged
// at Warn level.
func (b *LoggingConfigurationBuilder) LogDataSourceOutageAsErrorAfter(
	logDataSourceOutageAsErrorAfter time.Duration,
) *LoggingConfigurationBuilder {
	if b.checkValid() {
		b.logDataSourceOutageAsErrorAfter = logDataSourceOutageAsErrorAfter
	}
	return b
}

// Build is called internally by the SDK.
func (b *LoggingConfigurationBuilder) Build(clientContext subsystems.ClientContext) subsystems.LoggingConfiguration {
	if !b.checkValid() {
		defaults := LoggingConfigurationBuilder{}
		return defaults.Build(clientContext)
	}
	return subsystems.LoggingConfiguration{
		Loggers:                         b.loggers,
		LogEvaluationErrors:             b.logEvaluationErrors,
		LogContextKeyInErrors:           b.logContextKeyInErrors,
		LogDataSourceOutageAsErrorAfter: b.logDataSourceOutageAsErrorAfter,
	}
}

// NoLogging returns a configuration object that disables logging.
//
//	config := ld.Config{
//	    Logging: ldcomponents.NoLogging(),
//	}
func NoLogging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{
		inited:  true,
		loggers: ldlog.NewDisabledLoggers(),
	}
}
