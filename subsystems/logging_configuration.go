package subsystems

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// LoggingConfiguration encapsulates the SDK's general logging configuration, for use by SDK
// components that need to write to the log.
type LoggingConfiguration struct {
	// Loggers is the configured Loggers instance.
	Loggers ldlog.Loggers

	// LogEvaluationErrors is true if evaluation errors should be logged.
	LogEvaluationErrors bool

	// LogContextKeyInErrors is true if context keys may appear in log messages.
	LogContextKeyInErrors bool

	// LogDataSourceOutageAsErrorAfter is the amount of time a data source outage must persist
	// before it is logged at Error level rather than Warn level. A value of zero disables the
	// escalation and outages are always logged at Warn level.
	LogDataSourceOutageAsErrorAfter time.Duration
}
