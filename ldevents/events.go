package ldevents

import (
	"encoding/json"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// BaseEvent contains the properties that are common to all analytics event types: the creation
// timestamp and the Context the event pertains to.
type BaseEvent struct {
	CreationDate ldtime.UnixMillisecondTime
	Context      EventInputContext
}

// EventInputContext wraps the Context that is attached to an event, along with an optional
// preserialized JSON representation used when forwarding events that were already formatted by
// another SDK instance (for instance, the Relay Proxy).
type EventInputContext struct {
	context       ldcontext.Context
	preserialized json.RawMessage
}

// Context returns the wrapped Context.
func (c EventInputContext) Context() ldcontext.Context { return c.context }

// NewEventInputContext wraps a Context for inclusion in an analytics event.
func NewEventInputContext(context ldcontext.Context) EventInputContext {
	return EventInputContext{context: context}
}

// NewEventInputContextPreserialized wraps a Context along with JSON data that should be used verbatim
// instead of re-serializing the Context.
func NewEventInputContextPreserialized(context ldcontext.Context, preserialized json.RawMessage) EventInputContext {
	return EventInputContext{context: context, preserialized: preserialized}
}

// rawEvent is used internally to forward an event that is already fully formatted JSON.
type rawEvent struct {
	data json.RawMessage
}

// indexEvent is generated automatically whenever an event references a Context we have not seen
// before, so that the events service can capture the Context's attributes without requiring every
// event to carry them inline.
type indexEvent struct {
	BaseEvent
}

// EvaluationData contains information about a single feature flag evaluation for use in analytics
// events.
type EvaluationData struct {
	BaseEvent
	Key                  string
	Value                ldvalue.Value
	Default              ldvalue.Value
	Variation            ldvalue.OptionalInt
	Version              ldvalue.OptionalInt
	Reason               ldreason.EvaluationReason
	PrereqOf             ldvalue.OptionalString
	RequireFullEvent     bool
	ExcludeFromSummaries bool
	ForceSampling        bool
	SamplingRatio        ldvalue.OptionalInt
	DebugEventsUntilDate ldtime.UnixMillisecondTime
	debug                bool
}

// NewEvaluationData constructs an EvaluationData describing a single flag evaluation.
func NewEvaluationData(
	key string,
	context EventInputContext,
	value, defaultVal ldvalue.Value,
	variation ldvalue.OptionalInt,
	version ldvalue.OptionalInt,
	reason ldreason.EvaluationReason,
	requireFullEvent bool,
	creationDate ldtime.UnixMillisecondTime,
) EvaluationData {
	return EvaluationData{
		BaseEvent:        BaseEvent{CreationDate: creationDate, Context: context},
		Key:              key,
		Value:            value,
		Default:          defaultVal,
		Variation:        variation,
		Version:          version,
		Reason:           reason,
		RequireFullEvent: requireFullEvent,
	}
}

// IdentifyEventData contains information for an identify event, which records that a Context was
// seen and reports its attributes.
type IdentifyEventData struct {
	BaseEvent
	SamplingRatio ldvalue.OptionalInt
	ForceSampling bool
}

// NewIdentifyEventData constructs an IdentifyEventData for the given Context.
func NewIdentifyEventData(context EventInputContext, creationDate ldtime.UnixMillisecondTime) IdentifyEventData {
	return IdentifyEventData{BaseEvent: BaseEvent{CreationDate: creationDate, Context: context}}
}

// CustomEventData contains information for a custom event recorded by the application.
type CustomEventData struct {
	BaseEvent
	Key           string
	Data          ldvalue.Value
	HasMetric     bool
	MetricValue   float64
	SamplingRatio ldvalue.OptionalInt
	ForceSampling bool
}

// NewCustomEventData constructs a CustomEventData for the given key and Context.
func NewCustomEventData(
	key string,
	context EventInputContext,
	data ldvalue.Value,
	hasMetric bool,
	metricValue float64,
	creationDate ldtime.UnixMillisecondTime,
) CustomEventData {
	return CustomEventData{
		BaseEvent:   BaseEvent{CreationDate: creationDate, Context: context},
		Key:         key,
		Data:        data,
		HasMetric:   hasMetric,
		MetricValue: metricValue,
	}
}

// MigrationOrigin identifies one side of a migration-backed operation: the old or the new
// implementation being migrated between.
type MigrationOrigin string

const (
	// MigrationOriginOld refers to the technology being migrated away from.
	MigrationOriginOld MigrationOrigin = "old"
	// MigrationOriginNew refers to the technology being migrated to.
	MigrationOriginNew MigrationOrigin = "new"
)

// MigrationStage is the value of a migration-backed flag, describing how traffic should be routed
// between the old and new implementations.
type MigrationStage string

// ConsistencyCheck reports the outcome of comparing the old and new implementation's results during
// a migration-backed operation.
type ConsistencyCheck interface {
	// Consistent returns true if the old and new results were found to be consistent.
	Consistent() bool
	// SamplingRatio returns the 1-in-x ratio at which consistency was checked.
	SamplingRatio() int
}

// MigrationOpEvaluation carries the flag evaluation result associated with a migration op event.
type MigrationOpEvaluation struct {
	Value          ldvalue.Value
	Reason         ldreason.EvaluationReason
	VariationIndex ldvalue.OptionalInt
}

// MigrationOpEventData contains information about a migration-backed operation, recording which
// origins were invoked, how long each took, whether any errored, and whether their results agreed.
type MigrationOpEventData struct {
	BaseEvent
	FlagKey          string
	Op               string
	Default          MigrationStage
	Version          ldvalue.OptionalInt
	Evaluation       MigrationOpEvaluation
	Invoked          map[MigrationOrigin]struct{}
	ConsistencyCheck ConsistencyCheck
	Latency          map[MigrationOrigin]int
	Error            map[MigrationOrigin]struct{}
	SamplingRatio    ldvalue.OptionalInt
	ForceSampling    bool
}
