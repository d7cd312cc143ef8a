package ldclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/fctrl/go-server-sdk/eval"
	"github.com/fctrl/go-server-sdk/internal"
	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/internal/datastore"
	"github.com/fctrl/go-server-sdk/internal/datasystem"
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/interfaces/flagstate"
	"github.com/fctrl/go-server-sdk/ldcomponents"
	"github.com/fctrl/go-server-sdk/ldevents"
	"github.com/fctrl/go-server-sdk/ldmodel"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// Version is the client version.
const Version = "1.0.0"

// Initialization errors.
var (
	ErrInitializationTimeout = errors.New("timeout encountered waiting for LaunchDarkly client initialization")
	ErrInitializationFailed  = errors.New("LaunchDarkly client initialization failed")
	ErrClientNotInitialized  = errors.New("feature flag evaluation called before LaunchDarkly client initialization completed")
)

// LDClient is the LaunchDarkly client. Client instances are thread-safe. Applications should
// instantiate a single instance for the lifetime of their application.
type LDClient struct {
	sdkKey         string
	offline        bool
	loggers        subsystems.LoggingConfiguration
	eventProcessor ldevents.EventProcessor
	dataSystem     datasystem.DataSystem
	evaluator      *eval.Evaluator
	eventsDisabled bool
}

// MakeClient creates a new client instance that connects to LaunchDarkly with the default
// configuration. The waitFor parameter, if non-zero, causes this function to block until the
// client has connected to LaunchDarkly and is properly initialized (or the duration elapses).
func MakeClient(sdkKey string, waitFor time.Duration) (*LDClient, error) {
	return MakeCustomClient(sdkKey, Config{}, waitFor)
}

// MakeCustomClient creates a new client instance that connects to LaunchDarkly with a custom
// configuration. The waitFor parameter, if non-zero, causes this function to block until the
// client has connected to LaunchDarkly and is properly initialized (or the duration elapses).
func MakeCustomClient(sdkKey string, config Config, waitFor time.Duration) (*LDClient, error) {
	closeWhenReady := make(chan struct{})

	clientContext, err := newClientContextFromConfig(sdkKey, config)
	if err != nil {
		return nil, err
	}
	loggers := clientContext.GetLogging()
	loggers.Loggers.Infof("Starting LaunchDarkly client %s", Version)

	eventsFactory := config.Events
	if eventsFactory == nil {
		eventsFactory = ldcomponents.NoEvents()
	}
	eventProcessor, err := eventsFactory.Build(clientContext)
	if err != nil {
		return nil, err
	}

	var system datasystem.DataSystem
	if config.DataSystem != nil {
		system, err = datasystem.NewFDv2(config.DataSystem, clientContext)
	} else {
		system, err = datasystem.NewFDv1(config.Offline, config.DataStore, config.DataSource, clientContext)
	}
	if err != nil {
		_ = eventProcessor.Close()
		return nil, err
	}

	dataProvider := datastore.NewDataStoreEvaluatorDataProviderImpl(system.Store(), loggers.Loggers)
	evaluator := eval.NewEvaluatorWithOptions(dataProvider, eval.WithErrorLogger(func(msg string) {
		loggers.Loggers.Error(msg)
	}))

	client := &LDClient{
		sdkKey:         sdkKey,
		offline:        config.Offline,
		loggers:        loggers,
		eventProcessor: eventProcessor,
		dataSystem:     system,
		evaluator:      evaluator,
	}

	system.Start(closeWhenReady)

	if waitFor > 0 && !config.Offline {
		loggers.Loggers.Infof("Waiting up to %d milliseconds for LaunchDarkly client to start...",
			waitFor/time.Millisecond)
	}
	timeout := time.After(waitFor)
	for {
		select {
		case <-closeWhenReady:
			if !client.Initialized() {
				loggers.Loggers.Warn("LaunchDarkly client initialization failed")
				return client, ErrInitializationFailed
			}
			loggers.Loggers.Info("Successfully initialized LaunchDarkly client!")
			return client, nil
		case <-timeout:
			if waitFor > 0 {
				loggers.Loggers.Warn("Timeout encountered waiting for LaunchDarkly client initialization")
				return client, ErrInitializationTimeout
			}
			go func() { <-closeWhenReady }() // don't block the data system when not waiting
			return client, nil
		}
	}
}

// IsOffline returns whether the LaunchDarkly client is in offline mode.
func (client *LDClient) IsOffline() bool {
	return client.offline
}

// Initialized returns whether the LaunchDarkly client has received flag data, either freshly from
// LaunchDarkly or from a cached/persistent source.
func (client *LDClient) Initialized() bool {
	return client.dataSystem.DataAvailability() != datasystem.Defaults
}

// Close shuts down the LaunchDarkly client. After calling this, the LaunchDarkly client should no
// longer be used. The method will block until all pending analytics events (if any) have been sent.
func (client *LDClient) Close() error {
	client.loggers.Loggers.Info("Closing LaunchDarkly client")
	_ = client.eventProcessor.Close()
	return client.dataSystem.Stop()
}

// Flush tells the client that all pending analytics events (if any) should be delivered as soon as
// possible. Flushing is asynchronous, so this method will return before it is complete.
func (client *LDClient) Flush() {
	client.eventProcessor.Flush()
}

// FlushAndWait is equivalent to Flush, but blocks until delivery completes or the timeout elapses.
func (client *LDClient) FlushAndWait(timeout time.Duration) bool {
	return client.eventProcessor.FlushBlocking(timeout)
}

// SecureModeHash generates the secure mode hash value for a context.
func (client *LDClient) SecureModeHash(context ldcontext.Context) string {
	return secureModeHash(client.sdkKey, context)
}

// GetDataSourceStatusProvider returns an interface for tracking the status of the data source.
func (client *LDClient) GetDataSourceStatusProvider() interfaces.DataSourceStatusProvider {
	return client.dataSystem.DataSourceStatusProvider()
}

// GetDataStoreStatusProvider returns an interface for tracking the status of a persistent data store.
func (client *LDClient) GetDataStoreStatusProvider() interfaces.DataStoreStatusProvider {
	return client.dataSystem.DataStoreStatusProvider()
}

// GetFlagTracker returns an interface for tracking changes in feature flag configurations.
func (client *LDClient) GetFlagTracker() interfaces.FlagTracker {
	return internal.NewFlagTrackerImpl(
		client.dataSystem.FlagChangeEventBroadcaster(),
		func(flagKey string, context ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value {
			value, _ := client.JSONVariation(flagKey, context, defaultValue)
			return value
		},
	)
}

// Identify reports details about an evaluation context.
func (client *LDClient) Identify(context ldcontext.Context) error {
	if err := context.Err(); err != nil {
		client.loggers.Loggers.Warnf("Identify called with invalid context: %s", err)
		return nil //nolint:nilerr // historical behavior: malformed input is logged, not returned as an error
	}
	if client.eventsDisabled {
		return nil
	}
	client.eventProcessor.RecordIdentifyEvent(ldevents.NewIdentifyEventData(
		ldevents.NewEventInputContext(context), ldtime.UnixMillisNow()))
	return nil
}

// TrackEvent reports an event associated with an evaluation context.
func (client *LDClient) TrackEvent(eventName string, context ldcontext.Context) error {
	return client.TrackData(eventName, context, ldvalue.Null())
}

// TrackData reports an event associated with an evaluation context, and adds custom data.
func (client *LDClient) TrackData(eventName string, context ldcontext.Context, data ldvalue.Value) error {
	if err := context.Err(); err != nil {
		client.loggers.Loggers.Warnf("Track called with invalid context: %s", err)
		return nil //nolint:nilerr
	}
	if client.eventsDisabled {
		return nil
	}
	client.eventProcessor.RecordCustomEvent(ldevents.NewCustomEventData(
		eventName, ldevents.NewEventInputContext(context), data, false, 0, ldtime.UnixMillisNow()))
	return nil
}

// TrackMetric reports an event associated with an evaluation context, and adds a numeric value.
func (client *LDClient) TrackMetric(eventName string, context ldcontext.Context, metricValue float64, data ldvalue.Value) error {
	if err := context.Err(); err != nil {
		client.loggers.Loggers.Warnf("Track called with invalid context: %s", err)
		return nil //nolint:nilerr
	}
	if client.eventsDisabled {
		return nil
	}
	client.eventProcessor.RecordCustomEvent(ldevents.NewCustomEventData(
		eventName, ldevents.NewEventInputContext(context), data, true, metricValue, ldtime.UnixMillisNow()))
	return nil
}

// WithEventsDisabled returns a decorator for the client that implements the same basic operations
// but will not generate any analytics events.
func (client *LDClient) WithEventsDisabled(eventsDisabled bool) interfaces.LDClientInterface {
	if client.eventsDisabled == eventsDisabled {
		return client
	}
	clone := *client
	clone.eventsDisabled = eventsDisabled
	return &clone
}

// AllFlagsState returns an object that encapsulates the state of all feature flags for a given
// evaluation context, including the flag values and metadata that can be used on the front end.
func (client *LDClient) AllFlagsState(context ldcontext.Context, options ...flagstate.Option) flagstate.AllFlags {
	if err := context.Err(); err != nil {
		client.loggers.Loggers.Warnf("AllFlagsState called with invalid context: %s", err)
		return flagstate.AllFlags{}
	}
	if !client.Initialized() {
		client.loggers.Loggers.Warn("AllFlagsState called before client initialization; using last known values from data store")
	}

	store := client.dataSystem.Store()
	items, err := store.GetAll(datakinds.Features)
	if err != nil {
		client.loggers.Loggers.Warnf("Unable to fetch flags from data store. Returning empty state. Error: %s", err)
		return flagstate.AllFlags{}
	}

	clientSideOnly := hasAllFlagsOption(options, flagstate.OptionClientSideOnly())
	builder := flagstate.NewAllFlagsBuilder(options...)
	for _, item := range items {
		flag, ok := item.Item.Item.(*ldmodel.FeatureFlag)
		if !ok || flag == nil {
			continue
		}
		if clientSideOnly && !flag.ClientSideAvailability.UsingEnvironmentID {
			continue
		}
		result := client.evaluator.Evaluate(flag, context, ldvalue.Null())
		builder.AddFlag(flag.Key, flagstate.FlagState{
			Value:     result.Detail.Value,
			Variation: optionalVariation(result.Detail),
			Version:   flag.Version,
			Reason:    result.Detail.Reason,
		})
	}
	return builder.Build()
}

func hasAllFlagsOption(options []flagstate.Option, target flagstate.Option) bool {
	for _, o := range options {
		if o.String() == target.String() {
			return true
		}
	}
	return false
}

func optionalVariation(detail ldreason.EvaluationDetail) ldvalue.OptionalInt {
	if detail.VariationIndex < 0 {
		return ldvalue.OptionalInt{}
	}
	return ldvalue.NewOptionalInt(detail.VariationIndex)
}

// BoolVariation returns the value of a boolean feature flag for a given evaluation context.
func (client *LDClient) BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error) {
	detail, err := client.variation(key, context, ldvalue.Bool(defaultVal), true)
	return detail.Value.BoolValue(), err
}

// BoolVariationDetail is the same as BoolVariation, but also returns further information about how
// the value was calculated.
func (client *LDClient) BoolVariationDetail(
	key string, context ldcontext.Context, defaultVal bool,
) (bool, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.Bool(defaultVal), true)
	return detail.Value.BoolValue(), detail, err
}

// IntVariation returns the value of a feature flag (whose variations are integers) for the given
// evaluation context.
func (client *LDClient) IntVariation(key string, context ldcontext.Context, defaultVal int) (int, error) {
	detail, err := client.variation(key, context, ldvalue.Int(defaultVal), true)
	return detail.Value.IntValue(), err
}

// IntVariationDetail is the same as IntVariation, but also returns further information about how the
// value was calculated.
func (client *LDClient) IntVariationDetail(
	key string, context ldcontext.Context, defaultVal int,
) (int, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.Int(defaultVal), true)
	return detail.Value.IntValue(), detail, err
}

// Float64Variation returns the value of a feature flag (whose variations are floats) for the given
// evaluation context.
func (client *LDClient) Float64Variation(key string, context ldcontext.Context, defaultVal float64) (float64, error) {
	detail, err := client.variation(key, context, ldvalue.Float64(defaultVal), true)
	return detail.Value.Float64Value(), err
}

// Float64VariationDetail is the same as Float64Variation, but also returns further information
// about how the value was calculated.
func (client *LDClient) Float64VariationDetail(
	key string, context ldcontext.Context, defaultVal float64,
) (float64, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.Float64(defaultVal), true)
	return detail.Value.Float64Value(), detail, err
}

// StringVariation returns the value of a feature flag (whose variations are strings) for the given
// evaluation context.
func (client *LDClient) StringVariation(key string, context ldcontext.Context, defaultVal string) (string, error) {
	detail, err := client.variation(key, context, ldvalue.String(defaultVal), true)
	return detail.Value.StringValue(), err
}

// StringVariationDetail is the same as StringVariation, but also returns further information about
// how the value was calculated.
func (client *LDClient) StringVariationDetail(
	key string, context ldcontext.Context, defaultVal string,
) (string, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.String(defaultVal), true)
	return detail.Value.StringValue(), detail, err
}

// JSONVariation returns the value of a feature flag for the given evaluation context, allowing the
// value to be of any JSON type.
func (client *LDClient) JSONVariation(
	key string, context ldcontext.Context, defaultVal ldvalue.Value,
) (ldvalue.Value, error) {
	detail, err := client.variation(key, context, defaultVal, false)
	return detail.Value, err
}

// JSONVariationDetail is the same as JSONVariation, but also returns further information about how
// the value was calculated.
func (client *LDClient) JSONVariationDetail(
	key string, context ldcontext.Context, defaultVal ldvalue.Value,
) (ldvalue.Value, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, defaultVal, false)
	return detail.Value, detail, err
}

func (client *LDClient) variation(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
	checkType bool,
) (ldreason.EvaluationDetail, error) {
	if client.offline {
		return newEvaluationError(defaultVal, ldreason.EvalErrorClientNotReady), nil
	}
	detail, flag, err := client.evaluateInternal(key, context, defaultVal)
	if err != nil {
		detail.Value = defaultVal
		detail.VariationIndex = -1
	} else if checkType && defaultVal.Type() != ldvalue.NullType && detail.Value.Type() != defaultVal.Type() {
		detail = newEvaluationError(defaultVal, ldreason.EvalErrorWrongType)
	}

	if !client.eventsDisabled {
		var evt ldevents.EvaluationData
		if flag == nil {
			evt = ldevents.NewEvaluationData(key, ldevents.NewEventInputContext(context), defaultVal, defaultVal,
				ldvalue.OptionalInt{}, ldvalue.OptionalInt{}, detail.Reason, false, ldtime.UnixMillisNow())
		} else {
			evt = ldevents.NewEvaluationData(key, ldevents.NewEventInputContext(context), detail.Value, defaultVal,
				optionalVariation(detail), ldvalue.NewOptionalInt(flag.Version), detail.Reason, false, ldtime.UnixMillisNow())
		}
		client.eventProcessor.RecordEvaluation(evt)
	}

	return detail, err
}

// evaluateInternal performs all the steps of evaluation except for sending the top-level feature
// request event; events for prerequisites are recorded as a side effect of evaluation.
func (client *LDClient) evaluateInternal(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
) (ldreason.EvaluationDetail, *ldmodel.FeatureFlag, error) {
	if err := context.Err(); err != nil {
		return newEvaluationError(defaultVal, ldreason.EvalErrorUserNotSpecified), nil, err
	}

	if !client.Initialized() {
		client.loggers.Loggers.Warn(
			"Feature flag evaluation called before LaunchDarkly client initialization completed; using last known values from data store")
	}

	store := client.dataSystem.Store()
	item, err := store.Get(datakinds.Features, key)
	if err != nil {
		client.loggers.Loggers.Errorf("Encountered error fetching flag from store: %s", err)
		return newEvaluationError(defaultVal, ldreason.EvalErrorException), nil, err
	}
	if item.Item == nil {
		err := fmt.Errorf("unknown feature key: %s; verify that this feature key exists, returning default value", key)
		if client.loggers.LogEvaluationErrors {
			client.loggers.Loggers.Warn(err)
		}
		return newEvaluationError(defaultVal, ldreason.EvalErrorFlagNotFound), nil, nil
	}
	flag, ok := item.Item.(*ldmodel.FeatureFlag)
	if !ok {
		err := fmt.Errorf("unexpected data type (%T) found in store for flag key: %s; returning default value", item.Item, key)
		if client.loggers.LogEvaluationErrors {
			client.loggers.Loggers.Warn(err)
		}
		return newEvaluationError(defaultVal, ldreason.EvalErrorException), nil, err
	}

	result := client.evaluator.Evaluate(flag, context, defaultVal)
	if result.Detail.Reason.GetKind() == ldreason.EvalReasonError && client.loggers.LogEvaluationErrors {
		client.loggers.Loggers.Warnf("flag evaluation for %s failed with error %s, default value was returned",
			key, result.Detail.Reason.GetErrorKind())
	}
	if !client.eventsDisabled {
		for _, prereq := range result.PrerequisiteEvals {
			client.eventProcessor.RecordEvaluation(ldevents.NewEvaluationData(
				prereq.Prerequisite.Key, ldevents.NewEventInputContext(context),
				prereq.Result.Value, ldvalue.Null(), optionalVariation(prereq.Result),
				ldvalue.NewOptionalInt(prereq.Prerequisite.Version), prereq.Result.Reason, false, ldtime.UnixMillisNow()))
		}
	}
	return result.Detail, flag, nil
}

func newEvaluationError(defaultVal ldvalue.Value, errKind ldreason.EvalErrorKind) ldreason.EvaluationDetail {
	return ldreason.EvaluationDetail{
		Value:          defaultVal,
		VariationIndex: -1,
		Reason:         ldreason.NewEvalReasonError(errKind),
	}
}

func secureModeHash(sdkKey string, context ldcontext.Context) string {
	h := hmac.New(sha256.New, []byte(sdkKey))
	_, _ = h.Write([]byte(context.FullyQualifiedKey()))
	return hex.EncodeToString(h.Sum(nil))
}
