package datasourcev2

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	ldevents "github.com/launchdarkly/go-sdk-events/v3"
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/internal"
	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/internal/datastatus"
	"github.com/fctrl/go-server-sdk/internal/endpoints"
	"github.com/fctrl/go-server-sdk/internal/fdv2proto"
	"github.com/fctrl/go-server-sdk/subsystems"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"

	es "github.com/launchdarkly/eventsource"

	"golang.org/x/exp/maps"
)

const (
	keyField     = "key"
	kindField    = "kind"
	versionField = "version"

	streamReadTimeout        = 5 * time.Minute // the LaunchDarkly stream should send a heartbeat comment every 3 minutes
	streamMaxRetryDelay      = 30 * time.Second
	streamRetryResetInterval = 60 * time.Second
	streamJitterRatio        = 0.5
	defaultStreamRetryDelay  = 1 * time.Second

	streamingErrorContext     = "in stream connection"
	streamingWillRetryMessage = "will retry"

	fallbackHeader = "x-ld-fd-fallback"
)

// Implementation of the streaming data source, not including the lower-level SSE implementation which is in
// the eventsource package.
//
// Error handling works as follows:
// 1. If any event is malformed, we must assume the stream is broken and we may have missed updates. Set the
// data source state to INTERRUPTED, with an error kind of INVALID_DATA, and restart the stream.
// 2. If we receive an unrecoverable error like HTTP 401, we close the stream and don't retry, and set the state
// to OFF. Any other HTTP error or network error causes a retry with backoff, with a state of INTERRUPTED.
// 3. If the response carries the x-ld-fd-fallback header, the environment no longer supports FDv2 and we must
// never reconnect; FallbackRequested is closed so the data system can permanently switch to its secondary
// synchronizer.
// 4. We close closeWhenReady to tell the client initialization logic that initialization has either succeeded
// (we got an initial payload and successfully stored it) or permanently failed (we got a 401, etc.). Otherwise,
// the client initialization method may time out but we will still be retrying in the background, and if we
// succeed then the client can detect that we're initialized now by calling our IsInitialized method.

// StreamProcessor is the internal implementation of the FDv2 streaming data source.
//
// This type is exported from internal so that the StreamingDataSourceBuilder tests can verify its
// configuration. All other code outside of this package should interact with it only via the
// DataSource interface.
type StreamProcessor struct {
	cfg                        StreamConfig
	dataDestination            subsystems.DataDestination
	statusReporter             subsystems.DataSourceStatusReporter
	client                     *http.Client
	headers                    http.Header
	diagnosticsManager         *ldevents.DiagnosticsManager
	loggers                    ldlog.Loggers
	isInitialized              internal.AtomicBoolean
	halt                       chan struct{}
	fallback                   chan struct{}
	fallbackOnce               sync.Once
	connectionAttemptStartTime ldtime.UnixMillisecondTime
	connectionAttemptLock      sync.Mutex
	readyOnce                  sync.Once
	closeOnce                  sync.Once
}

// NewStreamProcessor creates the internal implementation of the FDv2 streaming data source.
func NewStreamProcessor(
	context subsystems.ClientContext,
	cfg StreamConfig,
) *StreamProcessor {
	sp := &StreamProcessor{
		dataDestination: context.GetDataDestination(),
		statusReporter:  context.GetDataSourceStatusReporter(),
		headers:         context.GetHTTP().DefaultHeaders,
		loggers:         context.GetLogging().Loggers,
		halt:            make(chan struct{}),
		fallback:        make(chan struct{}),
		cfg:             cfg,
	}
	if cci, ok := context.(*internal.ClientContextImpl); ok {
		sp.diagnosticsManager = cci.DiagnosticsManager
	}

	sp.client = context.GetHTTP().CreateHTTPClient()
	// Client.Timeout isn't just a connect timeout, it will break the connection if a full response
	// isn't received within that time (which, with the stream, it never will be), so we must make
	// sure it's zero and not the usual configured default. What we do want is a *connection* timeout,
	// which is set by Config.newHTTPClient as a property of the Dialer.
	sp.client.Timeout = 0
	sp.client.Transport = &fallbackDetectingTransport{
		wrapped:    sp.client.Transport,
		onFallback: sp.requestFallback,
	}

	return sp
}

// fallbackDetectingTransport watches for the x-ld-fd-fallback response header, which LaunchDarkly sets
// on a streaming response to signal that this environment no longer supports FDv2.
type fallbackDetectingTransport struct {
	wrapped    http.RoundTripper
	onFallback func()
}

func (t *fallbackDetectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	wrapped := t.wrapped
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	resp, err := wrapped.RoundTrip(req)
	if resp != nil && resp.Header.Get(fallbackHeader) != "" {
		t.onFallback()
	}
	return resp, err
}

//nolint:revive // no doc comment for standard method
func (sp *StreamProcessor) IsInitialized() bool {
	return sp.isInitialized.Get()
}

// Start tells the stream processor to begin its connection to LaunchDarkly's streaming service.
func (sp *StreamProcessor) Start(closeWhenReady chan<- struct{}) {
	sp.loggers.Info("Starting LaunchDarkly streaming connection")
	go sp.subscribe(closeWhenReady)
}

// FallbackRequested implements subsystems.FallbackSignaler. The channel is closed if the server ever
// responds with the x-ld-fd-fallback header, indicating this environment no longer supports FDv2 and
// the data system must permanently switch to a fallback synchronizer.
func (sp *StreamProcessor) FallbackRequested() <-chan struct{} {
	return sp.fallback
}

func (sp *StreamProcessor) requestFallback() {
	sp.fallbackOnce.Do(func() {
		close(sp.fallback)
	})
}

// TODO: Remove this nolint once we have a better implementation.
//
//nolint:gocyclo,godox // this function is a stepping stone. It will get better over time.
func (sp *StreamProcessor) consumeStream(stream *es.Stream, closeWhenReady chan<- struct{}) {
	// Consume remaining Events and Errors so we can garbage collect
	defer func() {
		for range stream.Events {
		} // COVERAGE: no way to cause this condition in unit tests
		if stream.Errors != nil {
			for range stream.Errors { // COVERAGE: no way to cause this condition in unit tests
			}
		}
	}()

	currentChangeSet := changeSet{
		events: make([]es.Event, 0),
	}

	for {
		select {
		case event, ok := <-stream.Events:
			if !ok {
				// COVERAGE: stream.Events is only closed if the EventSource has been closed. However, that
				// only happens when we have received from sp.halt, in which case we return immediately
				// after calling stream.Close(), terminating the for loop-- so we should not actually reach
				// this point. Still, in case the channel is somehow closed unexpectedly, we do want to
				// terminate the loop.
				return
			}

			sp.logConnectionResult(true)

			processedEvent := true
			shouldRestart := false

			gotMalformedEvent := func(event es.Event, err error) {
				if event == nil {
					sp.loggers.Errorf(
						"Received streaming events with malformed JSON data (%s); will restart stream",
						err,
					)
				} else {
					sp.loggers.Errorf(
						"Received streaming \"%s\" event with malformed JSON data (%s); will restart stream",
						event.Event(),
						err,
					)
				}

				errorInfo := interfaces.DataSourceErrorInfo{
					Kind:    interfaces.DataSourceErrorKindInvalidData,
					Message: err.Error(),
					Time:    time.Now(),
				}
				sp.statusReporter.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)

				shouldRestart = true // scenario 1 in error handling comments at top of file
				processedEvent = false
			}

			switch event.Event() {
			case string(fdv2proto.EventHeartbeat):
				// Swallow the event and move on.
			case string(fdv2proto.EventServerIntent):
				var serverIntent ServerIntent
				err := json.Unmarshal([]byte(event.Data()), &serverIntent)
				if err != nil {
					gotMalformedEvent(event, err)
					break
				} else if len(serverIntent.Payloads) == 0 {
					gotMalformedEvent(event, errors.New("server-intent event has no payloads"))
					break
				}

				if serverIntent.Payloads[0].Code == "none" {
					sp.loggers.Info("Server intent is none, skipping")
					continue
				}

				currentChangeSet = changeSet{events: make([]es.Event, 0), intent: &serverIntent}

			case string(fdv2proto.EventPutObject), string(fdv2proto.EventDeleteObject):
				currentChangeSet.events = append(currentChangeSet.events, event)
			case "goodbye":
				var goodbye goodbye
				err := json.Unmarshal([]byte(event.Data()), &goodbye)
				if err != nil {
					gotMalformedEvent(event, err)
					break
				}

				if !goodbye.Silent {
					sp.loggers.Errorf("SSE server received error: %s (%s)", goodbye.Reason, goodbye.Catastrophe)
				}
			case string(fdv2proto.EventError):
				var errorData errorEvent
				err := json.Unmarshal([]byte(event.Data()), &errorData)
				if err != nil {
					currentChangeSet = changeSet{events: make([]es.Event, 0)}
					gotMalformedEvent(event, err)
					break
				}

				sp.loggers.Errorf("Error on %s: %s", errorData.PayloadID, errorData.Reason)
				currentChangeSet = changeSet{events: make([]es.Event, 0)}
			case string(fdv2proto.EventPayloadTransferred):
				currentChangeSet.events = append(currentChangeSet.events, event)
				events, err := parseChangeSetEvents(currentChangeSet)
				if err != nil {
					sp.loggers.Errorf("Error processing changeset: %s", err)
					gotMalformedEvent(nil, err)
					break
				}

				isFull := currentChangeSet.intent == nil ||
					currentChangeSet.intent.Payloads[0].Code != string(fdv2proto.IntentTransferChanges)

				if isFull {
					sp.dataDestination.Init(eventsToCollections(events), datastatus.Authoritative)
					sp.setInitializedAndNotifyClient(true, closeWhenReady)
				} else {
					for _, e := range events {
						switch u := e.(type) {
						case fdv2proto.PutObject:
							sp.dataDestination.Upsert(u.Kind, u.Key, u.Object)
						case fdv2proto.DeleteObject:
							sp.dataDestination.Upsert(u.Kind, u.Key, ldstoretypes.ItemDescriptor{Version: u.Version, Item: nil})
						}
					}
				}
				currentChangeSet = changeSet{events: make([]es.Event, 0)}
			default:
				sp.loggers.Infof("Unexpected event found in stream: %s", event.Event())
			}

			if processedEvent {
				sp.statusReporter.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
			}
			if shouldRestart {
				stream.Restart()
			}

		case <-sp.halt:
			stream.Close()
			return
		}
	}
}

func (sp *StreamProcessor) subscribe(closeWhenReady chan<- struct{}) {
	req, reqErr := http.NewRequest("GET", endpoints.AddPath(sp.cfg.URI, endpoints.StreamingRequestPath), nil)
	if reqErr != nil {
		sp.loggers.Errorf(
			"Unable to create a stream request; this is not a network problem, most likely a bad base URI: %s",
			reqErr,
		)
		sp.statusReporter.UpdateStatus(interfaces.DataSourceStateOff, interfaces.DataSourceErrorInfo{
			Kind:    interfaces.DataSourceErrorKindUnknown,
			Message: reqErr.Error(),
			Time:    time.Now(),
		})
		sp.logConnectionResult(false)
		close(closeWhenReady)
		return
	}
	if sp.cfg.FilterKey != "" {
		req.URL.RawQuery = url.Values{
			"filter": {sp.cfg.FilterKey},
		}.Encode()
	}
	if sp.headers != nil {
		req.Header = maps.Clone(sp.headers)
	}
	sp.loggers.Info("Connecting to LaunchDarkly stream")

	sp.logConnectionStarted()

	initialRetryDelay := sp.cfg.InitialReconnectDelay
	if initialRetryDelay <= 0 { // COVERAGE: can't cause this condition in unit tests
		initialRetryDelay = defaultStreamRetryDelay
	}

	errorHandler := func(err error) es.StreamErrorHandlerResult {
		sp.logConnectionResult(false)

		if se, ok := err.(es.SubscriptionError); ok {
			errorInfo := interfaces.DataSourceErrorInfo{
				Kind:       interfaces.DataSourceErrorKindErrorResponse,
				StatusCode: se.Code,
				Time:       time.Now(),
			}
			recoverable := checkIfErrorIsRecoverableAndLog(
				sp.loggers,
				httpErrorDescription(se.Code),
				streamingErrorContext,
				se.Code,
				streamingWillRetryMessage,
			)
			if recoverable {
				sp.logConnectionStarted()
				sp.statusReporter.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)
				return es.StreamErrorHandlerResult{CloseNow: false}
			}
			sp.statusReporter.UpdateStatus(interfaces.DataSourceStateOff, errorInfo)
			return es.StreamErrorHandlerResult{CloseNow: true}
		}

		checkIfErrorIsRecoverableAndLog(
			sp.loggers,
			err.Error(),
			streamingErrorContext,
			0,
			streamingWillRetryMessage,
		)
		errorInfo := interfaces.DataSourceErrorInfo{
			Kind:    interfaces.DataSourceErrorKindNetworkError,
			Message: err.Error(),
			Time:    time.Now(),
		}
		sp.statusReporter.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)
		sp.logConnectionStarted()
		return es.StreamErrorHandlerResult{CloseNow: false}
	}

	stream, err := es.SubscribeWithRequestAndOptions(req,
		es.StreamOptionHTTPClient(sp.client),
		es.StreamOptionReadTimeout(streamReadTimeout),
		es.StreamOptionInitialRetry(initialRetryDelay),
		es.StreamOptionUseBackoff(streamMaxRetryDelay),
		es.StreamOptionUseJitter(streamJitterRatio),
		es.StreamOptionRetryResetInterval(streamRetryResetInterval),
		es.StreamOptionErrorHandler(errorHandler),
		es.StreamOptionCanRetryFirstConnection(-1),
		es.StreamOptionLogger(sp.loggers.ForLevel(ldlog.Info)),
	)

	if err != nil {
		sp.logConnectionResult(false)

		close(closeWhenReady)
		return
	}

	sp.consumeStream(stream, closeWhenReady)
}

func (sp *StreamProcessor) setInitializedAndNotifyClient(success bool, closeWhenReady chan<- struct{}) {
	if success {
		wasAlreadyInitialized := sp.isInitialized.GetAndSet(true)
		if !wasAlreadyInitialized {
			sp.loggers.Info("LaunchDarkly streaming is active")
		}
	}
	sp.readyOnce.Do(func() {
		close(closeWhenReady)
	})
}

func (sp *StreamProcessor) logConnectionStarted() {
	sp.connectionAttemptLock.Lock()
	defer sp.connectionAttemptLock.Unlock()
	sp.connectionAttemptStartTime = ldtime.UnixMillisNow()
}

func (sp *StreamProcessor) logConnectionResult(success bool) {
	sp.connectionAttemptLock.Lock()
	startTimeWas := sp.connectionAttemptStartTime
	sp.connectionAttemptStartTime = 0
	sp.connectionAttemptLock.Unlock()

	if startTimeWas > 0 && sp.diagnosticsManager != nil {
		timestamp := ldtime.UnixMillisNow()
		sp.diagnosticsManager.RecordStreamInit(timestamp, !success, uint64(timestamp-startTimeWas))
	}
}

//nolint:revive // no doc comment for standard method
func (sp *StreamProcessor) Close() error {
	sp.closeOnce.Do(func() {
		close(sp.halt)
		sp.statusReporter.UpdateStatus(interfaces.DataSourceStateOff, interfaces.DataSourceErrorInfo{})
	})
	return nil
}

// GetBaseURI returns the configured streaming base URI, for testing.
func (sp *StreamProcessor) GetBaseURI() string {
	return sp.cfg.URI
}

// GetInitialReconnectDelay returns the configured reconnect delay, for testing.
func (sp *StreamProcessor) GetInitialReconnectDelay() time.Duration {
	return sp.cfg.InitialReconnectDelay
}

// GetFilterKey returns the configured key, for testing.
func (sp *StreamProcessor) GetFilterKey() string {
	return sp.cfg.FilterKey
}

// parseChangeSetEvents converts the raw SSE put-object/delete-object events accumulated in a changeSet
// into fdv2proto.Event values.
func parseChangeSetEvents(changeSet changeSet) ([]fdv2proto.Event, error) {
	updates := make([]fdv2proto.Event, 0, len(changeSet.events))

	for _, event := range changeSet.events {
		switch event.Event() {
		case string(fdv2proto.EventPutObject):
			r := jreader.NewReader([]byte(event.Data()))
			var dataKind datakinds.DataKindInternal
			var key string
			var version int
			var item ldstoretypes.ItemDescriptor
			var err error

			for obj := r.Object().WithRequiredProperties([]string{versionField, kindField, keyField, "object"}); obj.Next(); {
				switch string(obj.Name()) {
				case versionField:
					version = r.Int()
				case kindField:
					dataKind = dataKindFromKind(strings.TrimRight(r.String(), "s"))
				case keyField:
					key = r.String()
				case "object":
					if dataKind == nil {
						r.SkipValue()
						continue
					}
					item, err = dataKind.DeserializeFromJSONReader(&r)
					if err != nil {
						return updates, err
					}
				}
			}
			if dataKind == nil {
				continue
			}
			updates = append(updates, fdv2proto.PutObject{Version: version, Kind: dataKind, Key: key, Object: item})
		case string(fdv2proto.EventDeleteObject):
			r := jreader.NewReader([]byte(event.Data()))
			var version int
			var dataKind datakinds.DataKindInternal
			var key string

			for obj := r.Object().WithRequiredProperties([]string{versionField, kindField, keyField}); obj.Next(); {
				switch string(obj.Name()) {
				case versionField:
					version = r.Int()
				case kindField:
					dataKind = dataKindFromKind(strings.TrimRight(r.String(), "s"))
				case keyField:
					key = r.String()
				}
			}
			if dataKind == nil {
				continue
			}
			updates = append(updates, fdv2proto.DeleteObject{Version: version, Kind: dataKind, Key: key})
		}
	}

	return updates, nil
}

func dataKindFromKind(kind string) datakinds.DataKindInternal {
	switch kind {
	case "flag":
		return datakinds.Features
	case "segment":
		return datakinds.Segments
	default:
		return nil
	}
}

// vim: foldmethod=marker foldlevel=0
