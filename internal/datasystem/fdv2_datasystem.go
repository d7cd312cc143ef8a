package datasystem

import (
	"context"
	"sync"
	"time"

	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/internal"
	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/internal/datastatus"
	"github.com/fctrl/go-server-sdk/subsystems"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// FDv2 implements the configuration and interactions between the SDK's data store, initializers, and
// synchronizers under the FDv2 data system protocol.
//
// Unlike FDv1, where a single DataSource pushes updates through a DataSourceUpdateSink, FDv2 components
// (initializers and synchronizers) push updates directly through the DataDestination and
// DataSourceStatusReporter that FDv2 itself implements and injects into their ClientContext before they
// are built. FDv2 is itself the hub that all initializer/synchronizer traffic flows through on its way to
// the Store.
type FDv2 struct {
	store *Store

	initializers  []subsystems.DataSource
	primarySync   subsystems.DataSource
	secondarySync subsystems.DataSource

	offline bool

	dataSourceStatusBroadcaster *internal.Broadcaster[interfaces.DataSourceStatus]
	dataStoreStatusBroadcaster  *internal.Broadcaster[interfaces.DataStoreStatus]
	flagChangeEventBroadcaster  *internal.Broadcaster[interfaces.FlagChangeEvent]

	currentStatus interfaces.DataSourceStatus
	statusLock    sync.Mutex

	loggers ldlog.Loggers

	cancel context.CancelFunc
	done   chan struct{}

	readyOnce sync.Once
}

// NewFDv2 builds the FDv2 data system from a DataSystemConfiguration factory. The factory's sub-component
// builders (store, initializers, synchronizers) are given a ClientContext whose DataDestination and
// DataSourceStatusReporter point back at the FDv2 instance being constructed, so that by the time Build
// returns, every FDv2-aware component is already wired to report data and status through it.
func NewFDv2(
	cfgBuilder subsystems.ComponentConfigurer[subsystems.DataSystemConfiguration],
	clientContext *internal.ClientContextImpl,
) (*FDv2, error) {
	loggers := clientContext.GetLogging().Loggers

	f := &FDv2{
		store:                       NewStore(loggers),
		dataSourceStatusBroadcaster: internal.NewBroadcaster[interfaces.DataSourceStatus](),
		dataStoreStatusBroadcaster:  internal.NewBroadcaster[interfaces.DataStoreStatus](),
		flagChangeEventBroadcaster:  internal.NewBroadcaster[interfaces.FlagChangeEvent](),
		loggers:                     loggers,
		done:                        make(chan struct{}),
		currentStatus: interfaces.DataSourceStatus{
			State:      interfaces.DataSourceStateInitializing,
			StateSince: time.Now(),
		},
	}

	contextCopy := *clientContext
	contextCopy.BasicClientContext.DataDestination = f
	contextCopy.BasicClientContext.DataSourceStatusReporter = f

	cfg, err := cfgBuilder.Build(contextCopy)
	if err != nil {
		return nil, err
	}

	if cfg.Store != nil {
		f.store.WithPersistence(cfg.Store, cfg.StoreMode, newPersistentStoreStatusProvider(cfg.Store, f.dataStoreStatusBroadcaster))
	}

	f.initializers = cfg.Initializers
	f.primarySync = cfg.Synchronizers.Primary
	f.secondarySync = cfg.Synchronizers.Secondary
	f.offline = clientContext.GetOffline() || cfg.Offline

	return f, nil
}

// Init implements subsystems.DataDestination. It is called by initializers and synchronizers when they
// have a full payload of data to deliver.
func (f *FDv2) Init(allData []ldstoretypes.Collection, status datastatus.DataStatus) bool {
	var oldData map[ldstoretypes.DataKind]map[string]ldstoretypes.ItemDescriptor
	if f.flagChangeEventBroadcaster.HasListeners() {
		oldData = f.snapshotMemory()
	}

	ok := f.store.Init(allData, status)
	if !ok {
		return false
	}

	if status == datastatus.Authoritative {
		if err := f.store.Commit(); err != nil {
			f.loggers.Warnf("Failed to commit data to persistent store: %s", err)
		}
	}

	if oldData != nil {
		f.sendChangeEventsForFullDataSet(oldData, allData)
	}

	return true
}

// Upsert implements subsystems.DataDestination. It is called by synchronizers when they have a single
// incremental update to deliver.
func (f *FDv2) Upsert(kind ldstoretypes.DataKind, key string, item ldstoretypes.ItemDescriptor) bool {
	ok := f.store.Upsert(kind, key, item)
	if ok && kind == datakinds.Features && f.flagChangeEventBroadcaster.HasListeners() {
		f.flagChangeEventBroadcaster.Broadcast(interfaces.FlagChangeEvent{Key: key})
	}
	return ok
}

func (f *FDv2) snapshotMemory() map[ldstoretypes.DataKind]map[string]ldstoretypes.ItemDescriptor {
	snapshot := make(map[ldstoretypes.DataKind]map[string]ldstoretypes.ItemDescriptor)
	for _, kind := range datakinds.AllDataKinds() {
		items, err := f.store.GetAll(kind)
		if err != nil {
			continue
		}
		m := make(map[string]ldstoretypes.ItemDescriptor, len(items))
		for _, item := range items {
			m[item.Key] = item.Item
		}
		snapshot[kind] = m
	}
	return snapshot
}

// sendChangeEventsForFullDataSet fires a FlagChangeEvent for every flag key whose version (or presence)
// changed between oldData and the newly applied allData. This does not attempt to trace through
// prerequisite/segment dependencies the way the FDv1 data source does, since the FDv2 protocol's payload
// transfers already represent the full set of data LaunchDarkly considers current for this environment.
func (f *FDv2) sendChangeEventsForFullDataSet(
	oldData map[ldstoretypes.DataKind]map[string]ldstoretypes.ItemDescriptor,
	allData []ldstoretypes.Collection,
) {
	newFlags := make(map[string]ldstoretypes.ItemDescriptor)
	for _, coll := range allData {
		if coll.Kind != datakinds.Features {
			continue
		}
		for _, item := range coll.Items {
			newFlags[item.Key] = item.Item
		}
	}
	oldFlags := oldData[datakinds.Features]

	seen := make(map[string]bool, len(oldFlags)+len(newFlags))
	for key, oldItem := range oldFlags {
		seen[key] = true
		newItem, stillPresent := newFlags[key]
		if !stillPresent || oldItem.Version < newItem.Version {
			f.flagChangeEventBroadcaster.Broadcast(interfaces.FlagChangeEvent{Key: key})
		}
	}
	for key := range newFlags {
		if !seen[key] {
			f.flagChangeEventBroadcaster.Broadcast(interfaces.FlagChangeEvent{Key: key})
		}
	}
}

// UpdateStatus implements subsystems.DataSourceStatusReporter.
func (f *FDv2) UpdateStatus(newState interfaces.DataSourceState, newError interfaces.DataSourceErrorInfo) {
	if newState == "" {
		return
	}
	if status, changed := f.maybeUpdateStatus(newState, newError); changed {
		f.dataSourceStatusBroadcaster.Broadcast(status)
	}
}

func (f *FDv2) maybeUpdateStatus(
	newState interfaces.DataSourceState,
	newError interfaces.DataSourceErrorInfo,
) (interfaces.DataSourceStatus, bool) {
	f.statusLock.Lock()
	defer f.statusLock.Unlock()

	oldStatus := f.currentStatus
	if newState == interfaces.DataSourceStateInterrupted && oldStatus.State == interfaces.DataSourceStateInitializing {
		newState = interfaces.DataSourceStateInitializing
	}
	if newState == oldStatus.State && newError.Kind == "" {
		return interfaces.DataSourceStatus{}, false
	}

	stateSince := oldStatus.StateSince
	if newState != oldStatus.State {
		stateSince = time.Now()
	}
	lastError := oldStatus.LastError
	if newError.Kind != "" {
		lastError = newError
	}
	f.currentStatus = interfaces.DataSourceStatus{State: newState, StateSince: stateSince, LastError: lastError}
	return f.currentStatus, true
}

func (f *FDv2) getLastStatus() interfaces.DataSourceStatus {
	f.statusLock.Lock()
	defer f.statusLock.Unlock()
	return f.currentStatus
}

// Start begins running the configured initializers, in order, until one succeeds or all are exhausted,
// and then starts the primary synchronizer. If the primary synchronizer implements FallbackSignaler and
// requests a fallback, the primary is stopped permanently and the secondary synchronizer (if any) is
// started in its place; the primary is never retried.
func (f *FDv2) Start(closeWhenReady chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() {
		defer close(f.done)
		f.runInitializers(ctx, closeWhenReady)
		f.runSynchronizers(ctx, closeWhenReady)
	}()
}

func (f *FDv2) runInitializers(ctx context.Context, closeWhenReady chan struct{}) {
	for _, initializer := range f.initializers {
		if ctx.Err() != nil {
			return
		}
		ready := make(chan struct{})
		initializer.Start(ready)
		select {
		case <-ready:
		case <-ctx.Done():
			_ = initializer.Close()
			return
		}
		_ = initializer.Close()
		if initializer.IsInitialized() {
			f.readyOnce.Do(func() {
				close(closeWhenReady)
			})
			return
		}
	}
}

func (f *FDv2) runSynchronizers(ctx context.Context, closeWhenReady chan struct{}) {
	if f.primarySync == nil {
		f.readyOnce.Do(func() {
			close(closeWhenReady)
		})
		return
	}

	active := f.primarySync
	var fallback <-chan struct{}
	if signaler, ok := active.(subsystems.FallbackSignaler); ok {
		fallback = signaler.FallbackRequested()
	}

	ready := make(chan struct{})
	active.Start(ready)

	for {
		select {
		case <-ready:
			f.readyOnce.Do(func() {
				close(closeWhenReady)
			})
			ready = nil
		case <-fallback:
			f.loggers.Warn("Primary synchronizer requested permanent fallback; switching to secondary synchronizer")
			_ = active.Close()
			fallback = nil
			if f.secondarySync == nil {
				return
			}
			active = f.secondarySync
			ready = make(chan struct{})
			active.Start(ready)
		case <-ctx.Done():
			return
		}
	}
}

// Stop shuts down the data system, closing the active synchronizer, the store, and all broadcasters.
func (f *FDv2) Stop() error {
	if f.cancel != nil {
		f.cancel()
		<-f.done
	}
	_ = f.store.Close()
	if f.primarySync != nil {
		_ = f.primarySync.Close()
	}
	if f.secondarySync != nil {
		_ = f.secondarySync.Close()
	}
	f.dataSourceStatusBroadcaster.Close()
	f.dataStoreStatusBroadcaster.Close()
	f.flagChangeEventBroadcaster.Close()
	return nil
}

// Store returns the read-only view of the data currently being served.
func (f *FDv2) Store() subsystems.ReadOnlyStore {
	return f.store
}

// DataAvailability reports whether the SDK currently has no data, potentially-stale data, or confirmed
// fresh data.
func (f *FDv2) DataAvailability() DataAvailability {
	if f.offline {
		return Defaults
	}
	return f.store.DataAvailability()
}

// DataSourceStatusBroadcaster returns the broadcaster used to notify listeners of data source status
// changes.
func (f *FDv2) DataSourceStatusBroadcaster() *internal.Broadcaster[interfaces.DataSourceStatus] {
	return f.dataSourceStatusBroadcaster
}

// DataSourceStatusProvider returns the status provider backed by FDv2's own status tracking.
func (f *FDv2) DataSourceStatusProvider() interfaces.DataSourceStatusProvider {
	return &fdv2DataSourceStatusProvider{fdv2: f}
}

// DataStoreStatusBroadcaster returns the broadcaster used to notify listeners of data store status
// changes.
func (f *FDv2) DataStoreStatusBroadcaster() *internal.Broadcaster[interfaces.DataStoreStatus] {
	return f.dataStoreStatusBroadcaster
}

// DataStoreStatusProvider returns the status provider for the store, delegating to the persistent store's
// own status provider if one is configured.
func (f *FDv2) DataStoreStatusProvider() interfaces.DataStoreStatusProvider {
	if provider := f.store.GetDataStoreStatusProvider(); provider != nil {
		return provider
	}
	return &noopDataStoreStatusProvider{}
}

// FlagChangeEventBroadcaster returns the broadcaster used to notify listeners of individual flag changes.
func (f *FDv2) FlagChangeEventBroadcaster() *internal.Broadcaster[interfaces.FlagChangeEvent] {
	return f.flagChangeEventBroadcaster
}

// Offline returns true if the data system was configured to make no network connections.
func (f *FDv2) Offline() bool {
	return f.offline
}

type fdv2DataSourceStatusProvider struct {
	fdv2 *FDv2
}

func (p *fdv2DataSourceStatusProvider) GetStatus() interfaces.DataSourceStatus {
	return p.fdv2.getLastStatus()
}

func (p *fdv2DataSourceStatusProvider) AddStatusListener() <-chan interfaces.DataSourceStatus {
	return p.fdv2.dataSourceStatusBroadcaster.AddListener()
}

func (p *fdv2DataSourceStatusProvider) RemoveStatusListener(ch <-chan interfaces.DataSourceStatus) {
	p.fdv2.dataSourceStatusBroadcaster.RemoveListener(ch)
}

// persistentStoreStatusProvider reports the status of the persistent store configured under the FDv2
// Store. Unlike FDv1's dataStoreStatusProviderImpl, which observes write failures reported by a
// DataStoreUpdateSink as they happen, this implementation only forwards the store's own
// IsStatusMonitoringEnabled signal, and GetStatus always reports the store as available: Store.Init/Upsert
// failures are logged but do not flip this status to unavailable.
type persistentStoreStatusProvider struct {
	store       subsystems.DataStore
	broadcaster *internal.Broadcaster[interfaces.DataStoreStatus]
}

func newPersistentStoreStatusProvider(
	store subsystems.DataStore,
	broadcaster *internal.Broadcaster[interfaces.DataStoreStatus],
) interfaces.DataStoreStatusProvider {
	return &persistentStoreStatusProvider{store: store, broadcaster: broadcaster}
}

func (p *persistentStoreStatusProvider) GetStatus() interfaces.DataStoreStatus {
	return interfaces.DataStoreStatus{Available: true}
}

func (p *persistentStoreStatusProvider) IsStatusMonitoringEnabled() bool {
	return p.store.IsStatusMonitoringEnabled()
}

func (p *persistentStoreStatusProvider) AddStatusListener() <-chan interfaces.DataStoreStatus {
	return p.broadcaster.AddListener()
}

func (p *persistentStoreStatusProvider) RemoveStatusListener(ch <-chan interfaces.DataStoreStatus) {
	p.broadcaster.RemoveListener(ch)
}

// noopDataStoreStatusProvider is used when no persistent store is configured; the in-memory store is
// always available and never requires status monitoring.
type noopDataStoreStatusProvider struct{}

func (noopDataStoreStatusProvider) GetStatus() interfaces.DataStoreStatus {
	return interfaces.DataStoreStatus{Available: true}
}

func (noopDataStoreStatusProvider) IsStatusMonitoringEnabled() bool {
	return false
}

func (noopDataStoreStatusProvider) AddStatusListener() <-chan interfaces.DataStoreStatus {
	return make(chan interfaces.DataStoreStatus)
}

func (noopDataStoreStatusProvider) RemoveStatusListener(<-chan interfaces.DataStoreStatus) {}
