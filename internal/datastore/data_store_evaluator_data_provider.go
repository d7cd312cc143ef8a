package datastore

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/fctrl/go-server-sdk/eval"
	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/ldmodel"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// dataStoreEvaluatorDataProvider adapts a subsystems.DataStore to the eval.DataProvider interface
// that the evaluation engine uses to read flags and segments. It is kept deliberately thin: all it
// does is look up an item by kind and key and type-assert it to the model type the store is known
// to hold, logging (rather than failing) if that assertion is ever wrong.
type dataStoreEvaluatorDataProvider struct {
	store   subsystems.DataStore
	loggers ldlog.Loggers
}

// NewDataStoreEvaluatorDataProviderImpl creates an eval.DataProvider backed by a DataStore.
func NewDataStoreEvaluatorDataProviderImpl(
	store subsystems.DataStore,
	loggers ldlog.Loggers,
) eval.DataProvider {
	return &dataStoreEvaluatorDataProvider{store: store, loggers: loggers}
}

func (d *dataStoreEvaluatorDataProvider) GetFeatureFlag(key string) (*ldmodel.FeatureFlag, bool) {
	item, err := d.store.Get(datakinds.Features, key)
	if err != nil {
		d.loggers.Errorf("Error fetching flag %q from data store: %s", key, err)
		return nil, false
	}
	if item.Item == nil {
		return nil, false
	}
	flag, ok := item.Item.(*ldmodel.FeatureFlag)
	if !ok {
		d.loggers.Errorf("Data store item for flag key %q was not a FeatureFlag", key)
		return nil, false
	}
	return flag, true
}

func (d *dataStoreEvaluatorDataProvider) GetSegment(key string) (*ldmodel.Segment, bool) {
	item, err := d.store.Get(datakinds.Segments, key)
	if err != nil {
		d.loggers.Errorf("Error fetching segment %q from data store: %s", key, err)
		return nil, false
	}
	if item.Item == nil {
		return nil, false
	}
	segment, ok := item.Item.(*ldmodel.Segment)
	if !ok {
		d.loggers.Errorf("Data store item for segment key %q was not a Segment", key)
		return nil, false
	}
	return segment, true
}
