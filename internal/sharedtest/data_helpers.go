package sharedtest

import (
	"github.com/launchdarkly/go-test-helpers/v3/ldservices"
	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/ldmodel"
	"github.com/fctrl/go-server-sdk/subsystems"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"
)

// FlagDescriptor is a shortcut for creating an ItemDescriptor from a flag.
func FlagDescriptor(f ldmodel.FeatureFlag) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: f.Version, Item: &f}
}

// SegmentDescriptor is a shortcut for creating an ItemDescriptor from a segment.
func SegmentDescriptor(s ldmodel.Segment) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: s.Version, Item: &s}
}

// ConfigOverrideDescriptor is a shortcut for creating an ItemDescriptor from a config override.
func ConfigOverrideDescriptor(o ldmodel.ConfigOverride) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: o.Version, Item: &o}
}

// MetricDescriptor is a shortcut for creating an ItemDescriptor from a metric.
func MetricDescriptor(m ldmodel.Metric) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: m.Version, Item: &m}
}

// UpsertFlag is a shortcut for calling Upsert with a FeatureFlag.
func UpsertFlag(store subsystems.DataStore, flag *ldmodel.FeatureFlag) {
	_, _ = store.Upsert(datakinds.Features, flag.Key, FlagDescriptor(*flag))
}

// DataSetBuilder is a helper for creating collections of flags, segments, config overrides, and
// metrics.
type DataSetBuilder struct {
	flags           []ldstoretypes.KeyedItemDescriptor
	segments        []ldstoretypes.KeyedItemDescriptor
	configOverrides []ldstoretypes.KeyedItemDescriptor
	metrics         []ldstoretypes.KeyedItemDescriptor
}

// NewDataSetBuilder creates a DataSetBuilder.
func NewDataSetBuilder() *DataSetBuilder {
	return &DataSetBuilder{}
}

// Build returns the built data set.
func (d *DataSetBuilder) Build() []ldstoretypes.Collection {
	return []ldstoretypes.Collection{
		{Kind: datakinds.Features, Items: d.flags},
		{Kind: datakinds.Segments, Items: d.segments},
		{Kind: datakinds.ConfigOverrides, Items: d.configOverrides},
		{Kind: datakinds.Metrics, Items: d.metrics},
	}
}

// Flags adds flags to the data set.
func (d *DataSetBuilder) Flags(flags ...ldmodel.FeatureFlag) *DataSetBuilder {
	for _, f := range flags {
		d.flags = append(d.flags, ldstoretypes.KeyedItemDescriptor{Key: f.Key, Item: FlagDescriptor(f)})
	}
	return d
}

// Segments adds segments to the data set.
func (d *DataSetBuilder) Segments(segments ...ldmodel.Segment) *DataSetBuilder {
	for _, s := range segments {
		d.segments = append(d.segments, ldstoretypes.KeyedItemDescriptor{Key: s.Key, Item: SegmentDescriptor(s)})
	}
	return d
}

// ConfigOverrides adds config overrides to the data set.
func (d *DataSetBuilder) ConfigOverrides(overrides ...ldmodel.ConfigOverride) *DataSetBuilder {
	for _, o := range overrides {
		d.configOverrides = append(d.configOverrides,
			ldstoretypes.KeyedItemDescriptor{Key: o.Key, Item: ConfigOverrideDescriptor(o)})
	}
	return d
}

// Metrics adds metrics to the data set.
func (d *DataSetBuilder) Metrics(metrics ...ldmodel.Metric) *DataSetBuilder {
	for _, m := range metrics {
		d.metrics = append(d.metrics, ldstoretypes.KeyedItemDescriptor{Key: m.Key, Item: MetricDescriptor(m)})
	}
	return d
}

// ToServerSDKData converts the data set to the format used by the ldservices helpers.
func (d *DataSetBuilder) ToServerSDKData() *ldservices.ServerSDKData {
	ret := ldservices.NewServerSDKData()
	for _, f := range d.flags {
		ret.Flags(f.Item.Item.(*ldmodel.FeatureFlag))
	}
	for _, s := range d.segments {
		ret.Segments(s.Item.Item.(*ldmodel.Segment))
	}
	return ret
}
