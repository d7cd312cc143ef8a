package ldbuilders

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/fctrl/go-server-sdk/ldmodel"
)

// MetricBuilder provides a builder pattern for ldmodel.Metric.
type MetricBuilder struct {
	metric ldmodel.Metric
}

// NewMetricBuilder creates a MetricBuilder.
func NewMetricBuilder(key string) *MetricBuilder {
	return &MetricBuilder{metric: ldmodel.Metric{Key: key}}
}

// Build returns the configured Metric.
func (b *MetricBuilder) Build() ldmodel.Metric {
	return b.metric
}

// SamplingRatio sets the metric's SamplingRatio property.
func (b *MetricBuilder) SamplingRatio(value int) *MetricBuilder {
	b.metric.SamplingRatio = ldvalue.NewOptionalInt(value)
	return b
}

// Version sets the metric's Version property.
func (b *MetricBuilder) Version(value int) *MetricBuilder {
	b.metric.Version = value
	return b
}

// Deleted sets the metric's Deleted property.
func (b *MetricBuilder) Deleted(value bool) *MetricBuilder {
	b.metric.Deleted = value
	return b
}
