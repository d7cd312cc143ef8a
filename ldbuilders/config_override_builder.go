package ldbuilders

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/fctrl/go-server-sdk/ldmodel"
)

// ConfigOverrideBuilder provides a builder pattern for ldmodel.ConfigOverride.
type ConfigOverrideBuilder struct {
	override ldmodel.ConfigOverride
}

// NewConfigOverrideBuilder creates a ConfigOverrideBuilder.
func NewConfigOverrideBuilder(key string) *ConfigOverrideBuilder {
	return &ConfigOverrideBuilder{override: ldmodel.ConfigOverride{Key: key}}
}

// Build returns the configured ConfigOverride.
func (b *ConfigOverrideBuilder) Build() ldmodel.ConfigOverride {
	return b.override
}

// Value sets the override's Value property.
func (b *ConfigOverrideBuilder) Value(value ldvalue.Value) *ConfigOverrideBuilder {
	b.override.Value = value
	return b
}

// Version sets the override's Version property.
func (b *ConfigOverrideBuilder) Version(value int) *ConfigOverrideBuilder {
	b.override.Version = value
	return b
}

// Deleted sets the override's Deleted property.
func (b *ConfigOverrideBuilder) Deleted(value bool) *ConfigOverrideBuilder {
	b.override.Deleted = value
	return b
}
