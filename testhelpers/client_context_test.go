package testhelpers

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/fctrl/go-server-sdk/ldcomponents"

	"github.com/stretchr/testify/assert"
)

func TestSimpleClientContext(t *testing.T) {
	c := NewSimpleClientContext("key")
	assert.Equal(t, "key", c.GetSDKKey())
	assert.False(t, c.GetOffline())

	// Note, can't test equality of HTTPConfiguration because it contains a function
	hc, _ := ldcomponents.HTTPConfiguration().Build(c)
	assert.Equal(t, hc.DefaultHeaders, c.GetHTTP().DefaultHeaders)

	lc := ldcomponents.Logging().Build(c)
	assert.Equal(t, lc, c.GetLogging())

	h := ldcomponents.HTTPConfiguration().UserAgent("u").Wrapper("w", "")
	hc1, _ := h.Build(c)
	assert.Equal(t, hc1.DefaultHeaders, c.WithHTTP(h).GetHTTP().DefaultHeaders)

	l := ldcomponents.Logging().Loggers(ldlog.NewDefaultLoggers()).MinLevel(ldlog.Debug)
	lc1 := l.Build(c)
	assert.Equal(t, lc1, c.WithLogging(l).GetLogging())
}
