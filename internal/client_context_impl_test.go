package internal

import (
	"net/http"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/fctrl/go-server-sdk/ldevents"
	"github.com/fctrl/go-server-sdk/subsystems"

	"github.com/stretchr/testify/assert"
)

func TestClientContextImpl(t *testing.T) {
	sdkKey := "SDK_KEY"
	headers := make(http.Header)
	headers.Set("x", "y")

	basic := subsystems.BasicClientContext{
		SDKKey: sdkKey,
		HTTP:   subsystems.HTTPConfiguration{DefaultHeaders: headers},
	}

	context1 := NewClientContextImpl(basic, nil)
	assert.Equal(t, sdkKey, context1.GetSDKKey())
	assert.Equal(t, headers, context1.GetHTTP().DefaultHeaders)
	assert.NotNil(t, context1.GetHTTP().CreateHTTPClient())
	assert.False(t, context1.GetOffline())
	assert.Nil(t, context1.DiagnosticsManager)

	httpClient := &http.Client{}
	basic2 := basic
	basic2.Offline = true
	basic2.HTTP.CreateHTTPClient = func() *http.Client { return httpClient }
	diagnosticsManager := ldevents.NewDiagnosticsManager(ldvalue.Null(), ldvalue.Null(), ldvalue.Null(), time.Now(), nil)

	context2 := NewClientContextImpl(basic2, diagnosticsManager)
	assert.Equal(t, httpClient, context2.GetHTTP().CreateHTTPClient())
	assert.True(t, context2.GetOffline())
	assert.Equal(t, diagnosticsManager, context2.DiagnosticsManager)
}
