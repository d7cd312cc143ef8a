package storetest

import (
	"os"

	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/fctrl/go-server-sdk/internal/sharedtest"
	"github.com/fctrl/go-server-sdk/subsystems"
)

type testCanFail interface {
	Failed() bool
}

// Creates a ClientContext that writes to a MockLogger; at the end of the action's scope, the captured
// output is dumped to the console only if there's been a test failure. The test parameter is declared
// as type testCanFail instead of *testing.T to allow us to use other test interface types (otherwise we
// could just use the existing MockLog.DumpIfTestFailed method, which takes a *testing.T).
func withMockLoggingContext(t testCanFail, action func(subsystems.ClientContext)) {
	mockLog := ldlogtest.NewMockLog()
	httpConfig := sharedtest.TestHTTPConfig()
	loggingConfig := sharedtest.TestLoggingConfigWithLoggers(mockLog.Loggers)
	context := sharedtest.NewTestContext("", &httpConfig, &loggingConfig)
	defer func() {
		if t.Failed() {
			mockLog.Dump(os.Stdout)
		}
	}()
	action(context)
}
