package ldstoreimpl

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/fctrl/go-server-sdk/eval"
	"github.com/fctrl/go-server-sdk/internal/datastore"
	"github.com/fctrl/go-server-sdk/subsystems"
)

// This file contains the public API for creating the adapter that bridges the evaluation engine to
// DataStore. The actual implementation is in internal/datastore, but we expose it here because it is
// helpful when flags are evaluated outside of the SDK, such as in the Relay Proxy.

// NewDataStoreEvaluatorDataProvider provides an adapter for using a DataStore with the Evaluator type
// in the eval package.
//
// Normal use of the SDK does not require this type. It is provided for use by other LaunchDarkly
// components that use DataStore and the evaluation engine separately from the SDK.
func NewDataStoreEvaluatorDataProvider(store subsystems.DataStore, loggers ldlog.Loggers) eval.DataProvider {
	return datastore.NewDataStoreEvaluatorDataProviderImpl(store, loggers)
}
