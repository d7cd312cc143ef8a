package ldcomponents

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/stretchr/testify/require"
	"github.com/fctrl/go-server-sdk/ldevents"
)

func TestNoEvents(t *testing.T) {
	ep, err := NoEvents().Build(basicClientContext())
	require.NoError(t, err)
	defer ep.Close()
	context := ldevents.NewEventInputContext(ldcontext.New("key"))
	ep.RecordIdentifyEvent(ldevents.NewIdentifyEventData(context, ldtime.UnixMillisNow()))
	ep.Flush()
}
