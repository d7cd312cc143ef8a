package bigsegments

import (
	"testing"

	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/internal"

	"github.com/stretchr/testify/assert"
)

func TestGetStatusWhenNoStoreExists(t *testing.T) {
	provider := NewBigSegmentStoreStatusProviderImpl(nil, internal.NewBroadcaster[interfaces.BigSegmentStoreStatus]())

	status := provider.GetStatus()
	assert.False(t, status.Available)
	assert.False(t, status.Stale)
}

func TestStatusListener(t *testing.T) {
	broadcaster := internal.NewBroadcaster[interfaces.BigSegmentStoreStatus]()
	defer broadcaster.Close()

	currentStatus := interfaces.BigSegmentStoreStatus{Available: true, Stale: false}
	provider := NewBigSegmentStoreStatusProviderImpl(func() interfaces.BigSegmentStoreStatus {
		return currentStatus
	}, broadcaster)

	statusCh := provider.AddStatusListener()

	currentStatus = interfaces.BigSegmentStoreStatus{Available: false, Stale: false}
	broadcaster.Broadcast(currentStatus)
	assert.Equal(t, currentStatus, <-statusCh)
	assert.Equal(t, currentStatus, provider.GetStatus())

	currentStatus = interfaces.BigSegmentStoreStatus{Available: true, Stale: false}
	broadcaster.Broadcast(currentStatus)
	assert.Equal(t, currentStatus, <-statusCh)
	assert.Equal(t, currentStatus, provider.GetStatus())
}

func TestStatusListenerWhenNoStoreExists(t *testing.T) {
	provider := NewBigSegmentStoreStatusProviderImpl(nil, internal.NewBroadcaster[interfaces.BigSegmentStoreStatus]())

	statusCh := provider.AddStatusListener()
	assert.NotNil(t, statusCh) // nothing will be sent on this channel, but there should be one
}
