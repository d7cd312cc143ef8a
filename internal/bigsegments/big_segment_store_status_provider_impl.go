package bigsegments

import (
	"github.com/fctrl/go-server-sdk/interfaces"
	"github.com/fctrl/go-server-sdk/internal"
)

// This is the standard implementation of BigSegmentStoreStatusProvider. It gets the current status from
// the getStatusFn it was given, and its status listeners from the given broadcaster.
//
// We always create this component regardless of whether there really is a store. If there is no store (so
// getStatusFn is nil) then we won't actually be doing any Big Segments stuff, or sending any status
// updates, but this API object still exists so your app won't crash if you try to use GetStatus or
// AddStatusListener.
type bigSegmentStoreStatusProviderImpl struct {
	getStatusFn func() interfaces.BigSegmentStoreStatus
	broadcaster *internal.Broadcaster[interfaces.BigSegmentStoreStatus]
}

// NewBigSegmentStoreStatusProviderImpl creates the internal implementation of
// BigSegmentStoreStatusProvider. The getStatusFn parameter can be nil if there is no Big Segment store;
// GetStatus then reports a status with Available set to false.
func NewBigSegmentStoreStatusProviderImpl(
	getStatusFn func() interfaces.BigSegmentStoreStatus,
	broadcaster *internal.Broadcaster[interfaces.BigSegmentStoreStatus],
) interfaces.BigSegmentStoreStatusProvider {
	return &bigSegmentStoreStatusProviderImpl{
		getStatusFn: getStatusFn,
		broadcaster: broadcaster,
	}
}

func (b *bigSegmentStoreStatusProviderImpl) GetStatus() interfaces.BigSegmentStoreStatus {
	if b.getStatusFn == nil {
		return interfaces.BigSegmentStoreStatus{Available: false}
	}
	return b.getStatusFn()
}

func (b *bigSegmentStoreStatusProviderImpl) AddStatusListener() <-chan interfaces.BigSegmentStoreStatus {
	return b.broadcaster.AddListener()
}

func (b *bigSegmentStoreStatusProviderImpl) RemoveStatusListener(
	ch <-chan interfaces.BigSegmentStoreStatus,
) {
	b.broadcaster.RemoveListener(ch)
}
