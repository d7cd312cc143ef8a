package fdv2proto

import (
	"encoding/json"

	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"
)

// ChangeType describes the kind of mutation a Change represents.
type ChangeType string

const (
	// ChangeTypePut means the object identified by Kind/Key should be added or replaced.
	ChangeTypePut ChangeType = "put"
	// ChangeTypeDelete means the object identified by Kind/Key should be removed.
	ChangeTypeDelete ChangeType = "delete"
)

// ObjectKind identifies the kind of object a Change applies to. It mirrors the vocabulary used on the
// wire ("flag", "segment"), which is coarser than the internal ldstoretypes.DataKind used for storage.
type ObjectKind string

const (
	// FlagKind identifies a feature flag.
	FlagKind ObjectKind = "flag"
	// SegmentKind identifies a segment.
	SegmentKind ObjectKind = "segment"
)

func (k ObjectKind) dataKind() datakinds.DataKindInternal {
	switch k {
	case FlagKind:
		return datakinds.Features
	case SegmentKind:
		return datakinds.Segments
	default:
		return nil
	}
}

// Change represents a single mutation to a flag or segment, as delivered by a Basis or a subsequent
// delta update. Object carries the raw JSON representation of the item; it is only inspected for
// ChangeTypePut (a delete only needs the key and version).
type Change struct {
	Action  ChangeType
	Kind    ObjectKind
	Key     string
	Version int
	Object  json.RawMessage
}

// ToCollections converts a list of Changes into the []ldstoretypes.Collection shape required by
// subsystems.DataStore.Init, grouping flags and segments separately. Changes referencing an unrecognized
// ObjectKind are skipped.
func ToCollections(changes []Change) ([]ldstoretypes.Collection, error) {
	flags := ldstoretypes.Collection{Kind: datakinds.Features}
	segments := ldstoretypes.Collection{Kind: datakinds.Segments}

	for _, c := range changes {
		kind := c.Kind.dataKind()
		if kind == nil {
			continue
		}

		item, err := c.toItemDescriptor(kind)
		if err != nil {
			return nil, err
		}

		keyed := ldstoretypes.KeyedItemDescriptor{Key: c.Key, Item: item}
		switch c.Kind {
		case FlagKind:
			flags.Items = append(flags.Items, keyed)
		case SegmentKind:
			segments.Items = append(segments.Items, keyed)
		}
	}

	return []ldstoretypes.Collection{flags, segments}, nil
}

func (c Change) toItemDescriptor(kind datakinds.DataKindInternal) (ldstoretypes.ItemDescriptor, error) {
	if c.Action == ChangeTypeDelete {
		return ldstoretypes.ItemDescriptor{Version: c.Version, Item: nil}, nil
	}
	return kind.Deserialize(c.Object)
}
