package graph

import (
	"fmt"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// ResourceRef identifies one resource polymorphically.
type ResourceRef struct {
	Key types.RefKey
	ID  int64
}

// Resolve loads the referenced entity, proving it exists.
func Resolve(tx *storage.Tx, ref ResourceRef) (interface{}, error) {
	switch ref.Key {
	case types.RefKeyProject:
		return tx.GetProject(ref.ID)
	case types.RefKeyNetwork:
		return tx.GetNetwork(ref.ID)
	case types.RefKeyNode:
		return tx.GetNode(ref.ID)
	case types.RefKeyLink:
		return tx.GetLink(ref.ID)
	case types.RefKeyGroup:
		return tx.GetResourceGroup(ref.ID)
	}
	return nil, fmt.Errorf("unknown ref key %q: %w", ref.Key, errdefs.ErrInvalidInput)
}

// AddAttribute binds an attribute to the resource, filling exactly the
// foreign-key slot selected by the ref key.
func AddAttribute(tx *storage.Tx, ref ResourceRef, attrID int64, isVar types.YesNo) (*types.ResourceAttr, error) {
	if _, err := Resolve(tx, ref); err != nil {
		return nil, err
	}
	if _, err := tx.GetAttr(attrID); err != nil {
		return nil, err
	}

	ra := &types.ResourceAttr{
		AttrID: attrID,
		RefKey: ref.Key,
		IsVar:  isVar,
	}
	switch ref.Key {
	case types.RefKeyProject:
		ra.ProjectID = ref.ID
	case types.RefKeyNetwork:
		ra.NetworkID = ref.ID
	case types.RefKeyNode:
		ra.NodeID = ref.ID
	case types.RefKeyLink:
		ra.LinkID = ref.ID
	case types.RefKeyGroup:
		ra.GroupID = ref.ID
	}

	if err := tx.CreateResourceAttr(ra); err != nil {
		return nil, err
	}
	return ra, nil
}

// NetworkOf resolves a resource attribute up to its owning network.
// Project-scoped attributes have no network and yield nil.
func NetworkOf(tx *storage.Tx, ra *types.ResourceAttr) (*types.Network, error) {
	switch ra.RefKey {
	case types.RefKeyProject:
		return nil, nil
	case types.RefKeyNetwork:
		return tx.GetNetwork(ra.NetworkID)
	case types.RefKeyNode:
		node, err := tx.GetNode(ra.NodeID)
		if err != nil {
			return nil, err
		}
		return tx.GetNetwork(node.NetworkID)
	case types.RefKeyLink:
		link, err := tx.GetLink(ra.LinkID)
		if err != nil {
			return nil, err
		}
		return tx.GetNetwork(link.NetworkID)
	case types.RefKeyGroup:
		group, err := tx.GetResourceGroup(ra.GroupID)
		if err != nil {
			return nil, err
		}
		return tx.GetNetwork(group.NetworkID)
	}
	return nil, fmt.Errorf("unknown ref key %q: %w", ra.RefKey, errdefs.ErrInvalidInput)
}

// ResourceOf loads the entity a resource attribute is bound to.
func ResourceOf(tx *storage.Tx, ra *types.ResourceAttr) (interface{}, error) {
	return Resolve(tx, ResourceRef{Key: ra.RefKey, ID: ra.ResourceID()})
}
