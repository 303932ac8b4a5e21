package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/types"
)

// Dataset operations. Every dataset row is mirrored in a hash index so
// lookups by content hash are a single Get.

func (tx *Tx) CreateDataset(ds *types.Dataset) error {
	idx := tx.btx.Bucket(bucketDatasetHash)
	if existing := idx.Get(u64tob(ds.Hash)); existing != nil {
		return fmt.Errorf("dataset with hash %d already exists (id %d): %w",
			ds.Hash, btoi(existing), errdefs.ErrConflict)
	}

	b := tx.btx.Bucket(bucketDatasets)
	if ds.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		ds.ID = id
	}
	if err := putJSON(b, itob(ds.ID), ds); err != nil {
		return err
	}
	return idx.Put(u64tob(ds.Hash), itob(ds.ID))
}

func (tx *Tx) GetDataset(id int64) (*types.Dataset, error) {
	var ds types.Dataset
	data := tx.btx.Bucket(bucketDatasets).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("dataset %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// GetDatasetByHash returns the dataset carrying the hash, or nil when no
// dataset does.
func (tx *Tx) GetDatasetByHash(hash uint64) (*types.Dataset, error) {
	idKey := tx.btx.Bucket(bucketDatasetHash).Get(u64tob(hash))
	if idKey == nil {
		return nil, nil
	}
	return tx.GetDataset(btoi(idKey))
}

// UpdateDataset rewrites a dataset row, moving its hash index entry when
// the content hash changed.
func (tx *Tx) UpdateDataset(ds *types.Dataset) error {
	old, err := tx.GetDataset(ds.ID)
	if err != nil {
		return err
	}

	idx := tx.btx.Bucket(bucketDatasetHash)
	if old.Hash != ds.Hash {
		if existing := idx.Get(u64tob(ds.Hash)); existing != nil && btoi(existing) != ds.ID {
			return fmt.Errorf("dataset with hash %d already exists (id %d): %w",
				ds.Hash, btoi(existing), errdefs.ErrConflict)
		}
		if err := idx.Delete(u64tob(old.Hash)); err != nil {
			return err
		}
		if err := idx.Put(u64tob(ds.Hash), itob(ds.ID)); err != nil {
			return err
		}
	}

	return putJSON(tx.btx.Bucket(bucketDatasets), itob(ds.ID), ds)
}

// Owner operations, shared across the four owner tables. Rows are keyed
// by (entity, user).

func (tx *Tx) PutOwner(kind types.OwnerKind, owner *types.Owner) error {
	b, err := tx.ownerBucket(kind)
	if err != nil {
		return err
	}
	return putJSON(b, pairKey(owner.EntityID, owner.UserID), owner)
}

func (tx *Tx) GetOwner(kind types.OwnerKind, entityID, userID int64) (*types.Owner, error) {
	b, err := tx.ownerBucket(kind)
	if err != nil {
		return nil, err
	}
	data := b.Get(pairKey(entityID, userID))
	if data == nil {
		return nil, fmt.Errorf("%s owner (%d, %d): %w", kind, entityID, userID, errdefs.ErrNotFound)
	}
	var owner types.Owner
	if err := json.Unmarshal(data, &owner); err != nil {
		return nil, err
	}
	return &owner, nil
}

func (tx *Tx) DeleteOwner(kind types.OwnerKind, entityID, userID int64) error {
	b, err := tx.ownerBucket(kind)
	if err != nil {
		return err
	}
	key := pairKey(entityID, userID)
	if b.Get(key) == nil {
		return fmt.Errorf("%s owner (%d, %d): %w", kind, entityID, userID, errdefs.ErrNotFound)
	}
	return b.Delete(key)
}

func (tx *Tx) ListOwners(kind types.OwnerKind, entityID int64) ([]*types.Owner, error) {
	b, err := tx.ownerBucket(kind)
	if err != nil {
		return nil, err
	}
	var owners []*types.Owner
	c := b.Cursor()
	for k, v := c.Seek(itob(entityID)); k != nil && len(k) == 16 && btoi(k[:8]) == entityID; k, v = c.Next() {
		var owner types.Owner
		if err := json.Unmarshal(v, &owner); err != nil {
			return nil, err
		}
		owners = append(owners, &owner)
	}
	return owners, nil
}

// Template operations

func (tx *Tx) CreateTemplate(tpl *types.Template) error {
	b := tx.btx.Bucket(bucketTemplates)
	if tpl.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		tpl.ID = id
	}
	return putJSON(b, itob(tpl.ID), tpl)
}

func (tx *Tx) GetTemplate(id int64) (*types.Template, error) {
	var tpl types.Template
	data := tx.btx.Bucket(bucketTemplates).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("template %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (tx *Tx) CreateTemplateType(tt *types.TemplateType) error {
	b := tx.btx.Bucket(bucketTemplateTypes)
	if tt.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		tt.ID = id
	}
	return putJSON(b, itob(tt.ID), tt)
}

func (tx *Tx) GetTemplateType(id int64) (*types.TemplateType, error) {
	var tt types.TemplateType
	data := tx.btx.Bucket(bucketTemplateTypes).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("template type %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &tt); err != nil {
		return nil, err
	}
	return &tt, nil
}

func (tx *Tx) PutTypeAttr(ta *types.TypeAttr) error {
	b := tx.btx.Bucket(bucketTypeAttrs)
	return putJSON(b, pairKey(ta.TypeID, ta.AttrID), ta)
}

func (tx *Tx) ListTypeAttrs(typeID int64) ([]*types.TypeAttr, error) {
	var tas []*types.TypeAttr
	c := tx.btx.Bucket(bucketTypeAttrs).Cursor()
	for k, v := c.Seek(itob(typeID)); k != nil && len(k) == 16 && btoi(k[:8]) == typeID; k, v = c.Next() {
		var ta types.TypeAttr
		if err := json.Unmarshal(v, &ta); err != nil {
			return nil, err
		}
		tas = append(tas, &ta)
	}
	return tas, nil
}

// AttrMap and ResourceAttrMap operations

func (tx *Tx) PutAttrMap(am *types.AttrMap) error {
	b := tx.btx.Bucket(bucketAttrMaps)
	return putJSON(b, pairKey(am.AttrAID, am.AttrBID), am)
}

func (tx *Tx) PutResourceAttrMap(ram *types.ResourceAttrMap) error {
	b := tx.btx.Bucket(bucketResourceAttrMaps)
	return putJSON(b, pairKey(ram.ResourceAttrAID, ram.ResourceAttrBID), ram)
}

// FindResourceAttrMap looks a mapping up by either orientation of the
// resource attr pair.
func (tx *Tx) FindResourceAttrMap(raID1, raID2 int64) (*types.ResourceAttrMap, error) {
	b := tx.btx.Bucket(bucketResourceAttrMaps)
	data := b.Get(pairKey(raID1, raID2))
	if data == nil {
		data = b.Get(pairKey(raID2, raID1))
	}
	if data == nil {
		return nil, nil
	}
	var ram types.ResourceAttrMap
	if err := json.Unmarshal(data, &ram); err != nil {
		return nil, err
	}
	return &ram, nil
}

// DatasetCollection operations

func (tx *Tx) CreateCollection(coll *types.DatasetCollection) error {
	b := tx.btx.Bucket(bucketCollections)
	if coll.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		coll.ID = id
	}
	return putJSON(b, itob(coll.ID), coll)
}

func (tx *Tx) GetCollection(id int64) (*types.DatasetCollection, error) {
	var coll types.DatasetCollection
	data := tx.btx.Bucket(bucketCollections).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("dataset collection %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

func (tx *Tx) PutCollectionItem(item *types.DatasetCollectionItem) error {
	b := tx.btx.Bucket(bucketCollectionItems)
	return putJSON(b, pairKey(item.CollectionID, item.DatasetID), item)
}

func (tx *Tx) DeleteCollectionItem(collectionID, datasetID int64) error {
	b := tx.btx.Bucket(bucketCollectionItems)
	key := pairKey(collectionID, datasetID)
	if b.Get(key) == nil {
		return fmt.Errorf("collection item (%d, %d): %w", collectionID, datasetID, errdefs.ErrNotFound)
	}
	return b.Delete(key)
}

func (tx *Tx) ListCollectionItems(collectionID int64) ([]*types.DatasetCollectionItem, error) {
	var items []*types.DatasetCollectionItem
	c := tx.btx.Bucket(bucketCollectionItems).Cursor()
	for k, v := c.Seek(itob(collectionID)); k != nil && len(k) == 16 && btoi(k[:8]) == collectionID; k, v = c.Next() {
		var item types.DatasetCollectionItem
		if err := json.Unmarshal(v, &item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, nil
}
