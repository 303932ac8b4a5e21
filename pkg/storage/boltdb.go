package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hydranet/hydranet/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketUsers             = []byte("users")
	bucketProjects          = []byte("projects")
	bucketNetworks          = []byte("networks")
	bucketNodes             = []byte("nodes")
	bucketLinks             = []byte("links")
	bucketGroups            = []byte("resource_groups")
	bucketAttrs             = []byte("attrs")
	bucketResourceAttrs     = []byte("resource_attrs")
	bucketScenarios         = []byte("scenarios")
	bucketResourceScenarios = []byte("resource_scenarios")
	bucketGroupItems        = []byte("resource_group_items")
	bucketDatasets          = []byte("datasets")
	bucketDatasetHash       = []byte("dataset_hash_idx")
	bucketTemplates         = []byte("templates")
	bucketTemplateTypes     = []byte("template_types")
	bucketTypeAttrs         = []byte("type_attrs")
	bucketAttrMaps          = []byte("attr_maps")
	bucketResourceAttrMaps  = []byte("resource_attr_maps")
	bucketCollections       = []byte("dataset_collections")
	bucketCollectionItems   = []byte("dataset_collection_items")
	bucketRules             = []byte("rules")
	bucketNotes             = []byte("notes")
	bucketProjectOwners     = []byte("project_owners")
	bucketNetworkOwners     = []byte("network_owners")
	bucketTemplateOwners    = []byte("template_owners")
	bucketDatasetOwners     = []byte("dataset_owners")
)

// BoltStore implements Store using BoltDB. All rows are JSON documents
// keyed by big-endian ids so cursor order matches insertion order.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "hydranet.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketUsers,
			bucketProjects,
			bucketNetworks,
			bucketNodes,
			bucketLinks,
			bucketGroups,
			bucketAttrs,
			bucketResourceAttrs,
			bucketScenarios,
			bucketResourceScenarios,
			bucketGroupItems,
			bucketDatasets,
			bucketDatasetHash,
			bucketTemplates,
			bucketTemplateTypes,
			bucketTypeAttrs,
			bucketAttrMaps,
			bucketResourceAttrMaps,
			bucketCollections,
			bucketCollectionItems,
			bucketRules,
			bucketNotes,
			bucketProjectOwners,
			bucketNetworkOwners,
			bucketTemplateOwners,
			bucketDatasetOwners,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Update runs fn in a read-write transaction.
func (s *BoltStore) Update(fn func(tx *Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{btx: btx})
	})
}

// View runs fn in a read-only transaction.
func (s *BoltStore) View(fn func(tx *Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{btx: btx})
	})
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Tx is one storage transaction. All entity accessors hang off it so an
// engine operation can touch many tables atomically.
type Tx struct {
	btx *bolt.Tx
}

// itob converts an id to its 8-byte big-endian key form.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// u64tob converts a dataset hash to its key form.
func u64tob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// pairKey builds a composite key from two ids.
func pairKey(a, b int64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k[:8], uint64(a))
	binary.BigEndian.PutUint64(k[8:], uint64(b))
	return k
}

func putJSON(b *bolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// nextID allocates the next id from a bucket's sequence.
func nextID(b *bolt.Bucket) (int64, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return int64(seq), nil
}

// ownerBucket routes an owner kind to its bucket.
func (tx *Tx) ownerBucket(kind types.OwnerKind) (*bolt.Bucket, error) {
	switch kind {
	case types.OwnerKindProject:
		return tx.btx.Bucket(bucketProjectOwners), nil
	case types.OwnerKindNetwork:
		return tx.btx.Bucket(bucketNetworkOwners), nil
	case types.OwnerKindTemplate:
		return tx.btx.Bucket(bucketTemplateOwners), nil
	case types.OwnerKindDataset:
		return tx.btx.Bucket(bucketDatasetOwners), nil
	}
	return nil, fmt.Errorf("unknown owner kind %q", kind)
}
