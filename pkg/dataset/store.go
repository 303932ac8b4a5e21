package dataset

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/log"
	"github.com/hydranet/hydranet/pkg/metrics"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// Input carries the caller-supplied fields of a dataset. Value holds the
// raw form accepted by Encode for the given type.
type Input struct {
	Type      types.DataType
	Name      string
	Units     string
	Dimension string
	Value     interface{}
	Metadata  map[string]string
	Hidden    types.YesNo
	StartTime string
	Frequency string
}

// Store persists datasets with content-addressed deduplication. Payloads
// above the compression threshold are stored zlib-compressed.
type Store struct {
	threshold int
	guard     *permission.Guard
	logger    zerolog.Logger
}

func NewStore(compressionThreshold int, guard *permission.Guard) *Store {
	return &Store{
		threshold: compressionThreshold,
		guard:     guard,
		logger:    log.WithComponent("dataset"),
	}
}

// AddOrReuse inserts a dataset or returns the existing row carrying the
// same content hash. A reused hidden dataset the caller cannot view fails
// with a permission error rather than leaking the payload.
func (s *Store) AddOrReuse(tx *storage.Tx, in *Input, userID int64) (*types.Dataset, error) {
	payload, err := Encode(in.Type, in.Value)
	if err != nil {
		return nil, err
	}
	hash := Hash(in.Name, in.Units, in.Dimension, in.Type, payload, in.Metadata)

	// Two attempts: losing an insert race surfaces as Conflict, and the
	// winner's row is re-read on the second pass.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := tx.GetDatasetByHash(hash)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.Hidden == types.Yes {
				if err := s.guard.CanReadDataset(tx, existing, userID); err != nil {
					return nil, err
				}
			}
			metrics.DatasetDedupHits.Inc()
			return existing, nil
		}

		ds, err := s.insert(tx, in, payload, hash, userID)
		if err != nil {
			if errdefs.IsConflict(err) {
				continue
			}
			return nil, err
		}
		metrics.DatasetDedupMisses.Inc()
		return ds, nil
	}

	return nil, fmt.Errorf("dataset hash %d: insert retry exhausted: %w", hash, errdefs.ErrConflict)
}

func (s *Store) insert(tx *storage.Tx, in *Input, payload []byte, hash uint64, userID int64) (*types.Dataset, error) {
	stored := Compress(payload, s.threshold)
	if len(stored) != len(payload) {
		metrics.DatasetCompressed.Inc()
	}

	hidden := in.Hidden
	if hidden == "" {
		hidden = types.No
	}

	ds := &types.Dataset{
		Type:      in.Type,
		Name:      in.Name,
		Units:     in.Units,
		Dimension: in.Dimension,
		Value:     stored,
		Hash:      hash,
		Hidden:    hidden,
		StartTime: in.StartTime,
		Frequency: in.Frequency,
		Metadata:  in.Metadata,
		CreatedBy: userID,
	}
	if err := tx.CreateDataset(ds); err != nil {
		return nil, err
	}

	owner := &types.Owner{
		EntityID: ds.ID,
		UserID:   userID,
		View:     types.Yes,
		Edit:     types.Yes,
		Share:    types.Yes,
	}
	if err := tx.PutOwner(types.OwnerKindDataset, owner); err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("dataset_id", ds.ID).Uint64("hash", hash).Msg("dataset inserted")
	return ds, nil
}

// Update rewrites a dataset in place, recomputing the hash. A hash
// collision with a different row fails with Conflict so the caller can
// fall back to AddOrReuse.
func (s *Store) Update(tx *storage.Tx, datasetID int64, in *Input, userID int64) (*types.Dataset, error) {
	ds, err := tx.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	if ds.Hidden == types.Yes {
		if err := s.guard.CanWriteDataset(tx, ds, userID); err != nil {
			return nil, err
		}
	}

	payload, err := Encode(in.Type, in.Value)
	if err != nil {
		return nil, err
	}
	hash := Hash(in.Name, in.Units, in.Dimension, in.Type, payload, in.Metadata)

	ds.Type = in.Type
	ds.Name = in.Name
	ds.Units = in.Units
	ds.Dimension = in.Dimension
	ds.Value = Compress(payload, s.threshold)
	ds.Hash = hash
	ds.StartTime = in.StartTime
	ds.Frequency = in.Frequency
	ds.Metadata = in.Metadata

	if err := tx.UpdateDataset(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// BulkInsert adds many datasets, preserving input order in the result.
// Duplicates within the batch collapse to the same row.
func (s *Store) BulkInsert(tx *storage.Tx, items []*Input, userID int64) ([]*types.Dataset, error) {
	out := make([]*types.Dataset, 0, len(items))
	for i, in := range items {
		ds, err := s.AddOrReuse(tx, in, userID)
		if err != nil {
			return nil, fmt.Errorf("bulk insert item %d: %w", i, err)
		}
		out = append(out, ds)
	}
	return out, nil
}

// SetOwner grants or adjusts a user's permissions on a dataset. The
// granter needs share access.
func (s *Store) SetOwner(tx *storage.Tx, datasetID, granterID, userID int64, view, edit, share types.YesNo) error {
	ds, err := tx.GetDataset(datasetID)
	if err != nil {
		return err
	}
	if err := s.guard.CanShareDataset(tx, ds, granterID); err != nil {
		return err
	}
	return tx.PutOwner(types.OwnerKindDataset, &types.Owner{
		EntityID: datasetID,
		UserID:   userID,
		View:     view,
		Edit:     edit,
		Share:    share,
	})
}

// UnsetOwner removes a user's owner row. The creator's row cannot be
// removed.
func (s *Store) UnsetOwner(tx *storage.Tx, datasetID, granterID, userID int64) error {
	ds, err := tx.GetDataset(datasetID)
	if err != nil {
		return err
	}
	if err := s.guard.CanShareDataset(tx, ds, granterID); err != nil {
		return err
	}
	if userID == ds.CreatedBy {
		return fmt.Errorf("cannot unset creator %d of dataset %d: %w", userID, datasetID, errdefs.ErrInvalidInput)
	}
	return tx.DeleteOwner(types.OwnerKindDataset, datasetID, userID)
}
