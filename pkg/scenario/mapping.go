package scenario

import (
	"fmt"
	"time"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/graph"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// CreateAttributeMapping links two resource attributes so values can be
// propagated between their scenarios. Both attributes must resolve to a
// network the caller can write, and the attr-level pairing is recorded
// alongside the resource-level one.
func (e *Engine) CreateAttributeMapping(raAID, raBID int64, userID int64) (ram *types.ResourceAttrMap, err error) {
	start := time.Now()
	defer func() { e.observe("create_attribute_mapping", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		raA, err := tx.GetResourceAttr(raAID)
		if err != nil {
			return err
		}
		raB, err := tx.GetResourceAttr(raBID)
		if err != nil {
			return err
		}

		var networkIDs [2]int64
		for i, ra := range []*types.ResourceAttr{raA, raB} {
			network, err := graph.NetworkOf(tx, ra)
			if err != nil {
				return err
			}
			if network == nil {
				return fmt.Errorf("resource attr %d is project-scoped: %w", ra.ID, errdefs.ErrInvalidInput)
			}
			if err := e.guard.CanWriteNetwork(tx, network.ID, userID); err != nil {
				return err
			}
			networkIDs[i] = network.ID
		}

		if err := tx.PutAttrMap(&types.AttrMap{AttrAID: raA.AttrID, AttrBID: raB.AttrID}); err != nil {
			return err
		}
		ram = &types.ResourceAttrMap{
			NetworkAID:      networkIDs[0],
			NetworkBID:      networkIDs[1],
			ResourceAttrAID: raAID,
			ResourceAttrBID: raBID,
		}
		return tx.PutResourceAttrMap(ram)
	})
	if err != nil {
		return nil, err
	}
	return ram, nil
}

// UpdateValueFromMapping propagates a value across a resource attribute
// mapping: the target binding takes the source's dataset, gains one when
// absent, and is deleted when only the target side exists. The mapping
// lookup accepts either orientation. The operation is idempotent.
func (e *Engine) UpdateValueFromMapping(sourceRAID, targetRAID, sourceScenarioID, targetScenarioID int64, userID int64) (rs *types.ResourceScenario, err error) {
	start := time.Now()
	defer func() { e.observe("update_value_from_mapping", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		ram, err := tx.FindResourceAttrMap(sourceRAID, targetRAID)
		if err != nil {
			return err
		}
		if ram == nil {
			return fmt.Errorf("no mapping between resource attrs %d and %d: %w",
				sourceRAID, targetRAID, errdefs.ErrNotFound)
		}

		target, err := tx.GetScenario(targetScenarioID)
		if err != nil {
			return err
		}
		if _, err := tx.GetScenario(sourceScenarioID); err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, target.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(target); err != nil {
			return err
		}

		srcRS, err := tx.GetResourceScenario(sourceScenarioID, sourceRAID)
		if err != nil && !errdefs.IsNotFound(err) {
			return err
		}
		tgtRS, err := tx.GetResourceScenario(targetScenarioID, targetRAID)
		if err != nil && !errdefs.IsNotFound(err) {
			return err
		}

		switch {
		case srcRS != nil && tgtRS != nil:
			tgtRS.DatasetID = srcRS.DatasetID
			rs = tgtRS
			return tx.PutResourceScenario(tgtRS)
		case srcRS != nil:
			rs = &types.ResourceScenario{
				ScenarioID:     targetScenarioID,
				ResourceAttrID: targetRAID,
				DatasetID:      srcRS.DatasetID,
				Source:         srcRS.Source,
				CreatedAt:      time.Now(),
			}
			return tx.PutResourceScenario(rs)
		case tgtRS != nil:
			// Mapping propagates absence.
			return tx.DeleteResourceScenario(targetScenarioID, targetRAID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}
