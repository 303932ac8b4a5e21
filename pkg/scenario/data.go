package scenario

import (
	"fmt"
	"time"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/events"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// UpdateResourceData upserts bindings in one scenario via the dataset
// mutation policy. A nil value deletes the binding.
func (e *Engine) UpdateResourceData(scenarioID int64, items []*ResourceScenarioInput, userID int64) (updated []*types.ResourceScenario, err error) {
	start := time.Now()
	defer func() { e.observe("update_resourcedata", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(scenario); err != nil {
			return err
		}

		updated, err = e.applyResourceData(tx, scenario, items, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (e *Engine) applyResourceData(tx *storage.Tx, scenario *types.Scenario, items []*ResourceScenarioInput, userID int64) ([]*types.ResourceScenario, error) {
	var updated []*types.ResourceScenario
	for _, in := range items {
		if in.Value == nil {
			if err := tx.DeleteResourceScenario(scenario.ID, in.ResourceAttrID); err != nil && !errdefs.IsNotFound(err) {
				return nil, err
			}
			continue
		}
		rs, err := e.applyResourceScenario(tx, scenario, in, userID)
		if err != nil {
			return nil, err
		}
		updated = append(updated, rs)
	}
	return updated, nil
}

// BulkUpdateResourceData applies the same binding updates to several
// scenarios. All scenarios must belong to one network; any failure rolls
// back every scenario's changes.
func (e *Engine) BulkUpdateResourceData(scenarioIDs []int64, items []*ResourceScenarioInput, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("bulk_update_resourcedata", start, err) }()

	return e.store.Update(func(tx *storage.Tx) error {
		scenarios := make([]*types.Scenario, 0, len(scenarioIDs))
		var networkID int64
		for _, id := range scenarioIDs {
			scenario, err := tx.GetScenario(id)
			if err != nil {
				return err
			}
			if networkID == 0 {
				networkID = scenario.NetworkID
			} else if scenario.NetworkID != networkID {
				return fmt.Errorf("scenarios span networks %d and %d: %w",
					networkID, scenario.NetworkID, errdefs.ErrCrossNetwork)
			}
			scenarios = append(scenarios, scenario)
		}
		if len(scenarios) == 0 {
			return nil
		}

		if err := e.guard.CanWriteNetwork(tx, networkID, userID); err != nil {
			return err
		}
		for _, scenario := range scenarios {
			if err := requireUnlocked(scenario); err != nil {
				return err
			}
			if _, err := e.applyResourceData(tx, scenario, items, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteResourceData removes one binding.
func (e *Engine) DeleteResourceData(scenarioID, resourceAttrID int64, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("delete_resourcedata", start, err) }()

	return e.store.Update(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(scenario); err != nil {
			return err
		}
		return tx.DeleteResourceScenario(scenarioID, resourceAttrID)
	})
}

// AddDataToAttribute binds a new value to one resource attribute in a
// scenario, creating or updating the binding via the mutation policy.
func (e *Engine) AddDataToAttribute(scenarioID, resourceAttrID int64, value *ResourceScenarioInput, userID int64) (rs *types.ResourceScenario, err error) {
	start := time.Now()
	defer func() { e.observe("add_data_to_attribute", start, err) }()

	if value == nil || value.Value == nil {
		return nil, fmt.Errorf("no value supplied for resource attr %d: %w", resourceAttrID, errdefs.ErrInvalidInput)
	}
	value.ResourceAttrID = resourceAttrID

	err = e.store.Update(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(scenario); err != nil {
			return err
		}
		rs, err = e.applyResourceScenario(tx, scenario, value, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.publish(events.EventDatasetCreated, "", map[string]string{
		"scenario_id":      fmt.Sprint(scenarioID),
		"resource_attr_id": fmt.Sprint(resourceAttrID),
		"dataset_id":       fmt.Sprint(rs.DatasetID),
	})
	return rs, nil
}

// CopyDataFromScenario rebinds the named resource attributes in the
// target scenario to whatever datasets the source scenario holds for
// them. Attributes absent from the source are skipped.
func (e *Engine) CopyDataFromScenario(resourceAttrIDs []int64, sourceScenarioID, targetScenarioID int64, userID int64) (copied []*types.ResourceScenario, err error) {
	start := time.Now()
	defer func() { e.observe("copy_data_from_scenario", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		source, err := tx.GetScenario(sourceScenarioID)
		if err != nil {
			return err
		}
		target, err := tx.GetScenario(targetScenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanReadNetwork(tx, source.NetworkID, userID); err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, target.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(target); err != nil {
			return err
		}

		for _, raID := range resourceAttrIDs {
			srcRS, err := tx.GetResourceScenario(sourceScenarioID, raID)
			if errdefs.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			ra, err := tx.GetResourceAttr(raID)
			if err != nil {
				return err
			}
			if err := scopeToNetwork(tx, target, ra); err != nil {
				return err
			}

			rs := &types.ResourceScenario{
				ScenarioID:     targetScenarioID,
				ResourceAttrID: raID,
				DatasetID:      srcRS.DatasetID,
				Source:         srcRS.Source,
				CreatedAt:      time.Now(),
			}
			if existing, err := tx.GetResourceScenario(targetScenarioID, raID); err == nil {
				rs.CreatedAt = existing.CreatedAt
			} else if !errdefs.IsNotFound(err) {
				return err
			}
			if err := tx.PutResourceScenario(rs); err != nil {
				return err
			}
			copied = append(copied, rs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// SetResourceScenarioDataset rebinds one binding directly to an existing
// dataset by id.
func (e *Engine) SetResourceScenarioDataset(scenarioID, resourceAttrID, datasetID int64, userID int64) (rs *types.ResourceScenario, err error) {
	start := time.Now()
	defer func() { e.observe("set_rs_dataset", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(scenario); err != nil {
			return err
		}

		ds, err := tx.GetDataset(datasetID)
		if err != nil {
			return err
		}
		if ds.Hidden == types.Yes {
			if err := e.guard.CanReadDataset(tx, ds, userID); err != nil {
				return err
			}
		}

		rs, err = tx.GetResourceScenario(scenarioID, resourceAttrID)
		if err != nil {
			return err
		}
		rs.DatasetID = datasetID
		return tx.PutResourceScenario(rs)
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// GetResourceScenario returns one binding.
func (e *Engine) GetResourceScenario(scenarioID, resourceAttrID int64, userID int64) (*types.ResourceScenario, error) {
	var rs *types.ResourceScenario
	err := e.store.View(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		rs, err = tx.GetResourceScenario(scenarioID, resourceAttrID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// GetResourceScenarios returns a scenario's bindings, optionally
// restricted to the named resource attributes.
func (e *Engine) GetResourceScenarios(scenarioID int64, resourceAttrIDs []int64, userID int64) ([]*types.ResourceScenario, error) {
	var rss []*types.ResourceScenario
	err := e.store.View(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		rss, err = tx.ListResourceScenarios(scenarioID)
		if err != nil {
			return err
		}
		if len(resourceAttrIDs) > 0 {
			want := make(map[int64]bool, len(resourceAttrIDs))
			for _, id := range resourceAttrIDs {
				want[id] = true
			}
			kept := rss[:0]
			for _, rs := range rss {
				if want[rs.ResourceAttrID] {
					kept = append(kept, rs)
				}
			}
			rss = kept
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rss, nil
}

// GetDatasetScenarios lists the scenarios referencing a dataset that the
// user is allowed to see.
func (e *Engine) GetDatasetScenarios(datasetID int64, userID int64) ([]*types.Scenario, error) {
	var scenarios []*types.Scenario
	err := e.store.View(func(tx *storage.Tx) error {
		if _, err := tx.GetDataset(datasetID); err != nil {
			return err
		}
		rss, err := tx.ListResourceScenariosByDataset(datasetID)
		if err != nil {
			return err
		}

		seen := make(map[int64]bool)
		for _, rs := range rss {
			if seen[rs.ScenarioID] {
				continue
			}
			seen[rs.ScenarioID] = true
			scenario, err := tx.GetScenario(rs.ScenarioID)
			if err != nil {
				return err
			}
			if e.guard.CanReadNetwork(tx, scenario.NetworkID, userID) != nil {
				continue
			}
			scenarios = append(scenarios, scenario)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scenarios, nil
}
