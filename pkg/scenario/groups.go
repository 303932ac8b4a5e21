package scenario

import (
	"fmt"
	"time"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/events"
	"github.com/hydranet/hydranet/pkg/graph"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// addGroupItem materializes one membership row, routing the member id to
// the slot selected by its ref key.
func (e *Engine) addGroupItem(tx *storage.Tx, scenarioID int64, in *GroupItemInput) error {
	if _, err := tx.GetResourceGroup(in.GroupID); err != nil {
		return err
	}
	if _, err := graph.Resolve(tx, graph.ResourceRef{Key: in.RefKey, ID: in.MemberID}); err != nil {
		return err
	}

	item := &types.ResourceGroupItem{
		ScenarioID: scenarioID,
		GroupID:    in.GroupID,
		RefKey:     in.RefKey,
		CreatedAt:  time.Now(),
	}
	switch in.RefKey {
	case types.RefKeyNode:
		item.NodeID = in.MemberID
	case types.RefKeyLink:
		item.LinkID = in.MemberID
	case types.RefKeyGroup:
		item.SubgroupID = in.MemberID
	default:
		return fmt.Errorf("ref key %q cannot be a group member: %w", in.RefKey, errdefs.ErrInvalidInput)
	}

	return tx.CreateGroupItem(item)
}

// AddResourceGroupItems adds members to groups within a scenario.
func (e *Engine) AddResourceGroupItems(scenarioID int64, items []*GroupItemInput, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("add_resourcegroupitems", start, err) }()

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
		for _, in := range items {
			if err := e.addGroupItem(tx, scenarioID, in); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.publish(events.EventGroupChanged, "", map[string]string{"scenario_id": fmt.Sprint(scenarioID)})
	return nil
}

// DeleteResourceGroupItems removes membership rows by id.
func (e *Engine) DeleteResourceGroupItems(scenarioID int64, itemIDs []int64, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("delete_resourcegroupitems", start, err) }()

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
		for _, id := range itemIDs {
			item, err := tx.GetGroupItem(id)
			if err != nil {
				return err
			}
			if item.ScenarioID != scenarioID {
				return fmt.Errorf("group item %d belongs to scenario %d, not %d: %w",
					id, item.ScenarioID, scenarioID, errdefs.ErrInvalidInput)
			}
			if err := tx.DeleteGroupItem(id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.publish(events.EventGroupChanged, "", map[string]string{"scenario_id": fmt.Sprint(scenarioID)})
	return nil
}

// EmptyGroup deletes every member of a group within a scenario.
func (e *Engine) EmptyGroup(groupID, scenarioID int64, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("empty_group", start, err) }()

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
		if _, err := tx.GetResourceGroup(groupID); err != nil {
			return err
		}

		items, err := tx.ListGroupItemsByGroup(groupID, scenarioID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.DeleteGroupItem(item.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.publish(events.EventGroupChanged, "", map[string]string{"scenario_id": fmt.Sprint(scenarioID)})
	return nil
}

// GetResourceGroupItems lists a scenario's membership rows, optionally
// restricted to one group. A zero groupID means every group.
func (e *Engine) GetResourceGroupItems(scenarioID, groupID int64, userID int64) ([]*types.ResourceGroupItem, error) {
	var items []*types.ResourceGroupItem
	err := e.store.View(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		if groupID != 0 {
			if _, err := tx.GetResourceGroup(groupID); err != nil {
				return err
			}
			items, err = tx.ListGroupItemsByGroup(groupID, scenarioID)
			return err
		}
		items, err = tx.ListGroupItemsByScenario(scenarioID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
