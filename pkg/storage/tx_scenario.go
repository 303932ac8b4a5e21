package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/types"
)

// Scenario operations

func (tx *Tx) CreateScenario(scenario *types.Scenario) error {
	if _, err := tx.GetNetwork(scenario.NetworkID); err != nil {
		return err
	}

	existing, err := tx.FindScenarioByName(scenario.NetworkID, scenario.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("scenario %q already exists in network %d: %w",
			scenario.Name, scenario.NetworkID, errdefs.ErrConflict)
	}

	b := tx.btx.Bucket(bucketScenarios)
	if scenario.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		scenario.ID = id
	}
	return putJSON(b, itob(scenario.ID), scenario)
}

func (tx *Tx) GetScenario(id int64) (*types.Scenario, error) {
	var scenario types.Scenario
	data := tx.btx.Bucket(bucketScenarios).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("scenario %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (tx *Tx) PutScenario(scenario *types.Scenario) error {
	return putJSON(tx.btx.Bucket(bucketScenarios), itob(scenario.ID), scenario)
}

// DeleteScenario removes a scenario row together with its resource
// scenarios, group items, rules and notes.
func (tx *Tx) DeleteScenario(id int64) error {
	b := tx.btx.Bucket(bucketScenarios)
	if b.Get(itob(id)) == nil {
		return fmt.Errorf("scenario %d: %w", id, errdefs.ErrNotFound)
	}

	rss, err := tx.ListResourceScenarios(id)
	if err != nil {
		return err
	}
	for _, rs := range rss {
		if err := tx.DeleteResourceScenario(id, rs.ResourceAttrID); err != nil {
			return err
		}
	}

	items, err := tx.ListGroupItemsByScenario(id)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := tx.DeleteGroupItem(item.ID); err != nil {
			return err
		}
	}

	rules, err := tx.ListRulesByScenario(id)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if err := tx.btx.Bucket(bucketRules).Delete(itob(rule.ID)); err != nil {
			return err
		}
	}

	notes, err := tx.ListNotesByScenario(id)
	if err != nil {
		return err
	}
	for _, note := range notes {
		if err := tx.btx.Bucket(bucketNotes).Delete(itob(note.ID)); err != nil {
			return err
		}
	}

	return b.Delete(itob(id))
}

// FindScenarioByName returns the scenario with the given name in the
// network, or nil when none exists.
func (tx *Tx) FindScenarioByName(networkID int64, name string) (*types.Scenario, error) {
	var found *types.Scenario
	err := tx.btx.Bucket(bucketScenarios).ForEach(func(k, v []byte) error {
		var scenario types.Scenario
		if err := json.Unmarshal(v, &scenario); err != nil {
			return err
		}
		if scenario.NetworkID == networkID && scenario.Name == name {
			found = &scenario
		}
		return nil
	})
	return found, err
}

func (tx *Tx) ListScenariosByNetwork(networkID int64) ([]*types.Scenario, error) {
	var scenarios []*types.Scenario
	err := tx.btx.Bucket(bucketScenarios).ForEach(func(k, v []byte) error {
		var scenario types.Scenario
		if err := json.Unmarshal(v, &scenario); err != nil {
			return err
		}
		if scenario.NetworkID == networkID {
			scenarios = append(scenarios, &scenario)
		}
		return nil
	})
	return scenarios, err
}

// ResourceScenario operations. Rows are keyed by (scenario, resource attr)
// so a rebind overwrites in place.

func (tx *Tx) PutResourceScenario(rs *types.ResourceScenario) error {
	b := tx.btx.Bucket(bucketResourceScenarios)
	return putJSON(b, pairKey(rs.ScenarioID, rs.ResourceAttrID), rs)
}

func (tx *Tx) GetResourceScenario(scenarioID, resourceAttrID int64) (*types.ResourceScenario, error) {
	var rs types.ResourceScenario
	data := tx.btx.Bucket(bucketResourceScenarios).Get(pairKey(scenarioID, resourceAttrID))
	if data == nil {
		return nil, fmt.Errorf("resource scenario (%d, %d): %w",
			scenarioID, resourceAttrID, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (tx *Tx) DeleteResourceScenario(scenarioID, resourceAttrID int64) error {
	b := tx.btx.Bucket(bucketResourceScenarios)
	key := pairKey(scenarioID, resourceAttrID)
	if b.Get(key) == nil {
		return fmt.Errorf("resource scenario (%d, %d): %w",
			scenarioID, resourceAttrID, errdefs.ErrNotFound)
	}
	return b.Delete(key)
}

// ListResourceScenarios returns every binding in a scenario. The prefix
// scan works because keys lead with the scenario id.
func (tx *Tx) ListResourceScenarios(scenarioID int64) ([]*types.ResourceScenario, error) {
	var rss []*types.ResourceScenario
	c := tx.btx.Bucket(bucketResourceScenarios).Cursor()
	prefix := itob(scenarioID)
	for k, v := c.Seek(prefix); k != nil && len(k) == 16 && btoi(k[:8]) == scenarioID; k, v = c.Next() {
		var rs types.ResourceScenario
		if err := json.Unmarshal(v, &rs); err != nil {
			return nil, err
		}
		rss = append(rss, &rs)
	}
	return rss, nil
}

// ListResourceScenariosByDataset returns every binding, in any scenario,
// that points at the dataset.
func (tx *Tx) ListResourceScenariosByDataset(datasetID int64) ([]*types.ResourceScenario, error) {
	var rss []*types.ResourceScenario
	err := tx.btx.Bucket(bucketResourceScenarios).ForEach(func(k, v []byte) error {
		var rs types.ResourceScenario
		if err := json.Unmarshal(v, &rs); err != nil {
			return err
		}
		if rs.DatasetID == datasetID {
			rss = append(rss, &rs)
		}
		return nil
	})
	return rss, err
}

// ResourceGroupItem operations

func (tx *Tx) CreateGroupItem(item *types.ResourceGroupItem) error {
	existing, err := tx.ListGroupItemsByScenario(item.ScenarioID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.GroupID == item.GroupID && e.RefKey == item.RefKey && e.MemberID() == item.MemberID() {
			return fmt.Errorf("%s %d already in group %d for scenario %d: %w",
				item.RefKey, item.MemberID(), item.GroupID, item.ScenarioID, errdefs.ErrConflict)
		}
	}

	b := tx.btx.Bucket(bucketGroupItems)
	if item.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		item.ID = id
	}
	return putJSON(b, itob(item.ID), item)
}

func (tx *Tx) GetGroupItem(id int64) (*types.ResourceGroupItem, error) {
	var item types.ResourceGroupItem
	data := tx.btx.Bucket(bucketGroupItems).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("group item %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (tx *Tx) DeleteGroupItem(id int64) error {
	b := tx.btx.Bucket(bucketGroupItems)
	if b.Get(itob(id)) == nil {
		return fmt.Errorf("group item %d: %w", id, errdefs.ErrNotFound)
	}
	return b.Delete(itob(id))
}

func (tx *Tx) ListGroupItemsByScenario(scenarioID int64) ([]*types.ResourceGroupItem, error) {
	var items []*types.ResourceGroupItem
	err := tx.btx.Bucket(bucketGroupItems).ForEach(func(k, v []byte) error {
		var item types.ResourceGroupItem
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}
		if item.ScenarioID == scenarioID {
			items = append(items, &item)
		}
		return nil
	})
	return items, err
}

func (tx *Tx) ListGroupItemsByGroup(groupID, scenarioID int64) ([]*types.ResourceGroupItem, error) {
	items, err := tx.ListGroupItemsByScenario(scenarioID)
	if err != nil {
		return nil, err
	}
	var filtered []*types.ResourceGroupItem
	for _, item := range items {
		if item.GroupID == groupID {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Rule operations

func (tx *Tx) CreateRule(rule *types.Rule) error {
	b := tx.btx.Bucket(bucketRules)
	if rule.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		rule.ID = id
	}
	return putJSON(b, itob(rule.ID), rule)
}

func (tx *Tx) GetRule(id int64) (*types.Rule, error) {
	var rule types.Rule
	data := tx.btx.Bucket(bucketRules).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("rule %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (tx *Tx) ListRulesByScenario(scenarioID int64) ([]*types.Rule, error) {
	var rules []*types.Rule
	err := tx.btx.Bucket(bucketRules).ForEach(func(k, v []byte) error {
		var rule types.Rule
		if err := json.Unmarshal(v, &rule); err != nil {
			return err
		}
		if rule.ScenarioID == scenarioID {
			rules = append(rules, &rule)
		}
		return nil
	})
	return rules, err
}

// Note operations

func (tx *Tx) CreateNote(note *types.Note) error {
	b := tx.btx.Bucket(bucketNotes)
	if note.ID == 0 {
		id, err := nextID(b)
		if err != nil {
			return err
		}
		note.ID = id
	}
	return putJSON(b, itob(note.ID), note)
}

func (tx *Tx) GetNote(id int64) (*types.Note, error) {
	var note types.Note
	data := tx.btx.Bucket(bucketNotes).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("note %d: %w", id, errdefs.ErrNotFound)
	}
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (tx *Tx) ListNotesByScenario(scenarioID int64) ([]*types.Note, error) {
	var notes []*types.Note
	err := tx.btx.Bucket(bucketNotes).ForEach(func(k, v []byte) error {
		var note types.Note
		if err := json.Unmarshal(v, &note); err != nil {
			return err
		}
		if note.ScenarioID == scenarioID {
			notes = append(notes, &note)
		}
		return nil
	})
	return notes, err
}
