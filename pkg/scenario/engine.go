package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/events"
	"github.com/hydranet/hydranet/pkg/graph"
	"github.com/hydranet/hydranet/pkg/log"
	"github.com/hydranet/hydranet/pkg/metrics"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// Spec carries the caller-supplied fields of a scenario, optionally with
// embedded data and group membership.
type Spec struct {
	Name              string
	Description       string
	StartTime         string
	EndTime           string
	TimeStep          string
	ResourceScenarios []*ResourceScenarioInput
	GroupItems        []*GroupItemInput
}

// ResourceScenarioInput binds one resource attribute to a new value. A
// nil Value requests deletion of the binding.
type ResourceScenarioInput struct {
	ResourceAttrID int64
	Value          *dataset.Input
	Source         string
}

// GroupItemInput names one group member to add.
type GroupItemInput struct {
	GroupID  int64
	RefKey   types.RefKey
	MemberID int64
}

// Engine implements scenario lifecycle and per-scenario data mutation.
// Every operation runs in a single storage transaction; any failure rolls
// the whole operation back.
type Engine struct {
	store  storage.Store
	data   *dataset.Store
	guard  *permission.Guard
	broker *events.Broker
	logger zerolog.Logger
}

func NewEngine(store storage.Store, data *dataset.Store, guard *permission.Guard, broker *events.Broker) *Engine {
	return &Engine{
		store:  store,
		data:   data,
		guard:  guard,
		broker: broker,
		logger: log.WithComponent("scenario"),
	}
}

func (e *Engine) publish(t events.EventType, message string, metadata map[string]string) {
	if e.broker == nil {
		return
	}
	e.broker.Publish(events.New(t, message, metadata))
}

func (e *Engine) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.OperationsTotal.WithLabelValues(op, status).Inc()
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// requireUnlocked gates every mutation except unlock.
func requireUnlocked(s *types.Scenario) error {
	if s.Locked == types.Yes {
		return fmt.Errorf("scenario %d is locked: %w", s.ID, errdefs.ErrLocked)
	}
	return nil
}

// AddScenario creates a scenario in the network, bulk-inserting any
// embedded datasets and materializing embedded group items.
func (e *Engine) AddScenario(networkID int64, spec *Spec, userID int64) (scenario *types.Scenario, err error) {
	start := time.Now()
	defer func() { e.observe("add_scenario", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		if err := e.guard.CanWriteNetwork(tx, networkID, userID); err != nil {
			return err
		}

		scenario = &types.Scenario{
			NetworkID:   networkID,
			Name:        spec.Name,
			Description: spec.Description,
			Status:      types.StatusActive,
			StartTime:   spec.StartTime,
			EndTime:     spec.EndTime,
			TimeStep:    spec.TimeStep,
			Locked:      types.No,
			CreatedBy:   userID,
			CreatedAt:   time.Now(),
		}
		if err := tx.CreateScenario(scenario); err != nil {
			return err
		}

		for _, in := range spec.ResourceScenarios {
			if in.Value == nil {
				continue
			}
			if _, err := e.applyResourceScenario(tx, scenario, in, userID); err != nil {
				return err
			}
		}

		for _, item := range spec.GroupItems {
			if err := e.addGroupItem(tx, scenario.ID, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().Int64("scenario_id", scenario.ID).Int64("network_id", networkID).Msg("scenario created")
	e.publish(events.EventScenarioCreated, scenario.Name, map[string]string{
		"scenario_id": fmt.Sprint(scenario.ID),
	})
	return scenario, nil
}

// UpdateScenario overwrites a scenario's descriptive fields. Embedded
// data is upserted when updateData is set; embedded group items are added
// when updateGroups is set, leaving unmentioned items intact.
func (e *Engine) UpdateScenario(scenarioID int64, spec *Spec, updateData, updateGroups bool, userID int64) (scenario *types.Scenario, err error) {
	start := time.Now()
	defer func() { e.observe("update_scenario", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		scenario, err = tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		if err := requireUnlocked(scenario); err != nil {
			return err
		}

		if spec.Name != "" && spec.Name != scenario.Name {
			existing, err := tx.FindScenarioByName(scenario.NetworkID, spec.Name)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != scenario.ID {
				return fmt.Errorf("scenario %q already exists in network %d: %w",
					spec.Name, scenario.NetworkID, errdefs.ErrConflict)
			}
			scenario.Name = spec.Name
		}
		scenario.Description = spec.Description
		scenario.StartTime = spec.StartTime
		scenario.EndTime = spec.EndTime
		scenario.TimeStep = spec.TimeStep
		if err := tx.PutScenario(scenario); err != nil {
			return err
		}

		if updateData {
			for _, in := range spec.ResourceScenarios {
				if in.Value == nil {
					if err := tx.DeleteResourceScenario(scenario.ID, in.ResourceAttrID); err != nil && !errdefs.IsNotFound(err) {
						return err
					}
					continue
				}
				if _, err := e.applyResourceScenario(tx, scenario, in, userID); err != nil {
					return err
				}
			}
		}

		if updateGroups {
			for _, item := range spec.GroupItems {
				if err := e.addGroupItem(tx, scenario.ID, item); err != nil && !errdefs.IsConflict(err) {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(events.EventScenarioUpdated, scenario.Name, map[string]string{
		"scenario_id": fmt.Sprint(scenario.ID),
	})
	return scenario, nil
}

// applyResourceScenario is the dataset mutation policy. Bindings with an
// unchanged hash are left alone; a dataset referenced only by this
// binding is rewritten in place; anything else allocates or reuses a row
// and rebinds.
func (e *Engine) applyResourceScenario(tx *storage.Tx, scenario *types.Scenario, in *ResourceScenarioInput, userID int64) (*types.ResourceScenario, error) {
	ra, err := tx.GetResourceAttr(in.ResourceAttrID)
	if err != nil {
		return nil, err
	}
	if err := scopeToNetwork(tx, scenario, ra); err != nil {
		return nil, err
	}

	rs, err := tx.GetResourceScenario(scenario.ID, in.ResourceAttrID)
	if errdefs.IsNotFound(err) {
		ds, err := e.data.AddOrReuse(tx, in.Value, userID)
		if err != nil {
			return nil, err
		}
		rs = &types.ResourceScenario{
			ScenarioID:     scenario.ID,
			ResourceAttrID: in.ResourceAttrID,
			DatasetID:      ds.ID,
			Source:         in.Source,
			CreatedAt:      time.Now(),
		}
		return rs, tx.PutResourceScenario(rs)
	}
	if err != nil {
		return nil, err
	}

	payload, err := dataset.Encode(in.Value.Type, in.Value.Value)
	if err != nil {
		return nil, err
	}
	newHash := dataset.Hash(in.Value.Name, in.Value.Units, in.Value.Dimension, in.Value.Type, payload, in.Value.Metadata)

	current, err := tx.GetDataset(rs.DatasetID)
	if err != nil {
		return nil, err
	}
	if current.Hash == newHash {
		return rs, nil
	}

	referrers, err := tx.ListResourceScenariosByDataset(rs.DatasetID)
	if err != nil {
		return nil, err
	}
	if soleReferrer(referrers, rs) {
		if _, err := e.data.Update(tx, rs.DatasetID, in.Value, userID); err == nil {
			e.publish(events.EventDatasetUpdated, "", map[string]string{
				"scenario_id": fmt.Sprint(rs.ScenarioID),
				"dataset_id":  fmt.Sprint(rs.DatasetID),
			})
			return rs, nil
		} else if !errdefs.IsConflict(err) {
			return nil, err
		}
		// Hash collision with another row; fall through to reuse it.
	}

	ds, err := e.data.AddOrReuse(tx, in.Value, userID)
	if err != nil {
		return nil, err
	}
	rs.DatasetID = ds.ID
	if in.Source != "" {
		rs.Source = in.Source
	}
	if err := tx.PutResourceScenario(rs); err != nil {
		return nil, err
	}
	e.publish(events.EventDataRebound, "", map[string]string{
		"scenario_id":      fmt.Sprint(rs.ScenarioID),
		"resource_attr_id": fmt.Sprint(rs.ResourceAttrID),
		"dataset_id":       fmt.Sprint(ds.ID),
	})
	return rs, nil
}

// scopeToNetwork rejects a binding whose resource attribute resolves
// outside the scenario's network. Project-scoped attributes pass only
// for the network's parent project.
func scopeToNetwork(tx *storage.Tx, scenario *types.Scenario, ra *types.ResourceAttr) error {
	network, err := graph.NetworkOf(tx, ra)
	if err != nil {
		return err
	}
	if network == nil {
		parent, err := tx.GetNetwork(scenario.NetworkID)
		if err != nil {
			return err
		}
		if ra.ProjectID != parent.ProjectID {
			return fmt.Errorf("resource attr %d is scoped to project %d: %w",
				ra.ID, ra.ProjectID, errdefs.ErrCrossNetwork)
		}
		return nil
	}
	if network.ID != scenario.NetworkID {
		return fmt.Errorf("resource attr %d belongs to network %d, not %d: %w",
			ra.ID, network.ID, scenario.NetworkID, errdefs.ErrCrossNetwork)
	}
	return nil
}

func soleReferrer(referrers []*types.ResourceScenario, rs *types.ResourceScenario) bool {
	for _, r := range referrers {
		if r.ScenarioID != rs.ScenarioID || r.ResourceAttrID != rs.ResourceAttrID {
			return false
		}
	}
	return true
}

// SetScenarioStatus soft-deletes or reactivates a scenario.
func (e *Engine) SetScenarioStatus(scenarioID int64, status types.Status, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("set_scenario_status", start, err) }()

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
		scenario.Status = status
		return tx.PutScenario(scenario)
	})
}

// PurgeScenario hard-deletes a scenario and everything bound to it.
// Datasets stay in the content store.
func (e *Engine) PurgeScenario(scenarioID int64, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("purge_scenario", start, err) }()

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
		return tx.DeleteScenario(scenarioID)
	})
	if err != nil {
		return err
	}

	e.publish(events.EventScenarioPurged, "", map[string]string{
		"scenario_id": fmt.Sprint(scenarioID),
	})
	return nil
}

// CloneScenario copies a scenario within its network: every binding by
// dataset id, every group item, never the locked state. The clone name
// gains a numeric suffix once the network already holds clones.
func (e *Engine) CloneScenario(scenarioID int64, userID int64, appName string) (clone *types.Scenario, err error) {
	start := time.Now()
	defer func() { e.observe("clone_scenario", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		source, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanReadNetwork(tx, source.NetworkID, userID); err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, source.NetworkID, userID); err != nil {
			return err
		}

		name, err := cloneName(tx, source)
		if err != nil {
			return err
		}

		clone = &types.Scenario{
			NetworkID:   source.NetworkID,
			Name:        name,
			Description: source.Description,
			Status:      types.StatusActive,
			StartTime:   source.StartTime,
			EndTime:     source.EndTime,
			TimeStep:    source.TimeStep,
			Locked:      types.No,
			CreatedBy:   userID,
			CreatedAt:   time.Now(),
		}
		if err := tx.CreateScenario(clone); err != nil {
			return err
		}

		rss, err := tx.ListResourceScenarios(source.ID)
		if err != nil {
			return err
		}
		for _, rs := range rss {
			src := appName
			if src == "" {
				src = rs.Source
			}
			copied := &types.ResourceScenario{
				ScenarioID:     clone.ID,
				ResourceAttrID: rs.ResourceAttrID,
				DatasetID:      rs.DatasetID,
				Source:         src,
				CreatedAt:      time.Now(),
			}
			if err := tx.PutResourceScenario(copied); err != nil {
				return err
			}
		}

		items, err := tx.ListGroupItemsByScenario(source.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			copied := &types.ResourceGroupItem{
				ScenarioID: clone.ID,
				GroupID:    item.GroupID,
				RefKey:     item.RefKey,
				NodeID:     item.NodeID,
				LinkID:     item.LinkID,
				SubgroupID: item.SubgroupID,
				CreatedAt:  time.Now(),
			}
			if err := tx.CreateGroupItem(copied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ScenariosCloned.Inc()
	e.logger.Info().Int64("scenario_id", scenarioID).Int64("clone_id", clone.ID).Msg("scenario cloned")
	e.publish(events.EventScenarioCloned, clone.Name, map[string]string{
		"scenario_id": fmt.Sprint(scenarioID),
		"clone_id":    fmt.Sprint(clone.ID),
	})
	return clone, nil
}

// cloneName derives the clone's name. The numeric suffix counts the
// network's scenarios whose name already contains "clone", so repeated
// cloning yields "x (clone)", "x (clone) 1", "x (clone) 2", ...
func cloneName(tx *storage.Tx, source *types.Scenario) (string, error) {
	siblings, err := tx.ListScenariosByNetwork(source.NetworkID)
	if err != nil {
		return "", err
	}
	count := 0
	for _, s := range siblings {
		if strings.Contains(s.Name, "clone") {
			count++
		}
	}
	name := source.Name + " (clone)"
	if count > 0 {
		name = fmt.Sprintf("%s %d", name, count)
	}
	return name, nil
}

// LockScenario blocks all mutations until unlock.
func (e *Engine) LockScenario(scenarioID int64, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("lock_scenario", start, err) }()

	err = e.setLocked(scenarioID, types.Yes, userID)
	if err != nil {
		return err
	}
	e.publish(events.EventScenarioLocked, "", map[string]string{"scenario_id": fmt.Sprint(scenarioID)})
	return nil
}

// UnlockScenario is the only mutation permitted on a locked scenario.
func (e *Engine) UnlockScenario(scenarioID int64, userID int64) (err error) {
	start := time.Now()
	defer func() { e.observe("unlock_scenario", start, err) }()

	err = e.setLocked(scenarioID, types.No, userID)
	if err != nil {
		return err
	}
	e.publish(events.EventScenarioUnlocked, "", map[string]string{"scenario_id": fmt.Sprint(scenarioID)})
	return nil
}

func (e *Engine) setLocked(scenarioID int64, locked types.YesNo, userID int64) error {
	return e.store.Update(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := e.guard.CanWriteNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}
		scenario.Locked = locked
		return tx.PutScenario(scenario)
	})
}

// GetScenario returns a scenario the user can view.
func (e *Engine) GetScenario(scenarioID int64, userID int64) (*types.Scenario, error) {
	var scenario *types.Scenario
	err := e.store.View(func(tx *storage.Tx) error {
		var err error
		scenario, err = tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		return e.guard.CanReadNetwork(tx, scenario.NetworkID, userID)
	})
	if err != nil {
		return nil, err
	}
	return scenario, nil
}

// AddResourceAttribute binds an attribute to a resource. Project-scoped
// resources only need an authenticated caller; anything below a network
// needs write access to that network.
func (e *Engine) AddResourceAttribute(ref graph.ResourceRef, attrID int64, isVar types.YesNo, userID int64) (ra *types.ResourceAttr, err error) {
	start := time.Now()
	defer func() { e.observe("add_resource_attribute", start, err) }()

	err = e.store.Update(func(tx *storage.Tx) error {
		var err error
		ra, err = graph.AddAttribute(tx, ref, attrID, isVar)
		if err != nil {
			return err
		}
		network, err := graph.NetworkOf(tx, ra)
		if err != nil {
			return err
		}
		if network == nil {
			return e.guard.CanWriteProject(tx, ra.ProjectID, userID)
		}
		return e.guard.CanWriteNetwork(tx, network.ID, userID)
	})
	if err != nil {
		return nil, err
	}
	return ra, nil
}
