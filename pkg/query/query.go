package query

import (
	"sort"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/graph"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

// ResourceData is one binding joined with its attribute and dataset,
// detached from storage.
type ResourceData struct {
	ResourceAttr     *types.ResourceAttr
	ResourceScenario *types.ResourceScenario
	Dataset          *types.Dataset
}

// Service composes read-only filter queries over scenarios, attributes
// and datasets. Returned datasets are inflated, and hidden datasets the
// caller cannot view are masked.
type Service struct {
	store storage.Store
	guard *permission.Guard
}

func NewService(store storage.Store, guard *permission.Guard) *Service {
	return &Service{store: store, guard: guard}
}

// present prepares a dataset for return: inflate the payload, or mask
// everything value-bearing when the caller lacks view.
func (s *Service) present(tx *storage.Tx, ds *types.Dataset, userID int64) *types.Dataset {
	if s.guard.TryView(tx, ds, userID) == permission.Masked {
		permission.MaskDataset(ds)
		return ds
	}
	ds.Value = dataset.Inflate(ds.Value)
	if ds.Metadata == nil {
		ds.Metadata = map[string]string{}
	}
	return ds
}

// typeAttrFilter resolves a template type id to the set of attr ids it
// allows. A zero type id means no filtering.
func typeAttrFilter(tx *storage.Tx, typeID int64) (map[int64]bool, error) {
	if typeID == 0 {
		return nil, nil
	}
	tas, err := tx.ListTypeAttrs(typeID)
	if err != nil {
		return nil, err
	}
	allowed := make(map[int64]bool, len(tas))
	for _, ta := range tas {
		allowed[ta.AttrID] = true
	}
	return allowed, nil
}

func idSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// GetResourceData returns every binding of one resource across the given
// scenarios, optionally restricted to the attrs of a template type.
func (s *Service) GetResourceData(refKey types.RefKey, refID int64, scenarioIDs []int64, typeID int64, userID int64) ([]*ResourceData, error) {
	var out []*ResourceData
	err := s.store.View(func(tx *storage.Tx) error {
		if _, err := graph.Resolve(tx, graph.ResourceRef{Key: refKey, ID: refID}); err != nil {
			return err
		}

		allowed, err := typeAttrFilter(tx, typeID)
		if err != nil {
			return err
		}

		ras, err := tx.ListResourceAttrsForResource(refKey, refID)
		if err != nil {
			return err
		}
		for _, ra := range ras {
			if allowed != nil && !allowed[ra.AttrID] {
				continue
			}
			for _, scenarioID := range scenarioIDs {
				scenario, err := tx.GetScenario(scenarioID)
				if err != nil {
					return err
				}
				if err := s.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
					return err
				}

				rs, err := tx.GetResourceScenario(scenarioID, ra.ID)
				if errdefs.IsNotFound(err) {
					continue
				}
				if err != nil {
					return err
				}
				ds, err := tx.GetDataset(rs.DatasetID)
				if err != nil {
					return err
				}
				out = append(out, &ResourceData{
					ResourceAttr:     ra,
					ResourceScenario: rs,
					Dataset:          s.present(tx, ds, userID),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetScenariosData composes filters over networks, nodes, links,
// scenarios, attrs and template types in one pass.
func (s *Service) GetScenariosData(networkIDs, nodeIDs, linkIDs, scenarioIDs, attrIDs, typeIDs []int64, userID int64) ([]*ResourceData, error) {
	var out []*ResourceData
	err := s.store.View(func(tx *storage.Tx) error {
		attrSet := idSet(attrIDs)
		for _, typeID := range typeIDs {
			allowed, err := typeAttrFilter(tx, typeID)
			if err != nil {
				return err
			}
			for id := range allowed {
				if attrSet == nil {
					attrSet = make(map[int64]bool)
				}
				attrSet[id] = true
			}
		}

		var refs []graph.ResourceRef
		for _, id := range networkIDs {
			refs = append(refs, graph.ResourceRef{Key: types.RefKeyNetwork, ID: id})
		}
		for _, id := range nodeIDs {
			refs = append(refs, graph.ResourceRef{Key: types.RefKeyNode, ID: id})
		}
		for _, id := range linkIDs {
			refs = append(refs, graph.ResourceRef{Key: types.RefKeyLink, ID: id})
		}

		for _, scenarioID := range scenarioIDs {
			scenario, err := tx.GetScenario(scenarioID)
			if err != nil {
				return err
			}
			if err := s.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
				return err
			}

			for _, ref := range refs {
				ras, err := tx.ListResourceAttrsForResource(ref.Key, ref.ID)
				if err != nil {
					return err
				}
				for _, ra := range ras {
					if attrSet != nil && !attrSet[ra.AttrID] {
						continue
					}
					rs, err := tx.GetResourceScenario(scenarioID, ra.ID)
					if errdefs.IsNotFound(err) {
						continue
					}
					if err != nil {
						return err
					}
					ds, err := tx.GetDataset(rs.DatasetID)
					if err != nil {
						return err
					}
					out = append(out, &ResourceData{
						ResourceAttr:     ra,
						ResourceScenario: rs,
						Dataset:          s.present(tx, ds, userID),
					})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAttributeDatasets returns the datasets bound to an attribute across
// every resource in one scenario.
func (s *Service) GetAttributeDatasets(attrID, scenarioID int64, userID int64) ([]*types.Dataset, error) {
	var out []*types.Dataset
	err := s.store.View(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := s.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}

		ras, err := tx.ListResourceAttrsByAttr(attrID)
		if err != nil {
			return err
		}
		for _, ra := range ras {
			rs, err := tx.GetResourceScenario(scenarioID, ra.ID)
			if errdefs.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			ds, err := tx.GetDataset(rs.DatasetID)
			if err != nil {
				return err
			}
			out = append(out, s.present(tx, ds, userID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetNodeAttributeData returns bindings for the given nodes and attrs
// across every scenario that binds them.
func (s *Service) GetNodeAttributeData(nodeIDs, attrIDs []int64, userID int64) ([]*ResourceData, error) {
	var out []*ResourceData
	err := s.store.View(func(tx *storage.Tx) error {
		attrSet := idSet(attrIDs)
		for _, nodeID := range nodeIDs {
			node, err := tx.GetNode(nodeID)
			if err != nil {
				return err
			}
			if err := s.guard.CanReadNetwork(tx, node.NetworkID, userID); err != nil {
				return err
			}

			scenarios, err := tx.ListScenariosByNetwork(node.NetworkID)
			if err != nil {
				return err
			}
			sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })

			ras, err := tx.ListResourceAttrsForResource(types.RefKeyNode, nodeID)
			if err != nil {
				return err
			}
			for _, ra := range ras {
				if attrSet != nil && !attrSet[ra.AttrID] {
					continue
				}
				for _, scenario := range scenarios {
					rs, err := tx.GetResourceScenario(scenario.ID, ra.ID)
					if errdefs.IsNotFound(err) {
						continue
					}
					if err != nil {
						return err
					}
					ds, err := tx.GetDataset(rs.DatasetID)
					if err != nil {
						return err
					}
					out = append(out, &ResourceData{
						ResourceAttr:     ra,
						ResourceScenario: rs,
						Dataset:          s.present(tx, ds, userID),
					})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetResourceAttributeData returns the bindings of selected attrs on one
// resource in one scenario.
func (s *Service) GetResourceAttributeData(refKey types.RefKey, refID, scenarioID int64, attrIDs []int64, userID int64) ([]*ResourceData, error) {
	data, err := s.GetResourceData(refKey, refID, []int64{scenarioID}, 0, userID)
	if err != nil {
		return nil, err
	}
	attrSet := idSet(attrIDs)
	if attrSet == nil {
		return data, nil
	}
	var out []*ResourceData
	for _, d := range data {
		if attrSet[d.ResourceAttr.AttrID] {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetResourceAttributeDatasets returns just the datasets of selected
// attrs on one resource in one scenario.
func (s *Service) GetResourceAttributeDatasets(refKey types.RefKey, refID, scenarioID int64, attrIDs []int64, userID int64) ([]*types.Dataset, error) {
	data, err := s.GetResourceData(refKey, refID, []int64{scenarioID}, 0, userID)
	if err != nil {
		return nil, err
	}
	attrSet := idSet(attrIDs)
	var out []*types.Dataset
	for _, d := range data {
		if attrSet != nil && !attrSet[d.ResourceAttr.AttrID] {
			continue
		}
		out = append(out, d.Dataset)
	}
	return out, nil
}

// GetScenarioData returns every dataset bound in a scenario,
// deduplicated by dataset id.
func (s *Service) GetScenarioData(scenarioID int64, userID int64) ([]*types.Dataset, error) {
	var out []*types.Dataset
	err := s.store.View(func(tx *storage.Tx) error {
		scenario, err := tx.GetScenario(scenarioID)
		if err != nil {
			return err
		}
		if err := s.guard.CanReadNetwork(tx, scenario.NetworkID, userID); err != nil {
			return err
		}

		rss, err := tx.ListResourceScenarios(scenarioID)
		if err != nil {
			return err
		}
		seen := make(map[int64]bool, len(rss))
		for _, rs := range rss {
			if seen[rs.DatasetID] {
				continue
			}
			seen[rs.DatasetID] = true
			ds, err := tx.GetDataset(rs.DatasetID)
			if err != nil {
				return err
			}
			out = append(out, s.present(tx, ds, userID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
