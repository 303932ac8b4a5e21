package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/graph"
	"github.com/hydranet/hydranet/pkg/scenario"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

func (s *Server) addScenario(w http.ResponseWriter, r *http.Request) {
	networkID, err := urlID(r, "networkID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var spec scenarioSpec
	if err := decode(r, &spec); err != nil {
		s.writeEngineError(w, err)
		return
	}

	created, err := s.engine.AddScenario(networkID, spec.toSpec(appName(r)), userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	scn, err := s.engine.GetScenario(scenarioID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scn)
}

func (s *Server) updateScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var spec scenarioSpec
	if err := decode(r, &spec); err != nil {
		s.writeEngineError(w, err)
		return
	}
	updateData := r.URL.Query().Get("update_data") != "N"
	updateGroups := r.URL.Query().Get("update_groups") != "N"

	updated, err := s.engine.UpdateScenario(scenarioID, spec.toSpec(appName(r)), updateData, updateGroups, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) purgeScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.PurgeScenario(scenarioID, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) deactivateScenario(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, types.StatusDeleted)
}

func (s *Server) activateScenario(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, types.StatusActive)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, status types.Status) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.SetScenarioStatus(scenarioID, status, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) cloneScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	clone, err := s.engine.CloneScenario(scenarioID, userID(r), appName(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clone)
}

func (s *Server) lockScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.LockScenario(scenarioID, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) unlockScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.UnlockScenario(scenarioID, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) compareScenarios(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	otherID, err := urlID(r, "otherID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	diff, err := s.engine.CompareScenarios(scenarioID, otherID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) updateResourceData(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var items []*resourceScenarioInput
	if err := decode(r, &items); err != nil {
		s.writeEngineError(w, err)
		return
	}
	updated, err := s.engine.UpdateResourceData(scenarioID, toRSInputs(items, appName(r)), userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) bulkUpdateResourceData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioIDs []int64                  `json:"scenario_ids"`
		Items       []*resourceScenarioInput `json:"resourcescenarios"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.BulkUpdateResourceData(req.ScenarioIDs, toRSInputs(req.Items, appName(r)), userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) deleteResourceData(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	resourceAttrID, err := urlID(r, "resourceAttrID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.DeleteResourceData(scenarioID, resourceAttrID, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) addDataToAttribute(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	resourceAttrID, err := urlID(r, "resourceAttrID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var value datasetInput
	if err := decode(r, &value); err != nil {
		s.writeEngineError(w, err)
		return
	}

	in := &scenario.ResourceScenarioInput{
		ResourceAttrID: resourceAttrID,
		Value:          value.toInput(),
		Source:         appName(r),
	}
	rs, err := s.engine.AddDataToAttribute(scenarioID, resourceAttrID, in, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) setResourceScenarioDataset(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	resourceAttrID, err := urlID(r, "resourceAttrID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	datasetID, err := urlID(r, "datasetID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	rs, err := s.engine.SetResourceScenarioDataset(scenarioID, resourceAttrID, datasetID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) getResourceScenarios(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	raIDs, err := queryIDs(r, "resource_attr_id")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	rss, err := s.engine.GetResourceScenarios(scenarioID, raIDs, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rss)
}

func (s *Server) getResourceScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	resourceAttrID, err := urlID(r, "resourceAttrID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	rs, err := s.engine.GetResourceScenario(scenarioID, resourceAttrID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) copyDataFromScenario(w http.ResponseWriter, r *http.Request) {
	targetID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	sourceID, err := urlID(r, "sourceID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var raIDs []int64
	if err := decode(r, &raIDs); err != nil {
		s.writeEngineError(w, err)
		return
	}
	copied, err := s.engine.CopyDataFromScenario(raIDs, sourceID, targetID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, copied)
}

func (s *Server) getResourceGroupItems(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	groupID, _ := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	items, err := s.engine.GetResourceGroupItems(scenarioID, groupID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) addResourceGroupItems(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var items []*groupItemInput
	if err := decode(r, &items); err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.AddResourceGroupItems(scenarioID, toGroupInputs(items), userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) deleteResourceGroupItems(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var itemIDs []int64
	if err := decode(r, &itemIDs); err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.DeleteResourceGroupItems(scenarioID, itemIDs, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) emptyGroup(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	groupID, err := urlID(r, "groupID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.engine.EmptyGroup(groupID, scenarioID, userID(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) createAttributeMapping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResourceAttrAID int64 `json:"resource_attr_a_id"`
		ResourceAttrBID int64 `json:"resource_attr_b_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	ram, err := s.engine.CreateAttributeMapping(req.ResourceAttrAID, req.ResourceAttrBID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ram)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	user := &types.User{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		CreatedAt:   time.Now(),
	}
	err := s.store.Update(func(tx *storage.Tx) error {
		return tx.CreateUser(user)
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := urlID(r, "userID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var user *types.User
	err = s.store.View(func(tx *storage.Tx) error {
		var err error
		user, err = tx.GetUser(targetID)
		return err
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateValueFromMapping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceResourceAttrID int64 `json:"source_resource_attr_id"`
		TargetResourceAttrID int64 `json:"target_resource_attr_id"`
		SourceScenarioID     int64 `json:"source_scenario_id"`
		TargetScenarioID     int64 `json:"target_scenario_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	rs, err := s.engine.UpdateValueFromMapping(
		req.SourceResourceAttrID, req.TargetResourceAttrID,
		req.SourceScenarioID, req.TargetScenarioID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) getDatasetScenarios(w http.ResponseWriter, r *http.Request) {
	datasetID, err := urlID(r, "datasetID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	scenarios, err := s.engine.GetDatasetScenarios(datasetID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (s *Server) setDatasetOwner(w http.ResponseWriter, r *http.Request) {
	datasetID, err := urlID(r, "datasetID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	targetID, err := urlID(r, "userID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var req struct {
		View  types.YesNo `json:"view"`
		Edit  types.YesNo `json:"edit"`
		Share types.YesNo `json:"share"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.store.Update(func(tx *storage.Tx) error {
		return s.data.SetOwner(tx, datasetID, userID(r), targetID, req.View, req.Edit, req.Share)
	}); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) unsetDatasetOwner(w http.ResponseWriter, r *http.Request) {
	datasetID, err := urlID(r, "datasetID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	targetID, err := urlID(r, "userID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.store.Update(func(tx *storage.Tx) error {
		return s.data.UnsetOwner(tx, datasetID, userID(r), targetID)
	}); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) getResourceData(w http.ResponseWriter, r *http.Request) {
	refKey := types.RefKey(chi.URLParam(r, "refKey"))
	refID, err := urlID(r, "refID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	scenarioIDs, err := queryIDs(r, "scenario_id")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	typeID, _ := strconv.ParseInt(r.URL.Query().Get("type_id"), 10, 64)

	data, err := s.queries.GetResourceData(refKey, refID, scenarioIDs, typeID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) getAttributeDatasets(w http.ResponseWriter, r *http.Request) {
	attrID, err := urlID(r, "attrID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	scenarioID, _ := strconv.ParseInt(r.URL.Query().Get("scenario_id"), 10, 64)

	datasets, err := s.queries.GetAttributeDatasets(attrID, scenarioID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (s *Server) getScenariosData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NetworkIDs  []int64 `json:"network_ids"`
		NodeIDs     []int64 `json:"node_ids"`
		LinkIDs     []int64 `json:"link_ids"`
		ScenarioIDs []int64 `json:"scenario_ids"`
		AttrIDs     []int64 `json:"attr_ids"`
		TypeIDs     []int64 `json:"type_ids"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	data, err := s.queries.GetScenariosData(req.NetworkIDs, req.NodeIDs, req.LinkIDs,
		req.ScenarioIDs, req.AttrIDs, req.TypeIDs, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) getNodeAttributeData(w http.ResponseWriter, r *http.Request) {
	nodeIDs, err := queryIDs(r, "node_id")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	attrIDs, err := queryIDs(r, "attr_id")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	data, err := s.queries.GetNodeAttributeData(nodeIDs, attrIDs, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) getScenarioData(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := urlID(r, "scenarioID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	datasets, err := s.queries.GetScenarioData(scenarioID, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (s *Server) getResourceAttributeData(w http.ResponseWriter, r *http.Request) {
	refKey := types.RefKey(chi.URLParam(r, "refKey"))
	refID, err := urlID(r, "refID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	scenarioID, _ := strconv.ParseInt(r.URL.Query().Get("scenario_id"), 10, 64)
	attrIDs, err := queryIDs(r, "attr_id")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	data, err := s.queries.GetResourceAttributeData(refKey, refID, scenarioID, attrIDs, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) getResourceAttributeDatasets(w http.ResponseWriter, r *http.Request) {
	refKey := types.RefKey(chi.URLParam(r, "refKey"))
	refID, err := urlID(r, "refID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	scenarioID, _ := strconv.ParseInt(r.URL.Query().Get("scenario_id"), 10, 64)
	attrIDs, err := queryIDs(r, "attr_id")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	datasets, err := s.queries.GetResourceAttributeDatasets(refKey, refID, scenarioID, attrIDs, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (s *Server) addResourceAttribute(w http.ResponseWriter, r *http.Request) {
	refKey := types.RefKey(chi.URLParam(r, "refKey"))
	refID, err := urlID(r, "refID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	var req struct {
		AttrID int64       `json:"attr_id"`
		IsVar  types.YesNo `json:"is_var"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}
	ra, err := s.engine.AddResourceAttribute(graph.ResourceRef{Key: refKey, ID: refID}, req.AttrID, req.IsVar, userID(r))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ra)
}

func (s *Server) bulkInsertDatasets(w http.ResponseWriter, r *http.Request) {
	var items []*datasetInput
	if err := decode(r, &items); err != nil {
		s.writeEngineError(w, err)
		return
	}
	inputs := make([]*dataset.Input, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, item.toInput())
	}

	var out []*types.Dataset
	err := s.store.Update(func(tx *storage.Tx) error {
		var err error
		out, err = s.data.BulkInsert(tx, inputs, userID(r))
		return err
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string  `json:"name"`
		DatasetIDs []int64 `json:"dataset_ids"`
	}
	if err := decode(r, &req); err != nil {
		s.writeEngineError(w, err)
		return
	}

	coll := &types.DatasetCollection{Name: req.Name, CreatedAt: time.Now()}
	err := s.store.Update(func(tx *storage.Tx) error {
		if err := tx.CreateCollection(coll); err != nil {
			return err
		}
		for _, datasetID := range req.DatasetIDs {
			if _, err := tx.GetDataset(datasetID); err != nil {
				return err
			}
			item := &types.DatasetCollectionItem{
				CollectionID: coll.ID,
				DatasetID:    datasetID,
				CreatedAt:    time.Now(),
			}
			if err := tx.PutCollectionItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, coll)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	collectionID, err := urlID(r, "collectionID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	var resp struct {
		Collection *types.DatasetCollection
		Items      []*types.DatasetCollectionItem
	}
	err = s.store.View(func(tx *storage.Tx) error {
		var err error
		if resp.Collection, err = tx.GetCollection(collectionID); err != nil {
			return err
		}
		resp.Items, err = tx.ListCollectionItems(collectionID)
		return err
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addCollectionItem(w http.ResponseWriter, r *http.Request) {
	collectionID, err := urlID(r, "collectionID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	datasetID, err := urlID(r, "datasetID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	err = s.store.Update(func(tx *storage.Tx) error {
		if _, err := tx.GetCollection(collectionID); err != nil {
			return err
		}
		if _, err := tx.GetDataset(datasetID); err != nil {
			return err
		}
		return tx.PutCollectionItem(&types.DatasetCollectionItem{
			CollectionID: collectionID,
			DatasetID:    datasetID,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) removeCollectionItem(w http.ResponseWriter, r *http.Request) {
	collectionID, err := urlID(r, "collectionID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	datasetID, err := urlID(r, "datasetID")
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	err = s.store.Update(func(tx *storage.Tx) error {
		return tx.DeleteCollectionItem(collectionID, datasetID)
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeOK(w)
}
