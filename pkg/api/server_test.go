package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/query"
	"github.com/hydranet/hydranet/pkg/scenario"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

const (
	owner    int64 = 2
	stranger int64 = 4
)

type testServer struct {
	handler http.Handler
	store   *storage.BoltStore

	networkID int64
	nodeID    int64
	raID      int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	bolt, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	guard := permission.NewGuard()
	data := dataset.NewStore(5000, guard)
	engine := scenario.NewEngine(bolt, data, guard, nil)
	queries := query.NewService(bolt, guard)
	server := NewServer("127.0.0.1:0", engine, queries, data, bolt)

	ts := &testServer{handler: server.srv.Handler, store: bolt}
	err = bolt.Update(func(tx *storage.Tx) error {
		project := &types.Project{Name: "basin", CreatedBy: owner}
		require.NoError(t, tx.CreateProject(project))
		network := &types.Network{ProjectID: project.ID, Name: "river", CreatedBy: owner}
		require.NoError(t, tx.CreateNetwork(network))
		ts.networkID = network.ID

		node := &types.Node{NetworkID: network.ID, Name: "dam"}
		require.NoError(t, tx.CreateNode(node))
		ts.nodeID = node.ID
		attr := &types.Attr{Name: "flow", Dimension: "Volumetric flow rate"}
		require.NoError(t, tx.CreateAttr(attr))
		ra := &types.ResourceAttr{AttrID: attr.ID, RefKey: types.RefKeyNode, NodeID: node.ID}
		require.NoError(t, tx.CreateResourceAttr(ra))
		ts.raID = ra.ID
		return nil
	})
	require.NoError(t, err)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, asUser int64, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if asUser > 0 {
		req.Header.Set("X-User-Id", strconv.FormatInt(asUser, 10))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createScenario(t *testing.T, name string) *types.Scenario {
	t.Helper()
	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/networks/%d/scenarios", ts.networkID), owner, map[string]interface{}{
		"name": name,
		"resourcescenarios": []map[string]interface{}{{
			"resource_attr_id": ts.raID,
			"value": map[string]interface{}{
				"type":  "scalar",
				"name":  "flow",
				"value": "1.5",
			},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var scn types.Scenario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scn))
	return &scn
}

func TestIdentityRequired(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/v1/scenarios/1", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScenarioLifecycle(t *testing.T) {
	ts := newTestServer(t)
	scn := ts.createScenario(t, "base")
	assert.Equal(t, "base", scn.Name)

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/v1/scenarios/%d", scn.ID), owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/v1/scenarios/%d", scn.ID), owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/scenarios/%d", scn.ID), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	scn := ts.createScenario(t, "base")

	// Unknown scenario: 404.
	rec := ts.do(t, http.MethodGet, "/v1/scenarios/999", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// No access: 403.
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/scenarios/%d", scn.ID), stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Duplicate name: 409.
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/networks/%d/scenarios", ts.networkID), owner, map[string]interface{}{
		"name": "base",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Garbage id in the path: 400.
	rec = ts.do(t, http.MethodGet, "/v1/scenarios/bogus", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLockedScenarioRejectsWrites(t *testing.T) {
	ts := newTestServer(t)
	scn := ts.createScenario(t, "base")

	rec := ts.do(t, http.MethodPut, fmt.Sprintf("/v1/scenarios/%d/lock", scn.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/v1/scenarios/%d/resourcedata", scn.ID), owner, []map[string]interface{}{{
		"resource_attr_id": ts.raID,
		"value": map[string]interface{}{
			"type":  "scalar",
			"name":  "flow",
			"value": "2.5",
		},
	}})
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/v1/scenarios/%d/unlock", scn.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/v1/scenarios/%d/resourcedata", scn.ID), owner, []map[string]interface{}{{
		"resource_attr_id": ts.raID,
		"value": map[string]interface{}{
			"type":  "scalar",
			"name":  "flow",
			"value": "2.5",
		},
	}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCloneOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	scn := ts.createScenario(t, "exp")

	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/scenarios/%d/clone", scn.ID), owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var clone types.Scenario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clone))
	assert.Equal(t, "exp (clone)", clone.Name)
	assert.NotEqual(t, scn.ID, clone.ID)
}

func TestAddResourceAttribute(t *testing.T) {
	ts := newTestServer(t)

	var attrID int64
	err := ts.store.Update(func(tx *storage.Tx) error {
		attr := &types.Attr{Name: "stage", Dimension: "Length"}
		if err := tx.CreateAttr(attr); err != nil {
			return err
		}
		attrID = attr.ID
		return nil
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/resources/NODE/%d/attributes", ts.nodeID), owner, map[string]interface{}{
		"attr_id": attrID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ra types.ResourceAttr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ra))
	assert.Equal(t, ts.nodeID, ra.NodeID)

	// The caller needs write access to the owning network.
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/resources/NODE/%d/attributes", ts.nodeID), stranger, map[string]interface{}{
		"attr_id": attrID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBulkDatasetsAndCollections(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/datasets/bulk", owner, []map[string]interface{}{
		{"type": "scalar", "name": "a", "value": "1.0"},
		{"type": "scalar", "name": "b", "value": "2.0"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var datasets []*types.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &datasets))
	require.Len(t, datasets, 2)

	rec = ts.do(t, http.MethodPost, "/v1/collections", owner, map[string]interface{}{
		"name":        "observed flows",
		"dataset_ids": []int64{datasets[0].ID, datasets[1].ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var coll types.DatasetCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coll))

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/v1/collections/%d/datasets/%d", coll.ID, datasets[0].ID), owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/collections/%d", coll.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []*types.DatasetCollectionItem
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, datasets[1].ID, resp.Items[0].DatasetID)

	// Unknown dataset in a collection request: 404.
	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/v1/collections/%d/datasets/999", coll.ID), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	s1 := ts.createScenario(t, "s1")
	s2 := ts.createScenario(t, "s2")

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/v1/scenarios/%d/compare/%d", s1.ID, s2.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var diff scenario.Diff
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diff))
	// Both hold the same value, so nothing differs.
	assert.Empty(t, diff.ResourceScenarios)
}
