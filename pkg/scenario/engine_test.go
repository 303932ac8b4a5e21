package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

const (
	owner    int64 = 2
	reader   int64 = 3
	stranger int64 = 4
)

// env is a seeded engine over a temp-dir store: one project with two
// networks, nodes, a link, a group and attribute bindings to test with.
type env struct {
	store  *storage.BoltStore
	engine *Engine
	guard  *permission.Guard

	networkID  int64
	network2ID int64
	nodeID     int64
	node2ID    int64
	groupID    int64

	ra1 int64 // node 1, attr "flow"
	ra2 int64 // node 1, attr "stage"
	ra3 int64 // node 2, attr "flow"
	ra4 int64 // network 2 node, attr "flow"
}

func newEnv(t *testing.T) *env {
	t.Helper()
	bolt, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	guard := permission.NewGuard()
	e := &env{
		store:  bolt,
		guard:  guard,
		engine: NewEngine(bolt, dataset.NewStore(5000, guard), guard, nil),
	}

	err = bolt.Update(func(tx *storage.Tx) error {
		project := &types.Project{Name: "basin", CreatedBy: owner}
		require.NoError(t, tx.CreateProject(project))

		network := &types.Network{ProjectID: project.ID, Name: "river", CreatedBy: owner}
		require.NoError(t, tx.CreateNetwork(network))
		e.networkID = network.ID

		network2 := &types.Network{ProjectID: project.ID, Name: "canal", CreatedBy: owner}
		require.NoError(t, tx.CreateNetwork(network2))
		e.network2ID = network2.ID

		require.NoError(t, tx.PutOwner(types.OwnerKindNetwork, &types.Owner{
			EntityID: network.ID, UserID: reader, View: types.Yes,
		}))

		node1 := &types.Node{NetworkID: network.ID, Name: "dam"}
		require.NoError(t, tx.CreateNode(node1))
		e.nodeID = node1.ID
		node2 := &types.Node{NetworkID: network.ID, Name: "outlet"}
		require.NoError(t, tx.CreateNode(node2))
		e.node2ID = node2.ID
		require.NoError(t, tx.CreateLink(&types.Link{
			NetworkID: network.ID, Name: "spill", Node1ID: node1.ID, Node2ID: node2.ID,
		}))

		group := &types.ResourceGroup{NetworkID: network.ID, Name: "upstream"}
		require.NoError(t, tx.CreateResourceGroup(group))
		e.groupID = group.ID

		node3 := &types.Node{NetworkID: network2.ID, Name: "gate"}
		require.NoError(t, tx.CreateNode(node3))

		flow := &types.Attr{Name: "flow", Dimension: "Volumetric flow rate"}
		require.NoError(t, tx.CreateAttr(flow))
		stage := &types.Attr{Name: "stage", Dimension: "Length"}
		require.NoError(t, tx.CreateAttr(stage))

		ras := []*types.ResourceAttr{
			{AttrID: flow.ID, RefKey: types.RefKeyNode, NodeID: node1.ID},
			{AttrID: stage.ID, RefKey: types.RefKeyNode, NodeID: node1.ID},
			{AttrID: flow.ID, RefKey: types.RefKeyNode, NodeID: node2.ID},
			{AttrID: flow.ID, RefKey: types.RefKeyNode, NodeID: node3.ID},
		}
		for _, ra := range ras {
			require.NoError(t, tx.CreateResourceAttr(ra))
		}
		e.ra1, e.ra2, e.ra3, e.ra4 = ras[0].ID, ras[1].ID, ras[2].ID, ras[3].ID
		return nil
	})
	require.NoError(t, err)
	return e
}

func scalarValue(v string) *dataset.Input {
	return &dataset.Input{
		Type:      types.DataTypeScalar,
		Name:      "value",
		Units:     "m^3 s^-1",
		Dimension: "Volumetric flow rate",
		Value:     v,
	}
}

func (e *env) addScenario(t *testing.T, name string, items ...*ResourceScenarioInput) *types.Scenario {
	t.Helper()
	scn, err := e.engine.AddScenario(e.networkID, &Spec{Name: name, ResourceScenarios: items}, owner)
	require.NoError(t, err)
	return scn
}

func (e *env) getRS(t *testing.T, scenarioID, raID int64) *types.ResourceScenario {
	t.Helper()
	rs, err := e.engine.GetResourceScenario(scenarioID, raID, owner)
	require.NoError(t, err)
	return rs
}

func TestAddScenarioDedup(t *testing.T) {
	e := newEnv(t)

	a := e.addScenario(t, "a", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("3.14")})
	b := e.addScenario(t, "b", &ResourceScenarioInput{ResourceAttrID: e.ra2, Value: scalarValue("3.14")})

	rsA := e.getRS(t, a.ID, e.ra1)
	rsB := e.getRS(t, b.ID, e.ra2)
	assert.Equal(t, rsA.DatasetID, rsB.DatasetID)
}

func TestAddScenarioDuplicateName(t *testing.T) {
	e := newEnv(t)
	e.addScenario(t, "base")

	_, err := e.engine.AddScenario(e.networkID, &Spec{Name: "base"}, owner)
	assert.True(t, errdefs.IsConflict(err))
}

func TestLockBlocksMutations(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})

	require.NoError(t, e.engine.LockScenario(scn.ID, owner))

	items := []*ResourceScenarioInput{{ResourceAttrID: e.ra1, Value: scalarValue("2.0")}}
	_, err := e.engine.UpdateResourceData(scn.ID, items, owner)
	assert.True(t, errdefs.IsLocked(err))

	err = e.engine.SetScenarioStatus(scn.ID, types.StatusDeleted, owner)
	assert.True(t, errdefs.IsLocked(err))

	err = e.engine.PurgeScenario(scn.ID, owner)
	assert.True(t, errdefs.IsLocked(err))

	require.NoError(t, e.engine.UnlockScenario(scn.ID, owner))
	_, err = e.engine.UpdateResourceData(scn.ID, items, owner)
	assert.NoError(t, err)
}

func TestCloneNaming(t *testing.T) {
	e := newEnv(t)
	exp := e.addScenario(t, "exp")
	e.addScenario(t, "exp (clone)")

	clone1, err := e.engine.CloneScenario(exp.ID, owner, "")
	require.NoError(t, err)
	assert.Equal(t, "exp (clone) 1", clone1.Name)

	clone2, err := e.engine.CloneScenario(exp.ID, owner, "")
	require.NoError(t, err)
	assert.Equal(t, "exp (clone) 2", clone2.Name)
}

func TestCloneCopiesByReference(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base",
		&ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")},
		&ResourceScenarioInput{ResourceAttrID: e.ra2, Value: scalarValue("2.0")},
	)
	require.NoError(t, e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
	}, owner))
	require.NoError(t, e.engine.LockScenario(scn.ID, owner))

	clone, err := e.engine.CloneScenario(scn.ID, owner, "modelapp")
	require.NoError(t, err)

	// Locked state does not propagate.
	assert.Equal(t, types.No, clone.Locked)

	assert.Equal(t, e.getRS(t, scn.ID, e.ra1).DatasetID, e.getRS(t, clone.ID, e.ra1).DatasetID)
	assert.Equal(t, "modelapp", e.getRS(t, clone.ID, e.ra1).Source)

	items, err := e.engine.GetResourceGroupItems(clone.ID, 0, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, e.nodeID, items[0].NodeID)
}

func TestCloneThenCompareEmpty(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base",
		&ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")},
	)
	require.NoError(t, e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
	}, owner))

	clone, err := e.engine.CloneScenario(scn.ID, owner, "")
	require.NoError(t, err)

	diff, err := e.engine.CompareScenarios(scn.ID, clone.ID, owner)
	require.NoError(t, err)
	assert.Empty(t, diff.ResourceScenarios)
	assert.Empty(t, diff.Groups.Scenario1Items)
	assert.Empty(t, diff.Groups.Scenario2Items)
}

func TestCompareDifferingDatasets(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	s2 := e.addScenario(t, "s2", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("2.0")})

	diff, err := e.engine.CompareScenarios(s1.ID, s2.ID, owner)
	require.NoError(t, err)
	require.Len(t, diff.ResourceScenarios, 1)

	entry := diff.ResourceScenarios[0]
	assert.Equal(t, e.ra1, entry.ResourceAttrID)
	require.NotNil(t, entry.Scenario1Dataset)
	require.NotNil(t, entry.Scenario2Dataset)
	assert.Equal(t, e.getRS(t, s1.ID, e.ra1).DatasetID, entry.Scenario1Dataset.ID)
	assert.Equal(t, e.getRS(t, s2.ID, e.ra1).DatasetID, entry.Scenario2Dataset.ID)
}

func TestCompareOneSidedBinding(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1")
	s2 := e.addScenario(t, "s2", &ResourceScenarioInput{ResourceAttrID: e.ra2, Value: scalarValue("5.0")})

	diff, err := e.engine.CompareScenarios(s1.ID, s2.ID, owner)
	require.NoError(t, err)
	require.Len(t, diff.ResourceScenarios, 1)

	entry := diff.ResourceScenarios[0]
	assert.Equal(t, e.ra2, entry.ResourceAttrID)
	assert.Nil(t, entry.Scenario1Dataset)
	require.NotNil(t, entry.Scenario2Dataset)
}

func TestCompareGroupSymmetricDifference(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1")
	s2 := e.addScenario(t, "s2")

	require.NoError(t, e.engine.AddResourceGroupItems(s1.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.node2ID},
	}, owner))
	require.NoError(t, e.engine.AddResourceGroupItems(s2.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
	}, owner))

	diff, err := e.engine.CompareScenarios(s1.ID, s2.ID, owner)
	require.NoError(t, err)
	require.Len(t, diff.Groups.Scenario1Items, 1)
	assert.Equal(t, e.node2ID, diff.Groups.Scenario1Items[0].NodeID)
	assert.Empty(t, diff.Groups.Scenario2Items)
}

func TestCompareCrossNetwork(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1")
	s2, err := e.engine.AddScenario(e.network2ID, &Spec{Name: "other"}, owner)
	require.NoError(t, err)

	_, err = e.engine.CompareScenarios(s1.ID, s2.ID, owner)
	assert.True(t, errdefs.IsCrossNetwork(err))
}

func TestCopyOnWrite(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("5.0")})
	clone, err := e.engine.CloneScenario(scn.ID, owner, "")
	require.NoError(t, err)

	shared := e.getRS(t, scn.ID, e.ra1).DatasetID
	require.Equal(t, shared, e.getRS(t, clone.ID, e.ra1).DatasetID)

	// The dataset has two referrers, so the update must not touch it.
	_, err = e.engine.UpdateResourceData(scn.ID, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra1, Value: scalarValue("6.0")},
	}, owner)
	require.NoError(t, err)

	assert.Equal(t, shared, e.getRS(t, clone.ID, e.ra1).DatasetID)
	assert.NotEqual(t, shared, e.getRS(t, scn.ID, e.ra1).DatasetID)
}

func TestUpdateInPlaceWhenSoleReferrer(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("7.7")})
	dsID := e.getRS(t, scn.ID, e.ra1).DatasetID

	_, err := e.engine.UpdateResourceData(scn.ID, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra1, Value: scalarValue("8.8")},
	}, owner)
	require.NoError(t, err)

	// Sole referrer keeps its dataset id; the row mutated in place.
	assert.Equal(t, dsID, e.getRS(t, scn.ID, e.ra1).DatasetID)
}

func TestUpdateSameHashNoop(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("7.7")})
	dsID := e.getRS(t, scn.ID, e.ra1).DatasetID

	_, err := e.engine.UpdateResourceData(scn.ID, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra1, Value: scalarValue("7.7")},
	}, owner)
	require.NoError(t, err)
	assert.Equal(t, dsID, e.getRS(t, scn.ID, e.ra1).DatasetID)
}

func TestBulkUpdateCrossNetwork(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1")
	s2, err := e.engine.AddScenario(e.network2ID, &Spec{Name: "other"}, owner)
	require.NoError(t, err)

	err = e.engine.BulkUpdateResourceData([]int64{s1.ID, s2.ID}, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra1, Value: scalarValue("1.0")},
	}, owner)
	assert.True(t, errdefs.IsCrossNetwork(err))

	// Nothing committed for either scenario.
	_, err = e.engine.GetResourceScenario(s1.ID, e.ra1, owner)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestCrossNetworkBindingRejected(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base")

	// ra4 hangs off a node in the second network.
	_, err := e.engine.UpdateResourceData(scn.ID, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra4, Value: scalarValue("1.0")},
	}, owner)
	assert.True(t, errdefs.IsCrossNetwork(err))

	// Nothing committed.
	_, err = e.engine.GetResourceScenario(scn.ID, e.ra4, owner)
	assert.True(t, errdefs.IsNotFound(err))

	_, err = e.engine.AddScenario(e.networkID, &Spec{
		Name: "embedded",
		ResourceScenarios: []*ResourceScenarioInput{
			{ResourceAttrID: e.ra4, Value: scalarValue("1.0")},
		},
	}, owner)
	assert.True(t, errdefs.IsCrossNetwork(err))
}

func TestCopyDataCrossNetworkRejected(t *testing.T) {
	e := newEnv(t)
	src, err := e.engine.AddScenario(e.network2ID, &Spec{
		Name: "other",
		ResourceScenarios: []*ResourceScenarioInput{
			{ResourceAttrID: e.ra4, Value: scalarValue("1.0")},
		},
	}, owner)
	require.NoError(t, err)
	tgt := e.addScenario(t, "tgt")

	_, err = e.engine.CopyDataFromScenario([]int64{e.ra4}, src.ID, tgt.ID, owner)
	assert.True(t, errdefs.IsCrossNetwork(err))

	_, err = e.engine.GetResourceScenario(tgt.ID, e.ra4, owner)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestBulkUpdateNilValueDeletes(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	s2 := e.addScenario(t, "s2", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("2.0")})

	err := e.engine.BulkUpdateResourceData([]int64{s1.ID, s2.ID}, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra1, Value: nil},
	}, owner)
	require.NoError(t, err)

	_, err = e.engine.GetResourceScenario(s1.ID, e.ra1, owner)
	assert.True(t, errdefs.IsNotFound(err))
	_, err = e.engine.GetResourceScenario(s2.ID, e.ra1, owner)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestMutationRequiresEdit(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	before := e.getRS(t, scn.ID, e.ra1).DatasetID

	for _, user := range []int64{reader, stranger} {
		_, err := e.engine.UpdateResourceData(scn.ID, []*ResourceScenarioInput{
			{ResourceAttrID: e.ra1, Value: scalarValue("9.0")},
		}, user)
		assert.True(t, errdefs.IsPermission(err))

		_, err = e.engine.CloneScenario(scn.ID, user, "")
		assert.True(t, errdefs.IsPermission(err))

		err = e.engine.LockScenario(scn.ID, user)
		assert.True(t, errdefs.IsPermission(err))
	}

	// No row was altered.
	assert.Equal(t, before, e.getRS(t, scn.ID, e.ra1).DatasetID)
}

func TestPurgeCascades(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "doomed", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	dsID := e.getRS(t, scn.ID, e.ra1).DatasetID
	require.NoError(t, e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
	}, owner))

	err := e.store.Update(func(tx *storage.Tx) error {
		require.NoError(t, tx.CreateRule(&types.Rule{
			ScenarioID: scn.ID, Name: "min-flow", RefKey: types.RefKeyNode, NodeID: e.nodeID,
		}))
		return tx.CreateNote(&types.Note{
			ScenarioID: scn.ID, RefKey: types.RefKeyNode, NodeID: e.nodeID, Text: []byte("check"),
		})
	})
	require.NoError(t, err)

	require.NoError(t, e.engine.PurgeScenario(scn.ID, owner))

	_, err = e.engine.GetScenario(scn.ID, owner)
	assert.True(t, errdefs.IsNotFound(err))

	err = e.store.View(func(tx *storage.Tx) error {
		rules, err := tx.ListRulesByScenario(scn.ID)
		require.NoError(t, err)
		assert.Empty(t, rules)
		notes, err := tx.ListNotesByScenario(scn.ID)
		require.NoError(t, err)
		assert.Empty(t, notes)
		items, err := tx.ListGroupItemsByScenario(scn.ID)
		require.NoError(t, err)
		assert.Empty(t, items)

		// Datasets survive the purge.
		_, err = tx.GetDataset(dsID)
		assert.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestEmptyGroup(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base")
	require.NoError(t, e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.node2ID},
	}, owner))

	require.NoError(t, e.engine.EmptyGroup(e.groupID, scn.ID, owner))

	items, err := e.engine.GetResourceGroupItems(scn.ID, 0, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetResourceScenariosFiltered(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base",
		&ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")},
		&ResourceScenarioInput{ResourceAttrID: e.ra2, Value: scalarValue("2.0")},
	)

	all, err := e.engine.GetResourceScenarios(scn.ID, nil, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := e.engine.GetResourceScenarios(scn.ID, []int64{e.ra2}, owner)
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, e.ra2, some[0].ResourceAttrID)
}

func TestGetResourceGroupItemsFiltered(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base")

	var group2ID int64
	err := e.store.Update(func(tx *storage.Tx) error {
		group2 := &types.ResourceGroup{NetworkID: e.networkID, Name: "downstream"}
		require.NoError(t, tx.CreateResourceGroup(group2))
		group2ID = group2.ID
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{
		{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID},
		{GroupID: group2ID, RefKey: types.RefKeyNode, MemberID: e.node2ID},
	}, owner))

	all, err := e.engine.GetResourceGroupItems(scn.ID, 0, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := e.engine.GetResourceGroupItems(scn.ID, group2ID, owner)
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, e.node2ID, some[0].NodeID)

	_, err = e.engine.GetResourceGroupItems(scn.ID, 9999, owner)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestDuplicateGroupItemConflicts(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base")
	item := &GroupItemInput{GroupID: e.groupID, RefKey: types.RefKeyNode, MemberID: e.nodeID}

	require.NoError(t, e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{item}, owner))
	err := e.engine.AddResourceGroupItems(scn.ID, []*GroupItemInput{item}, owner)
	assert.True(t, errdefs.IsConflict(err))
}

func TestCopyDataFromScenario(t *testing.T) {
	e := newEnv(t)
	src := e.addScenario(t, "src",
		&ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")},
		&ResourceScenarioInput{ResourceAttrID: e.ra2, Value: scalarValue("2.0")},
	)
	tgt := e.addScenario(t, "tgt", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("9.0")})

	copied, err := e.engine.CopyDataFromScenario([]int64{e.ra1, e.ra2, e.ra3}, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	assert.Len(t, copied, 2) // ra3 absent from source, skipped

	assert.Equal(t, e.getRS(t, src.ID, e.ra1).DatasetID, e.getRS(t, tgt.ID, e.ra1).DatasetID)
	assert.Equal(t, e.getRS(t, src.ID, e.ra2).DatasetID, e.getRS(t, tgt.ID, e.ra2).DatasetID)
}

func TestSetResourceScenarioDataset(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	s2 := e.addScenario(t, "s2", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("2.0")})
	target := e.getRS(t, s2.ID, e.ra1).DatasetID

	rs, err := e.engine.SetResourceScenarioDataset(s1.ID, e.ra1, target, owner)
	require.NoError(t, err)
	assert.Equal(t, target, rs.DatasetID)
}

func TestGetDatasetScenarios(t *testing.T) {
	e := newEnv(t)
	s1 := e.addScenario(t, "s1", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	s2 := e.addScenario(t, "s2", &ResourceScenarioInput{ResourceAttrID: e.ra2, Value: scalarValue("1.0")})
	dsID := e.getRS(t, s1.ID, e.ra1).DatasetID

	scenarios, err := e.engine.GetDatasetScenarios(dsID, owner)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	ids := []int64{scenarios[0].ID, scenarios[1].ID}
	assert.ElementsMatch(t, []int64{s1.ID, s2.ID}, ids)
}

func TestSetScenarioStatus(t *testing.T) {
	e := newEnv(t)
	scn := e.addScenario(t, "base")

	require.NoError(t, e.engine.SetScenarioStatus(scn.ID, types.StatusDeleted, owner))
	got, err := e.engine.GetScenario(scn.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeleted, got.Status)

	require.NoError(t, e.engine.SetScenarioStatus(scn.ID, types.StatusActive, owner))
	got, err = e.engine.GetScenario(scn.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, got.Status)
}
