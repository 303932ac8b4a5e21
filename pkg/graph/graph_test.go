package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

type fixture struct {
	project *types.Project
	network *types.Network
	node    *types.Node
	link    *types.Link
	group   *types.ResourceGroup
	attr    *types.Attr
}

func seed(t *testing.T, tx *storage.Tx) *fixture {
	t.Helper()
	f := &fixture{
		project: &types.Project{Name: "basin", CreatedBy: 2},
	}
	require.NoError(t, tx.CreateProject(f.project))
	f.network = &types.Network{ProjectID: f.project.ID, Name: "river", CreatedBy: 2}
	require.NoError(t, tx.CreateNetwork(f.network))
	f.node = &types.Node{NetworkID: f.network.ID, Name: "dam"}
	require.NoError(t, tx.CreateNode(f.node))
	n2 := &types.Node{NetworkID: f.network.ID, Name: "outlet"}
	require.NoError(t, tx.CreateNode(n2))
	f.link = &types.Link{NetworkID: f.network.ID, Name: "reach", Node1ID: f.node.ID, Node2ID: n2.ID}
	require.NoError(t, tx.CreateLink(f.link))
	f.group = &types.ResourceGroup{NetworkID: f.network.ID, Name: "reservoirs"}
	require.NoError(t, tx.CreateResourceGroup(f.group))
	f.attr = &types.Attr{Name: "flow", Dimension: "Volumetric flow rate"}
	require.NoError(t, tx.CreateAttr(f.attr))
	return f
}

func TestResolve(t *testing.T) {
	bolt, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	err = bolt.Update(func(tx *storage.Tx) error {
		f := seed(t, tx)

		for _, ref := range []ResourceRef{
			{types.RefKeyProject, f.project.ID},
			{types.RefKeyNetwork, f.network.ID},
			{types.RefKeyNode, f.node.ID},
			{types.RefKeyLink, f.link.ID},
			{types.RefKeyGroup, f.group.ID},
		} {
			got, err := Resolve(tx, ref)
			require.NoError(t, err)
			assert.NotNil(t, got)
		}

		_, err := Resolve(tx, ResourceRef{types.RefKeyNode, 999})
		assert.True(t, errdefs.IsNotFound(err))

		_, err = Resolve(tx, ResourceRef{types.RefKey("BOGUS"), 1})
		assert.True(t, errdefs.IsInvalidInput(err))
		return nil
	})
	require.NoError(t, err)
}

func TestAddAttributeFillsOneSlot(t *testing.T) {
	bolt, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	err = bolt.Update(func(tx *storage.Tx) error {
		f := seed(t, tx)

		ra, err := AddAttribute(tx, ResourceRef{types.RefKeyNode, f.node.ID}, f.attr.ID, types.No)
		require.NoError(t, err)
		assert.Equal(t, types.RefKeyNode, ra.RefKey)
		assert.Equal(t, f.node.ID, ra.NodeID)
		assert.Zero(t, ra.LinkID)
		assert.Zero(t, ra.NetworkID)
		assert.Equal(t, f.node.ID, ra.ResourceID())

		resource, err := ResourceOf(tx, ra)
		require.NoError(t, err)
		assert.Equal(t, f.node.ID, resource.(*types.Node).ID)

		// Same attribute on the same resource is rejected.
		_, err = AddAttribute(tx, ResourceRef{types.RefKeyNode, f.node.ID}, f.attr.ID, types.No)
		assert.True(t, errdefs.IsConflict(err))

		// The same attribute on a different resource is fine.
		ra, err = AddAttribute(tx, ResourceRef{types.RefKeyLink, f.link.ID}, f.attr.ID, types.Yes)
		require.NoError(t, err)
		assert.Equal(t, f.link.ID, ra.LinkID)
		assert.Equal(t, types.Yes, ra.IsVar)

		_, err = AddAttribute(tx, ResourceRef{types.RefKeyNode, f.node.ID}, 999, types.No)
		assert.True(t, errdefs.IsNotFound(err))
		return nil
	})
	require.NoError(t, err)
}

func TestNetworkOf(t *testing.T) {
	bolt, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	err = bolt.Update(func(tx *storage.Tx) error {
		f := seed(t, tx)

		for _, ref := range []ResourceRef{
			{types.RefKeyNetwork, f.network.ID},
			{types.RefKeyNode, f.node.ID},
			{types.RefKeyLink, f.link.ID},
			{types.RefKeyGroup, f.group.ID},
		} {
			ra, err := AddAttribute(tx, ref, f.attr.ID, types.No)
			require.NoError(t, err)
			network, err := NetworkOf(tx, ra)
			require.NoError(t, err)
			require.NotNil(t, network)
			assert.Equal(t, f.network.ID, network.ID)
		}

		// Project-scoped attributes have no owning network.
		ra, err := AddAttribute(tx, ResourceRef{types.RefKeyProject, f.project.ID}, f.attr.ID, types.No)
		require.NoError(t, err)
		network, err := NetworkOf(tx, ra)
		require.NoError(t, err)
		assert.Nil(t, network)
		return nil
	})
	require.NoError(t, err)
}
