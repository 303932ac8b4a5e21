package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

func (e *env) mapAttrs(t *testing.T, raA, raB int64) {
	t.Helper()
	err := e.store.Update(func(tx *storage.Tx) error {
		return tx.PutResourceAttrMap(&types.ResourceAttrMap{
			NetworkAID:      e.networkID,
			NetworkBID:      e.networkID,
			ResourceAttrAID: raA,
			ResourceAttrBID: raB,
		})
	})
	require.NoError(t, err)
}

func TestCreateAttributeMapping(t *testing.T) {
	e := newEnv(t)
	src := e.addScenario(t, "src", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	tgt := e.addScenario(t, "tgt")

	ram, err := e.engine.CreateAttributeMapping(e.ra1, e.ra3, owner)
	require.NoError(t, err)
	assert.Equal(t, e.networkID, ram.NetworkAID)
	assert.Equal(t, e.networkID, ram.NetworkBID)

	// The engine-created mapping is enough for the applier.
	rs, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, rs)

	_, err = e.engine.CreateAttributeMapping(e.ra1, 999, owner)
	assert.True(t, errdefs.IsNotFound(err))

	_, err = e.engine.CreateAttributeMapping(e.ra1, e.ra3, reader)
	assert.True(t, errdefs.IsPermission(err))
}

func TestMappingRequiresEntry(t *testing.T) {
	e := newEnv(t)
	src := e.addScenario(t, "src", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	tgt := e.addScenario(t, "tgt")

	_, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestMappingRebindAndCreate(t *testing.T) {
	e := newEnv(t)
	e.mapAttrs(t, e.ra1, e.ra3)
	src := e.addScenario(t, "src", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	tgt := e.addScenario(t, "tgt")
	srcDS := e.getRS(t, src.ID, e.ra1).DatasetID

	// Target binding absent: the mapping creates it.
	rs, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, srcDS, rs.DatasetID)

	// Source changed: the mapping rebinds the existing target.
	_, err = e.engine.UpdateResourceData(src.ID, []*ResourceScenarioInput{
		{ResourceAttrID: e.ra1, Value: scalarValue("2.0")},
	}, owner)
	require.NoError(t, err)
	newDS := e.getRS(t, src.ID, e.ra1).DatasetID

	rs, err = e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, newDS, rs.DatasetID)
}

func TestMappingOrderInsensitive(t *testing.T) {
	e := newEnv(t)
	e.mapAttrs(t, e.ra3, e.ra1) // stored reversed
	src := e.addScenario(t, "src", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	tgt := e.addScenario(t, "tgt")

	rs, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, rs)
}

func TestMappingPropagatesAbsence(t *testing.T) {
	e := newEnv(t)
	e.mapAttrs(t, e.ra1, e.ra3)
	src := e.addScenario(t, "src")
	tgt := e.addScenario(t, "tgt", &ResourceScenarioInput{ResourceAttrID: e.ra3, Value: scalarValue("5.0")})

	rs, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, rs)

	_, err = e.engine.GetResourceScenario(tgt.ID, e.ra3, owner)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestMappingIdempotent(t *testing.T) {
	e := newEnv(t)
	e.mapAttrs(t, e.ra1, e.ra3)
	src := e.addScenario(t, "src", &ResourceScenarioInput{ResourceAttrID: e.ra1, Value: scalarValue("1.0")})
	tgt := e.addScenario(t, "tgt")

	first, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	second, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, first.DatasetID, second.DatasetID)
	assert.Equal(t, first.DatasetID, e.getRS(t, tgt.ID, e.ra3).DatasetID)
}

func TestMappingNeitherSideNoop(t *testing.T) {
	e := newEnv(t)
	e.mapAttrs(t, e.ra1, e.ra3)
	src := e.addScenario(t, "src")
	tgt := e.addScenario(t, "tgt")

	rs, err := e.engine.UpdateValueFromMapping(e.ra1, e.ra3, src.ID, tgt.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, rs)
}
