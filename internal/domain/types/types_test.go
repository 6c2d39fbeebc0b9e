package types_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omemostore/internal/domain/types"
)

func TestResolvedTask(t *testing.T) {
	task := types.Resolved(42, nil)
	select {
	case <-task.Done():
	default:
		t.Fatal("Done is not closed")
	}
	v, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	failed := types.Resolved(types.Nothing{}, boom)
	assert.ErrorIs(t, failed.Err(), boom)
}

func TestOmemoDataCloneIsDeep(t *testing.T) {
	orig := types.OmemoData{
		OwnDevice:         &types.OwnDevice{ID: 1, PrivateIdentityKey: []byte{1}},
		SignedPreKeyPairs: types.SignedPreKeyPairs{1: {CreationDate: time.Unix(0, 0), Data: []byte{2}}},
		PreKeyPairs:       types.PreKeyPairs{1: []byte{3}},
		Devices:           types.DeviceSet{"bob@example.org": {5: {Session: []byte{4}}}},
	}
	c := orig.Clone()
	c.OwnDevice.PrivateIdentityKey[0] = 9
	c.SignedPreKeyPairs[1].Data[0] = 9
	c.PreKeyPairs[1][0] = 9
	c.Devices["bob@example.org"][5].Session[0] = 9

	assert.Equal(t, []byte{1}, orig.OwnDevice.PrivateIdentityKey)
	assert.Equal(t, []byte{2}, orig.SignedPreKeyPairs[1].Data)
	assert.Equal(t, []byte{3}, orig.PreKeyPairs[1])
	assert.Equal(t, []byte{4}, orig.Devices["bob@example.org"][5].Session)
}

func TestCloneOfEmptyDataHasMaps(t *testing.T) {
	c := types.OmemoData{}.Clone()
	assert.Nil(t, c.OwnDevice)
	assert.NotNil(t, c.SignedPreKeyPairs)
	assert.NotNil(t, c.PreKeyPairs)
	assert.NotNil(t, c.Devices)
	assert.Zero(t, c.Devices.Count())
}

func TestDeviceRemoved(t *testing.T) {
	assert.False(t, types.Device{}.Removed())
	assert.True(t, types.Device{RemovalFromDeviceListDate: time.Now()}.Removed())
}
