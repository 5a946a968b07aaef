package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestGenericBus_Registers(t *testing.T) {
	ctx := context.Background()
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x53, W: []byte{0x00}, R: []byte{0xE5}},
			{Addr: 0x53, W: []byte{0x2D, 0x08}},
			{Addr: 0x53, W: []byte{0x32}},
			{Addr: 0x53, R: []byte{1, 0, 2, 0, 3, 0}},
		},
	}
	bus := WrapBus(playback)
	require.NoError(t, bus.Open(ctx))

	id := make([]byte, 1)
	require.NoError(t, bus.ReadRegister(ctx, 0x53, 0x00, id))
	assert.Equal(t, byte(0xE5), id[0])
	require.NoError(t, bus.WriteRegister(ctx, 0x53, 0x2D, []byte{0x08}))

	require.NoError(t, bus.WriteToAddr(ctx, 0x53, []byte{0x32}))
	data := make([]byte, 6)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x53, data))
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0}, data)

	require.NoError(t, bus.Close(ctx))
	assert.Error(t, bus.ReadRegister(ctx, 0x53, 0x00, id), "closed bus")
}

func TestGenericBus_Unexpected(t *testing.T) {
	ctx := context.Background()
	bus := WrapBus(&i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x53, W: []byte{0x00}, R: []byte{0xE5}}},
		DontPanic: true,
	})
	err := bus.WriteRegister(ctx, 0x1D, 0x2D, []byte{0x08})
	assert.Error(t, err)
}
