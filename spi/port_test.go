package spi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestPort_Registers(t *testing.T) {
	ctx := context.Background()
	playback := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{0x80, 0x00}, R: []byte{0x00, 0xE5}},
				{W: []byte{0x2D, 0x08}},
				{W: []byte{0xF2, 0, 0, 0, 0, 0, 0}, R: []byte{0, 0x10, 0, 0x20, 0, 0x30, 0}},
			},
		},
	}
	port := WrapPort(playback, WithSpeed(10*physic.MegaHertz))
	assert.Equal(t, MaxSpeed, port.speed)
	require.NoError(t, port.Open(ctx))

	id := make([]byte, 1)
	require.NoError(t, port.ReadRegister(ctx, 0x80, id))
	assert.Equal(t, byte(0xE5), id[0])
	require.NoError(t, port.WriteRegister(ctx, 0x2D, []byte{0x08}))
	data := make([]byte, 6)
	require.NoError(t, port.ReadRegister(ctx, 0xF2, data))
	assert.Equal(t, []byte{0x10, 0, 0x20, 0, 0x30, 0}, data)

	require.NoError(t, port.Close(ctx))
	assert.Error(t, port.ReadRegister(ctx, 0x80, id))
}

func TestPort_NotOpen(t *testing.T) {
	port := NewPort("SPI9.9")
	err := port.WriteRegister(context.Background(), 0x2D, []byte{0x08})
	assert.Error(t, err)
	assert.NoError(t, port.Close(context.Background()))
}
