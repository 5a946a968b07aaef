package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hepingood/adxl345"
)

type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	closed    int
}

func (f *fakeHID) Write(b []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if len(f.responses) > 0 {
		copy(b, f.responses[0])
		f.responses = f.responses[1:]
	}
	return len(b), nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func report(bytes ...byte) []byte {
	r := make([]byte, reportSize)
	copy(r, bytes)
	return r
}

func newTestBridge(dev *fakeHID) *MCP2221 {
	d := NewMCP2221(WithResponseWait(0))
	d.open = func(int) (device, error) { return dev, nil }
	return d
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdI2CWrite, 0x00)}}
	err := newTestBridge(dev).WriteToAddr(context.Background(), 0x53, []byte{0x2D, 0x08})
	require.NoError(t, err)
	require.Len(t, dev.requests, 1)
	assert.Equal(t, []byte{cmdI2CWrite, 0x02, 0x00, 0xA6, 0x2D, 0x08}, dev.requests[0][:6])
	assert.Equal(t, 1, dev.closed)
}

func TestMCP2221_WriteTooLong(t *testing.T) {
	dev := &fakeHID{}
	err := newTestBridge(dev).WriteToAddr(context.Background(), 0x53, make([]byte, chunkSize+1))
	assert.ErrorIs(t, err, adxl345.ErrInvalidArgument)
	assert.Empty(t, dev.requests)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdI2CWrite, statusBusy)}}
	err := newTestBridge(dev).WriteToAddr(context.Background(), 0x53, []byte{0x00})
	assert.ErrorIs(t, err, adxl345.ErrBusBusy)
}

func TestMCP2221_ReadFromAddrChunks(t *testing.T) {
	first := make([]byte, chunkSize)
	for i := range first {
		first[i] = byte(i)
	}
	dev := &fakeHID{responses: [][]byte{
		report(cmdI2CRead, 0x00),
		report(append([]byte{cmdGetData, 0x00, 0x00, chunkSize}, first...)...),
		report(cmdGetData, 0x00, 0x00, 6, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5),
	}}
	buf := make([]byte, chunkSize+6)
	err := newTestBridge(dev).ReadFromAddr(context.Background(), 0x1D, buf)
	require.NoError(t, err)
	require.Len(t, dev.requests, 3)
	assert.Equal(t, []byte{cmdI2CRead, chunkSize + 6, 0x00, 0x3B}, dev.requests[0][:4])
	assert.Equal(t, byte(cmdGetData), dev.requests[1][0])
	assert.Equal(t, first, buf[:chunkSize])
	assert.Equal(t, []byte{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}, buf[chunkSize:])
}

func TestMCP2221_ReadFromAddrSizeMismatch(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdI2CRead, 0x00),
		report(cmdGetData, 0x00, 0x00, dataSizeFailed),
	}}
	err := newTestBridge(dev).ReadFromAddr(context.Background(), 0x53, make([]byte, 1))
	assert.ErrorContains(t, err, "invalid data size byte")
}

func TestMCP2221_GPIO(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdGetGPIO, 0x00, 1, 1, 0, 0, 0xEF, 0xEF, 0xEF, 0xEF),
	}}
	pins, err := newTestBridge(dev).GPIO(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GPIOPin{Mode: GPIOModeIn, Value: 1}, pins[0])
	assert.Equal(t, GPIOPin{Mode: GPIOModeOut, Value: 0}, pins[1])
	assert.Equal(t, GPIOModeNoOperation, pins[2].Mode)
}

func TestMCP2221_Status(t *testing.T) {
	resp := report(cmdStatus)
	resp[9], resp[11], resp[13], resp[14], resp[15] = 2, 2, 1, 0x76, 0x20
	resp[16], resp[25] = 0xA6, 1
	dev := &fakeHID{responses: [][]byte{resp}}
	status, err := newTestBridge(dev).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   1,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             0x20,
		CurrentAddress:         "a600",
		LastWriteRequestedSize: 2,
		LastWriteSentSize:      2,
		ReadPending:            1,
	}, status)
}
