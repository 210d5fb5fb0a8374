package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

type tx struct {
	addr  uint16
	w     []byte
	speed physic.Frequency
}

// fakePeriphBus records transfers together with the clock they ran at.
type fakePeriphBus struct {
	speed    physic.Frequency
	txs      []tx
	txErr    error
	speedErr error
	closed   bool
}

func (f *fakePeriphBus) String() string { return "fake" }

func (f *fakePeriphBus) Tx(addr uint16, w, r []byte) error {
	f.txs = append(f.txs, tx{addr: addr, w: append([]byte(nil), w...), speed: f.speed})
	for i := range r {
		r[i] = byte(i)
	}
	return f.txErr
}

func (f *fakePeriphBus) SetSpeed(s physic.Frequency) error {
	if f.speedErr != nil {
		return f.speedErr
	}
	f.speed = s
	return nil
}

func (f *fakePeriphBus) Close() error {
	f.closed = true
	return nil
}

func TestGenericBus_WakePulseRestoresSpeed(t *testing.T) {
	fake := &fakePeriphBus{}
	bus := &GenericBus{bus: fake}
	require.NoError(t, bus.SetSpeed(400*physic.KiloHertz))

	require.NoError(t, bus.WakePulse(context.Background()))
	require.Len(t, fake.txs, 1)
	assert.Equal(t, uint16(0x00), fake.txs[0].addr)
	assert.Equal(t, []byte{0x00}, fake.txs[0].w)
	assert.Equal(t, WakeSpeed, fake.txs[0].speed)
	assert.Equal(t, 400*physic.KiloHertz, fake.speed)

	require.NoError(t, bus.WriteToAddr(context.Background(), 0x64, []byte{0x01}))
	assert.Equal(t, 400*physic.KiloHertz, fake.txs[1].speed)
}

func TestGenericBus_WakePulseKeepsUnknownSpeed(t *testing.T) {
	fake := &fakePeriphBus{speed: 400 * physic.KiloHertz}
	bus := &GenericBus{bus: fake}

	require.NoError(t, bus.WakePulse(context.Background()))
	assert.Equal(t, 400*physic.KiloHertz, fake.txs[0].speed)
	assert.Equal(t, 400*physic.KiloHertz, fake.speed)
}

func TestGenericBus_WakePulseSlowBus(t *testing.T) {
	fake := &fakePeriphBus{}
	bus := &GenericBus{bus: fake}
	require.NoError(t, bus.SetSpeed(50*physic.KiloHertz))

	require.NoError(t, bus.WakePulse(context.Background()))
	assert.Equal(t, 50*physic.KiloHertz, fake.txs[0].speed)
}

func TestGenericBus_SetSpeedError(t *testing.T) {
	fake := &fakePeriphBus{speedErr: errors.New("not supported")}
	bus := &GenericBus{bus: fake}

	assert.Error(t, bus.SetSpeed(400*physic.KiloHertz))
	assert.Equal(t, physic.Frequency(0), bus.speed)
	// the pulse still goes out at the host clock
	require.NoError(t, bus.WakePulse(context.Background()))
	assert.Len(t, fake.txs, 1)
}

func TestGenericBus_Transfers(t *testing.T) {
	fake := &fakePeriphBus{}
	bus := &GenericBus{bus: fake}

	buf := make([]byte, 4)
	require.NoError(t, bus.ReadFromAddr(context.Background(), 0x64, buf))
	assert.Equal(t, []byte{0, 1, 2, 3}, buf)
	assert.Equal(t, uint16(0x64), fake.txs[0].addr)

	fake.txErr = errors.New("nack")
	err := bus.WriteToAddr(context.Background(), 0x64, []byte{0x01})
	assert.ErrorIs(t, err, fake.txErr)

	require.NoError(t, bus.Close())
	assert.True(t, fake.closed)
}
