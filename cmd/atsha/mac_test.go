package main

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/atsha"
	"github.com/mklimuk/atsha/memory/atsha204a"
)

// streamBus answers reads from a byte stream and records writes.
type streamBus struct {
	stream []byte
	writes [][]byte
}

func (b *streamBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if address == 0x00 {
		return atsha.ErrNoAck
	}
	b.writes = append(b.writes, append([]byte(nil), buffer...))
	return nil
}

func (b *streamBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(b.stream) < len(buffer) {
		return atsha.ErrNoAck
	}
	copy(buffer, b.stream)
	b.stream = b.stream[len(buffer):]
	return nil
}

func (b *streamBus) Release(ctx context.Context) error {
	return nil
}

func frame(payload ...byte) []byte {
	f := append([]byte{byte(len(payload) + 3)}, payload...)
	return binary.LittleEndian.AppendUint16(f, atsha204a.Checksum(f))
}

func TestReadMAC(t *testing.T) {
	bus := &streamBus{}
	bus.stream = append(bus.stream, frame(0x11)...)
	bus.stream = append(bus.stream, frame(0x20, 0xB0, 0xF7, 0x0A)...)
	bus.stream = append(bus.stream, frame(0x6C, 0x08, 0xFF, 0xFF)...)
	dev := atsha204a.New(bus, atsha204a.WithSleeper(func(time.Duration) {}))

	mac, err := readMAC(context.Background(), dev)
	require.NoError(t, err)
	assert.Equal(t, "20:b0:f7:0a:6c:08", mac.String())
	assert.Equal(t, atsha204a.StateAsleep, dev.State())
	// sleep, read word 4, read word 5, sleep
	require.Len(t, bus.writes, 4)
	assert.Equal(t, []byte{0x01}, bus.writes[0])
	assert.Equal(t, []byte{0x03, 0x07, 0x02, 0x01, 0x04, 0x00, 0x1E, 0xE7}, bus.writes[1])
	assert.Equal(t, []byte{0x01}, bus.writes[3])
}

func TestReadMAC_WakeFails(t *testing.T) {
	bus := &streamBus{stream: frame(0x00)}
	dev := atsha204a.New(bus, atsha204a.WithSleeper(func(time.Duration) {}))

	_, err := readMAC(context.Background(), dev)
	assert.True(t, errors.Is(err, atsha204a.ErrProtocol))
}

func TestParseZone(t *testing.T) {
	zone, err := parseZone("OTP")
	require.NoError(t, err)
	assert.Equal(t, atsha204a.ZoneOTP, zone)
	_, err = parseZone("eeprom")
	assert.Error(t, err)
}
