package atsha204a

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/atsha"
)

const testAddr = byte(DefaultAddress)

// MockI2CBus is a mock implementation of atsha.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if args.Get(0) != nil {
		// Copy mock data to buffer if provided
		if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
			copy(buffer, data)
		}
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockWakeBus additionally implements atsha.WakePulser so wake pulses can be counted.
type MockWakeBus struct {
	MockI2CBus
}

func (m *MockWakeBus) WakePulse(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeClock records the time the driver spent waiting.
type fakeClock struct {
	elapsed time.Duration
	calls   int
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.elapsed += d
	c.calls++
}

// responseFrame builds a valid device response around payload.
func responseFrame(payload ...byte) []byte {
	frame := []byte{byte(len(payload) + 3)}
	frame = append(frame, payload...)
	return binary.LittleEndian.AppendUint16(frame, Checksum(frame))
}

var (
	wakeFrame    = []byte{0x04, 0x11, 0x33, 0x43}
	corruptFrame = []byte{0x04, 0x00, 0xDE, 0xAD}
)

// expectFrame queues frame as the next response; the driver reads the header
// and the remainder separately.
func expectFrame(bus *MockI2CBus, frame []byte) {
	bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).Return(frame[:4], nil).Once()
	if len(frame) > 4 {
		bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).Return(frame[4:], nil).Once()
	}
}

func newTestDevice(bus atsha.I2CBus, clock *fakeClock, opts ...Opt) *Device {
	return New(bus, append([]Opt{WithSleeper(clock.Sleep)}, opts...)...)
}
