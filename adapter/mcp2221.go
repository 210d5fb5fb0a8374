package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/atsha"
	"github.com/mklimuk/atsha/busctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

var _ atsha.I2CBus = &MCP2221{}
var _ atsha.WakePulser = &MCP2221{}

// Command codes (MCP2221A datasheet §3.1)
const (
	cmdStatusSetParams = 0x10
	cmdI2CWriteData    = 0x90
	cmdI2CReadData     = 0x91
	cmdI2CGetData      = 0x40

	statusCancelTransfer = 0x10
	statusSetSpeed       = 0x20
	speedAccepted        = 0x20

	responseBusy       = 0x01
	responseReadFailed = 0x41

	// internal clock used to derive the I2C divider
	clockHz = 12_000_000
	// bus speed used for the ATSHA204A wake pulse
	wakeSpeedHz = 100_000
)

// MCP2221 is a Microchip USB to I²C bridge accessed through HID reports.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	speedHz      int
	id           []int
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opt func(*MCP2221)

// WithDeviceID selects one of several connected bridges by enumeration index.
func WithDeviceID(id int) MCP2221Opt {
	return func(d *MCP2221) {
		d.id = []int{id}
	}
}

func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	d := &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init checks the bridge is reachable and cancels any transfer left pending by a
// previous process.
func (d *MCP2221) Init(ctx context.Context) error {
	if len(hid.Enumerate(VendorID, ProductID)) == 0 {
		return ErrDeviceNotFound
	}
	_, err := d.ReleaseBus(ctx)
	if err != nil {
		return fmt.Errorf("could not reset i2c engine: %w", err)
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWriteData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	if len(buffer) > 0 {
		copy(d.request[4:], buffer)
	}
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	// write could not be performed
	if d.response[1] == responseBusy {
		slog.Debug("adapter busy", "address", address)
		return atsha.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CReadData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == responseBusy {
		return atsha.ErrBusBusy
	}
	d.request[0] = cmdI2CGetData
	resetBuffer(d.response)
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == responseReadFailed {
		return fmt.Errorf("%w: error reading the I2C slave data from the I2C engine", atsha.ErrNoAck)
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}

	copy(buffer, d.response[4:])
	return nil
}

// SetSpeed sets the I²C clock of the bridge.
func (d *MCP2221) SetSpeed(ctx context.Context, hz int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.setSpeed(ctx, hz)
	if err != nil {
		return err
	}
	d.speedHz = hz
	return nil
}

func (d *MCP2221) setSpeed(ctx context.Context, hz int) error {
	divider, err := speedDivider(hz)
	if err != nil {
		return err
	}
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[3] = statusSetSpeed
	d.request[4] = divider
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("set speed request failed: %w", err)
	}
	// speed is not applied while a transfer is in progress
	if d.response[3] != speedAccepted {
		return ErrCommandFailed
	}
	return nil
}

func speedDivider(hz int) (byte, error) {
	if hz <= 0 {
		return 0, fmt.Errorf("invalid i2c speed %d", hz)
	}
	div := clockHz/hz - 3
	if div < 0 || div > 0xFF {
		return 0, fmt.Errorf("i2c speed %d out of range", hz)
	}
	return byte(div), nil
}

// WakePulse sends a zero byte to the general call address at 100 kHz and
// cancels the unacknowledged transfer afterwards.
func (d *MCP2221) WakePulse(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.setSpeed(ctx, wakeSpeedHz)
	if err != nil {
		slog.Debug("could not lower bus speed for wake pulse", "error", err)
	}
	d.resetBuffers()
	d.request[0] = cmdI2CWriteData
	d.request[1] = 0x01
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("wake pulse failed: %w", err)
	}
	_, err = d.releaseBus(ctx)
	if err != nil {
		return err
	}
	if d.speedHz != 0 && d.speedHz != wakeSpeedHz {
		return d.setSpeed(ctx, d.speedHz)
	}
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = statusCancelTransfer
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 && len(d.id) == 0 {
		return nil, fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	idx := 0
	if len(d.id) > 0 {
		idx = d.id[0]
		if idx < 0 || idx >= len(devs) {
			return nil, fmt.Errorf("no device with id %d", idx)
		}
	}
	dev, err := devs[idx].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		err := dev.Close()
		if err != nil {
			slog.Debug("could not close hid device", "error", err)
		}
	}()
	verbose := busctx.IsVerbose(ctx)
	if verbose {
		slog.Debug(fmt.Sprintf("sending message to adapter:\n%s", hex.Dump(d.request)))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug(fmt.Sprintf("read message from adapter:\n%s", hex.Dump(d.response)))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
