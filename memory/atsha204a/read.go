package atsha204a

import (
	"context"
	"fmt"
	"log/slog"
)

// Zone is one of the device memory regions.
type Zone byte

const (
	ZoneConfig Zone = 0
	ZoneOTP    Zone = 1
	ZoneData   Zone = 2
)

func (z Zone) String() string {
	switch z {
	case ZoneConfig:
		return "config"
	case ZoneOTP:
		return "otp"
	case ZoneData:
		return "data"
	default:
		return fmt.Sprintf("zone(%d)", byte(z))
	}
}

const (
	WordSize  = 4
	BlockSize = 32

	readWide = 0x80
	// count byte plus crc
	responseOverhead = 3
)

// ReadZone reads one 4-byte word, or a 32-byte block when wide is set, from zone.
// address is the word address within the zone. A failed transaction is retried
// after waking the chip again, which recovers a device that fell asleep on its
// watchdog or lost sync.
func (d *Device) ReadZone(ctx context.Context, zone Zone, wide bool, address uint16) ([]byte, error) {
	param1 := byte(zone)
	size := WordSize
	if wide {
		param1 |= readWide
		size = BlockSize
	}
	data, err := d.command(ctx, NewCommand(OpRead, param1, address, nil), size)
	if err != nil {
		return nil, fmt.Errorf("atsha204a: read %s zone at %#x failed: %w", zone, address, err)
	}
	return data, nil
}

// Random returns 32 bytes from the device RNG, updating the seed in EEPROM.
func (d *Device) Random(ctx context.Context) ([]byte, error) {
	data, err := d.command(ctx, NewCommand(OpRandom, 0x00, 0x0000, nil), BlockSize)
	if err != nil {
		return nil, fmt.Errorf("atsha204a: random failed: %w", err)
	}
	return data, nil
}

// command executes req with the retry policy and returns size payload bytes.
func (d *Device) command(ctx context.Context, req Request, size int) ([]byte, error) {
	var resp Response
	var err error
	for retry := d.config.TransactionRetries; retry >= 0; {
		resp, err = d.Execute(ctx, req)
		if err == nil {
			break
		}
		slog.Debug("atsha204a: transaction failed, waking device and retrying", "retry", retry, "error", err)
		retry--
		if werr := d.Wake(ctx); werr != nil {
			slog.Debug("atsha204a: wake before retry failed", "error", werr)
		}
	}
	if err != nil {
		return nil, err
	}
	if resp.Len() != size+responseOverhead {
		return nil, fmt.Errorf("%w: got %d bytes (status %s), expected %d", ErrLengthMismatch, resp.Len(), resp.Status(), size+responseOverhead)
	}
	out := make([]byte, size)
	copy(out, resp.Payload())
	return out, nil
}
