package atsha204a

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
)

// Execute sends req once and polls for the response every ExecTime until
// TransactionTimeout is used up. A decoded frame, a too large frame or a checksum
// mismatch end the polling; the chip does not ack its address while it is still
// executing, so other receive errors are polled through.
func (d *Device) Execute(ctx context.Context, req Request) (Response, error) {
	frame, err := req.Encode()
	if err != nil {
		return nil, err
	}
	slog.Debug("atsha204a: sending request", "frame", hex.EncodeToString(frame))
	err = d.send(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: request send failed: %w", ErrBusy, err)
	}

	budget := d.config.TransactionTimeout
	for budget > 0 {
		d.config.Sleep(d.config.ExecTime)
		resp, err := d.receive(ctx)
		if err == nil {
			slog.Debug("atsha204a: response received", "frame", hex.EncodeToString(resp))
			return resp, nil
		}
		if errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrChecksum) {
			return nil, err
		}
		budget -= d.config.ExecTime
		slog.Debug("atsha204a: polling for response", "remaining", budget, "error", err)
	}
	return nil, fmt.Errorf("%w: no response within %s", ErrTimeout, d.config.TransactionTimeout)
}
