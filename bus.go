package atsha

import (
	"context"
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrNoAck is returned by transports when the addressed device did not acknowledge
// the transfer. A sleeping or still executing ATSHA204A does not ack its address.
var ErrNoAck = errors.New("I2C address not acknowledged")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// WakePulser is implemented by transports able to hold SDA low long enough to
// wake a device (t_WLO). Transports that do not implement it get a plain write of
// a zero byte to the general call address.
type WakePulser interface {
	WakePulse(ctx context.Context) error
}
