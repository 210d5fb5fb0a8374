package atsha204a

import (
	"errors"
)

var (
	// ErrTransport is a bus level send or receive failure.
	ErrTransport = errors.New("atsha204a: transport failure")
	// ErrBusy is returned when a command frame could not be sent.
	ErrBusy = errors.New("atsha204a: device busy")
	// ErrFrameTooLarge is returned when a frame does not fit the device buffers.
	ErrFrameTooLarge = errors.New("atsha204a: frame too large")
	// ErrChecksum is returned when a response CRC does not match its content.
	ErrChecksum = errors.New("atsha204a: checksum mismatch")
	// ErrProtocol is returned when the device answers with an unexpected status.
	ErrProtocol = errors.New("atsha204a: protocol mismatch")
	// ErrTimeout is returned when a retry or poll budget runs out.
	ErrTimeout = errors.New("atsha204a: timeout")
	// ErrLengthMismatch is returned when a valid response has an unexpected size.
	ErrLengthMismatch = errors.New("atsha204a: response length mismatch")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindBusy
	KindFrameTooLarge
	KindChecksum
	KindProtocol
	KindTimeout
	KindLengthMismatch
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	// order matters: wrapped transport causes may sit under other kinds
	{ErrTimeout, KindTimeout},
	{ErrBusy, KindBusy},
	{ErrFrameTooLarge, KindFrameTooLarge},
	{ErrChecksum, KindChecksum},
	{ErrProtocol, KindProtocol},
	{ErrLengthMismatch, KindLengthMismatch},
	{ErrTransport, KindTransport},
}

// KindOf classifies err into one of the driver error kinds.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBusy:
		return "busy"
	case KindFrameTooLarge:
		return "frame-too-large"
	case KindChecksum:
		return "checksum-mismatch"
	case KindProtocol:
		return "protocol-mismatch"
	case KindTimeout:
		return "timeout"
	case KindLengthMismatch:
		return "length-mismatch"
	default:
		return "unknown"
	}
}
