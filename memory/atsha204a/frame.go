package atsha204a

import (
	"encoding/binary"
	"fmt"
)

// Function is the word address byte that prefixes every transfer to the device.
type Function byte

const (
	FuncReset   Function = 0x00
	FuncSleep   Function = 0x01
	FuncIdle    Function = 0x02
	FuncCommand Function = 0x03
)

type Opcode byte

const (
	OpRead   Opcode = 0x02
	OpRandom Opcode = 0x1B
)

type Status byte

const (
	StatusSuccess    Status = 0x00
	StatusMiscompare Status = 0x01
	StatusParseError Status = 0x03
	StatusExecError  Status = 0x0F
	StatusAfterWake  Status = 0x11
	// StatusCRCError is reported by the device when it received a corrupted command.
	StatusCRCError Status = 0xFF
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusMiscompare:
		return "miscompare"
	case StatusParseError:
		return "parse error"
	case StatusExecError:
		return "execution error"
	case StatusAfterWake:
		return "after wake"
	case StatusCRCError:
		return "crc error"
	default:
		return fmt.Sprintf("unknown (%#02x)", byte(s))
	}
}

// Frame layout
//
//	request:  function | length | opcode | param1 | param2 (LE) | data... | crc (LE)
//	response: length | status/data... | crc (LE)
//
// Request length counts itself, opcode, both params, data and the crc, but not the
// function byte. Response length counts every byte of the frame.
const (
	requestOverhead = 7
	maxRequestData  = 78
	responseHeader  = 4
	maxResponseSize = 84
	crcSize         = 2
)

// Request is a single host to device transfer. Only FuncCommand frames carry the
// command fields; the other functions are sent as their function byte alone.
type Request struct {
	Function Function
	Opcode   Opcode
	Param1   byte
	Param2   uint16
	Data     []byte
}

// NewCommand returns a command request.
func NewCommand(op Opcode, param1 byte, param2 uint16, data []byte) Request {
	return Request{Function: FuncCommand, Opcode: op, Param1: param1, Param2: param2, Data: data}
}

// Encode returns the request as it goes on the wire.
func (r Request) Encode() ([]byte, error) {
	if r.Function != FuncCommand {
		return []byte{byte(r.Function)}, nil
	}
	if len(r.Data) > maxRequestData {
		return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrFrameTooLarge, len(r.Data), maxRequestData)
	}
	length := requestOverhead + len(r.Data)
	b := make([]byte, 0, length+1)
	b = append(b, byte(r.Function), byte(length), byte(r.Opcode), r.Param1)
	b = binary.LittleEndian.AppendUint16(b, r.Param2)
	b = append(b, r.Data...)
	// the function byte is not covered by the crc
	return binary.LittleEndian.AppendUint16(b, Checksum(b[1:])), nil
}

// Response is a device to host frame whose checksum has been verified.
type Response []byte

// Len returns the length declared by the frame.
func (r Response) Len() int {
	return int(r[0])
}

// Status returns the status/op-echo byte. For data responses this is the first
// data byte.
func (r Response) Status() Status {
	return Status(r[1])
}

// Payload returns everything between the length byte and the checksum.
func (r Response) Payload() []byte {
	return r[1 : len(r)-crcSize]
}

// DecodeResponse reads a response frame through recv, which must fill the whole
// buffer it is given. The 4-byte header is read first; the rest of the frame is
// only requested when the declared length fits the device buffer.
func DecodeResponse(recv func(p []byte) error) (Response, error) {
	buf := make([]byte, maxResponseSize)
	err := recv(buf[:responseHeader])
	if err != nil {
		return nil, fmt.Errorf("%w: header read failed: %w", ErrTransport, err)
	}
	length := int(buf[0])
	if length > maxResponseSize {
		return nil, fmt.Errorf("%w: declared length %d, max %d", ErrFrameTooLarge, length, maxResponseSize)
	}
	if length < responseHeader {
		return nil, fmt.Errorf("%w: declared length %d cannot hold a checksum", ErrChecksum, length)
	}
	if length > responseHeader {
		err = recv(buf[responseHeader:length])
		if err != nil {
			return nil, fmt.Errorf("%w: frame read failed: %w", ErrTransport, err)
		}
	}
	frame := buf[:length]
	expected := binary.LittleEndian.Uint16(frame[length-crcSize:])
	computed := Checksum(frame[:length-crcSize])
	if expected != computed {
		return nil, fmt.Errorf("%w: received %#04x, computed %#04x", ErrChecksum, expected, computed)
	}
	return Response(frame), nil
}
