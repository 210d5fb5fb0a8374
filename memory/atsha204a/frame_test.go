package atsha204a

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/atsha"
)

func TestRequest_Encode(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		expected []byte
	}{
		{
			name:     "read config word 0",
			req:      NewCommand(OpRead, byte(ZoneConfig), 0, nil),
			expected: []byte{0x03, 0x07, 0x02, 0x00, 0x00, 0x00, 0x1E, 0x2D},
		},
		{
			name:     "read otp word 4",
			req:      NewCommand(OpRead, byte(ZoneOTP), 4, nil),
			expected: []byte{0x03, 0x07, 0x02, 0x01, 0x04, 0x00, 0x1E, 0xE7},
		},
		{
			name:     "read otp block",
			req:      NewCommand(OpRead, byte(ZoneOTP)|readWide, 4, nil),
			expected: []byte{0x03, 0x07, 0x02, 0x81, 0x04, 0x00, 0x09, 0x67},
		},
		{
			name:     "sleep",
			req:      Request{Function: FuncSleep},
			expected: []byte{0x01},
		},
		{
			name:     "idle",
			req:      Request{Function: FuncIdle},
			expected: []byte{0x02},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := tt.req.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frame)
		})
	}
}

func TestRequest_EncodeWithData(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC}
	frame, err := NewCommand(Opcode(0x12), 0x01, 0x0203, data).Encode()
	require.NoError(t, err)
	require.Len(t, frame, requestOverhead+len(data)+1)
	assert.Equal(t, byte(len(frame)-1), frame[1])
	assert.Equal(t, []byte{0x03, 0x02}, frame[4:6], "param2 is little endian")
	assert.Equal(t, data, frame[6:9])
	crc := Checksum(frame[1 : len(frame)-2])
	assert.Equal(t, byte(crc), frame[len(frame)-2])
	assert.Equal(t, byte(crc>>8), frame[len(frame)-1])
}

func TestRequest_EncodeTooLarge(t *testing.T) {
	_, err := NewCommand(OpRead, 0, 0, make([]byte, maxRequestData+1)).Encode()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	_, err = NewCommand(OpRead, 0, 0, make([]byte, maxRequestData)).Encode()
	assert.NoError(t, err)
}

// queue serves successive reads from a list of chunks.
type queue struct {
	chunks [][]byte
	reads  int
}

func (q *queue) recv(p []byte) error {
	q.reads++
	if len(q.chunks) == 0 {
		return atsha.ErrNoAck
	}
	chunk := q.chunks[0]
	q.chunks = q.chunks[1:]
	if len(chunk) != len(p) {
		return errors.New("unexpected read size")
	}
	copy(p, chunk)
	return nil
}

func TestDecodeResponse(t *testing.T) {
	data := responseFrame(0x01, 0x02, 0x03, 0x04)
	tests := []struct {
		name   string
		chunks [][]byte
		reads  int
		err    error
		status Status
	}{
		{
			name:   "wake frame",
			chunks: [][]byte{wakeFrame},
			reads:  1,
			status: StatusAfterWake,
		},
		{
			name:   "data frame",
			chunks: [][]byte{data[:4], data[4:]},
			reads:  2,
			status: Status(0x01),
		},
		{
			name:   "checksum mismatch",
			chunks: [][]byte{corruptFrame},
			reads:  1,
			err:    ErrChecksum,
		},
		{
			name:   "too large stops after header",
			chunks: [][]byte{{0xFF, 0xFF, 0xFF, 0xFF}},
			reads:  1,
			err:    ErrFrameTooLarge,
		},
		{
			name:   "too short",
			chunks: [][]byte{{0x02, 0x00, 0x00, 0x00}},
			reads:  1,
			err:    ErrChecksum,
		},
		{
			name:  "no ack",
			reads: 1,
			err:   ErrTransport,
		},
		{
			name:   "truncated",
			chunks: [][]byte{data[:4]},
			reads:  2,
			err:    ErrTransport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &queue{chunks: tt.chunks}
			resp, err := DecodeResponse(q.recv)
			assert.Equal(t, tt.reads, q.reads)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status())
		})
	}
}

func TestDecodeResponse_MaxSize(t *testing.T) {
	frame := responseFrame(make([]byte, maxResponseSize-3)...)
	require.Len(t, frame, maxResponseSize)
	q := &queue{chunks: [][]byte{frame[:4], frame[4:]}}
	resp, err := DecodeResponse(q.recv)
	require.NoError(t, err)
	assert.Len(t, resp.Payload(), maxResponseSize-3)
}

func TestResponse_Payload(t *testing.T) {
	resp := Response(responseFrame(0xDE, 0xAD, 0xBE, 0xEF))
	assert.Equal(t, 7, resp.Len())
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, resp.Payload())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "after wake", StatusAfterWake.String())
	assert.Equal(t, "unknown (0x42)", Status(0x42).String())
}
