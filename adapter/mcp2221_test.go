package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferToStatus(t *testing.T) {
	buf := make([]byte, 64)
	buf[9], buf[10] = 0x07, 0x00
	buf[11], buf[12] = 0x05, 0x00
	buf[13] = 2
	buf[14] = 117
	buf[15] = 3
	buf[16], buf[17] = 0xC8, 0x00
	buf[25] = 1

	status := bufferToStatus(buf)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   2,
		I2CSpeedDivider:        117,
		I2CTimeout:             3,
		CurrentAddress:         "c800",
		LastWriteRequestedSize: 7,
		LastWriteSentSize:      5,
		ReadPending:            1,
	}, status)
}

func TestSpeedDivider(t *testing.T) {
	tests := []struct {
		hz       int
		expected byte
		err      bool
	}{
		{hz: 100_000, expected: 117},
		{hz: 400_000, expected: 27},
		{hz: 0, err: true},
		{hz: 10_000, err: true},
	}
	for _, tt := range tests {
		div, err := speedDivider(tt.hz)
		if tt.err {
			assert.Error(t, err, "speed %d", tt.hz)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, div)
	}
}
