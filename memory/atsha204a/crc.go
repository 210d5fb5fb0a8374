package atsha204a

import "math/bits"

// crcPolynomial is 0x8005 in its reflected form; the device shifts data LSB first.
const crcPolynomial = 0xA001

// Checksum computes the device CRC-16 over data. The chip transmits the register
// bit-reversed, so the reflected CRC is reversed before it is put on the wire
// (little-endian).
//
// After wake-up the chip returns 04 11 33 43, hence Checksum([]byte{0x04, 0x11}) == 0x4333.
func Checksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return bits.Reverse16(crc)
}
