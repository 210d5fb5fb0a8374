// Package atsha204a talks to the Microchip ATSHA204A crypto authentication chip
// over I²C.
//
// The device sleeps until it sees a wake pulse (SDA held low for t_WLO), then
// answers framed commands whose integrity is protected by a 16-bit CRC. This
// package implements the wake/sleep procedure, the frame codec, a polling
// transaction engine and the zone read built on top of them.
//
// Typical usage:
//
//	dev := atsha204a.New(bus)
//	dev.Sleep(ctx) // put the chip in a known state
//	if err := dev.Wake(ctx); err != nil {
//		return err
//	}
//	word, err := dev.ReadZone(ctx, atsha204a.ZoneOTP, false, 4)
//	dev.Sleep(ctx)
//
// Datasheet reference: ATSHA204A (DS40002025), §5.3 I²C interface and §8.5.12 Read.
//
// Device methods are not safe for concurrent use; callers sharing a bus must
// serialize access.
package atsha204a
