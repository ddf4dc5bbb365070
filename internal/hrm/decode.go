// Package hrm decodes the standard Heart Rate Measurement characteristic
// (Bluetooth GATT 0x2A37) payload into a BPM value.
package hrm

import (
	"encoding/binary"
	"fmt"
)

// flagBPM16 is bit 0 of the flags byte: when set, the BPM field is a
// 16-bit little-endian value instead of an 8-bit one.
const flagBPM16 = 0x01

// Decode extracts the BPM from a raw heart rate measurement payload.
// It returns the value as-is — zero or implausible readings are for the
// caller to judge. Payloads shorter than the width announced by the flags
// byte are an error; there is no partial decode.
func Decode(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("decode heart rate: payload too short (%d bytes)", len(data))
	}

	if data[0]&flagBPM16 != 0 {
		if len(data) < 3 {
			return 0, fmt.Errorf("decode heart rate: 16-bit payload too short (%d bytes)", len(data))
		}
		return int(binary.LittleEndian.Uint16(data[1:3])), nil
	}

	return int(data[1]), nil
}
