package hrm

// DecodeBandAdvert extracts a BPM from one manufacturer-specific data blob
// broadcast by a Xiaomi Smart Band. The reading sits in the fourth byte;
// shorter blobs or values outside (0, 300) are not heart rate broadcasts.
func DecodeBandAdvert(data []byte) (int, bool) {
	if len(data) < 4 {
		return 0, false
	}
	bpm := int(data[3])
	if bpm <= 0 || bpm >= 300 {
		return 0, false
	}
	return bpm, true
}
