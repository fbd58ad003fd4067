package protocol

// MaxVarintLen is the maximum number of bytes a uint64 varint can occupy.
const MaxVarintLen = 10

// UvarintLen returns the number of bytes needed to encode v as a varint.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

// zigzag maps signed integers to unsigned: 0->0, -1->1, 1->2, -2->3.
func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag(uv uint64) int64 {
	v := int64(uv >> 1)
	if uv&1 != 0 {
		v = ^v
	}
	return v
}
