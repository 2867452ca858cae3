package mathx

// Lerp maps fraction f of the closed interval [lo, hi]. The explicit
// conversion forces rounding of the product so the result never depends on
// whether the platform fuses multiply-add.
func Lerp(lo, hi, f float64) float64 {
	return lo + float64(f*(hi-lo))
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 mixes a seed with two integer coordinates into a well-spread value.
func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
