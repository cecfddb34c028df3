package rollhash

// buzhashTable is the fixed 256-entry constant table BuzHash mixes into its
// state, one entry per possible byte value. The table is part of the
// archive format: two implementations must produce the same table to stay
// wire-compatible. It is generated once, at package init, by a splitmix64
// key schedule seeded with a fixed constant, reproducible from the seed
// and algorithm alone.
var buzhashTable [256]uint32

// buzhashTableSeed is the fixed splitmix64 seed the table is derived from.
// Changing it would silently break archive compatibility with any other
// implementation of this format, so it is never configurable.
const buzhashTableSeed uint64 = 0x9E3779B97F4A7C15

func init() {
	s := buzhashTableSeed
	for i := range buzhashTable {
		s += 0x9E3779B97F4A7C15
		z := s
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		buzhashTable[i] = uint32(z) ^ uint32(z>>32)
	}
}
