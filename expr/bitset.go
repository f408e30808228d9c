package expr

// bitset is a dense set of NodeIDs.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(id NodeID)      { b[id>>6] |= 1 << (uint(id) & 63) }
func (b bitset) has(id NodeID) bool { return b[id>>6]&(1<<(uint(id)&63)) != 0 }
