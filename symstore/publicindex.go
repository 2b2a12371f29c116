package symstore

// publicAddressIndex maps an exact module-relative address to the public
// symbols registered at that address (spec 3/4.5).
type publicAddressIndex struct {
	byAddr map[uint64][]uint32
}

func newPublicAddressIndex() *publicAddressIndex {
	return &publicAddressIndex{byAddr: make(map[uint64][]uint32)}
}

func (p *publicAddressIndex) add(addr uint64, id uint32) {
	list := p.byAddr[addr]
	for _, x := range list {
		if x == id {
			return
		}
	}

	p.byAddr[addr] = append(list, id)
}

func (p *publicAddressIndex) remove(addr uint64, id uint32) {
	list := p.byAddr[addr]
	for i, x := range list {
		if x == id {
			p.byAddr[addr] = append(list[:i], list[i+1:]...)
			if len(p.byAddr[addr]) == 0 {
				delete(p.byAddr, addr)
			}

			return
		}
	}
}

func (p *publicAddressIndex) at(addr uint64) []uint32 {
	list := p.byAddr[addr]
	if len(list) == 0 {
		return nil
	}

	out := make([]uint32, len(list))
	copy(out, list)

	return out
}
