package symstore

// dependents tracks the set of symbol ids that must be notified when the
// owning symbol changes, with a reference count per dependent (spec 3:
// "a set of dependents with a reference count per dependent") and stable
// insertion-order iteration (spec 5: "the order in which sibling
// dependents are notified follows insertion order into the dependents
// map").
type dependents struct {
	order []uint32
	refs  map[uint32]int
}

// add registers depID as a dependent, incrementing its reference count.
// Called once per reference a symbol holds to the named symbol (spec 3).
func (d *dependents) add(depID uint32) {
	if d.refs == nil {
		d.refs = make(map[uint32]int)
	}

	if d.refs[depID] == 0 {
		d.order = append(d.order, depID)
	}

	d.refs[depID]++
}

// remove unregisters exactly one matching reference from depID. When the
// refcount reaches zero the dependent is fully removed and no longer
// iterated.
func (d *dependents) remove(depID uint32) {
	if d.refs == nil || d.refs[depID] == 0 {
		return
	}

	d.refs[depID]--
	if d.refs[depID] > 0 {
		return
	}

	delete(d.refs, depID)

	for i, id := range d.order {
		if id == depID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// has reports whether depID currently holds at least one reference.
func (d *dependents) has(depID uint32) bool {
	return d.refs != nil && d.refs[depID] > 0
}

// count returns the number of live dependents (not the sum of refcounts).
func (d *dependents) count() int {
	return len(d.order)
}
