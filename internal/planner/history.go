package planner

// History records which pairs of players already shared a court in earlier
// rounds of the session, split by whether they stood on the same or the
// opposite side of the net.
type History struct {
	partners  map[pairKey]bool
	opponents map[pairKey]bool
	// invalid is set when the source rows were structurally inconsistent;
	// the round then proceeds without repeat penalties.
	invalid bool
}

type pairKey struct {
	a, b string
}

func newPairKey(x, y string) pairKey {
	if x < y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{
		partners:  make(map[pairKey]bool),
		opponents: make(map[pairKey]bool),
	}
}

// AddMatch records the pairs of one earlier match from its slot layout.
// A slot map that is neither a valid doubles nor a valid singles layout
// marks the whole history inconsistent.
func (h *History) AddMatch(slots map[int]string) {
	switch len(slots) {
	case 4:
		a, aOK := slots[0]
		b, bOK := slots[1]
		c, cOK := slots[2]
		d, dOK := slots[3]
		if !aOK || !bOK || !cOK || !dOK {
			h.MarkInconsistent()
			return
		}
		h.addPartners(a, b)
		h.addPartners(c, d)
		h.addOpponents(a, c)
		h.addOpponents(a, d)
		h.addOpponents(b, c)
		h.addOpponents(b, d)
	case 2:
		a, aOK := slots[1]
		b, bOK := slots[2]
		if !aOK || !bOK {
			h.MarkInconsistent()
			return
		}
		h.addOpponents(a, b)
	default:
		h.MarkInconsistent()
	}
}

// MarkInconsistent disables repeat penalties for the round.
func (h *History) MarkInconsistent() {
	h.invalid = true
}

func (h *History) addPartners(x, y string) {
	if x == y {
		h.MarkInconsistent()
		return
	}
	h.partners[newPairKey(x, y)] = true
}

func (h *History) addOpponents(x, y string) {
	if x == y {
		h.MarkInconsistent()
		return
	}
	h.opponents[newPairKey(x, y)] = true
}

// repeatPenalty returns the cost of putting x and y on the same court
// again. Having been partners weighs heavier than having been opponents.
func (h *History) repeatPenalty(x, y string) float64 {
	if h == nil || h.invalid {
		return 0
	}
	key := newPairKey(x, y)
	if h.partners[key] {
		return partnerRepeatPenalty
	}
	if h.opponents[key] {
		return opponentRepeatPenalty
	}
	return 0
}
