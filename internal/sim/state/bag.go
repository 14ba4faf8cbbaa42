package state

const (
	// MaxAmount bounds a single transfer of one resource.
	MaxAmount = 1_000_000
	// MaxStock is where a stockpile saturates.
	MaxStock = 1_000_000_000
)

// Bag is a resource amount table. Missing keys read as zero.
type Bag map[Resource]int

func NewBag(each int) Bag {
	b := Bag{}
	for _, r := range Resources {
		b[r] = each
	}
	return b
}

func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Covers reports whether b holds at least cost of every resource.
func (b Bag) Covers(cost Bag) bool {
	for r, n := range cost {
		if n > 0 && b[r] < n {
			return false
		}
	}
	return true
}

// Pay deducts cost from b when affordable. It is all-or-nothing.
func (b Bag) Pay(cost Bag) bool {
	if !b.Covers(cost) {
		return false
	}
	for r, n := range cost {
		if n > 0 {
			b[r] -= n
		}
	}
	return true
}

func (b Bag) Add(r Resource, n int) {
	if n <= 0 {
		return
	}
	if n >= MaxStock-b[r] {
		b[r] = MaxStock
		return
	}
	b[r] += n
}

// Take removes up to n of r, clamping at zero, and returns what was removed.
func (b Bag) Take(r Resource, n int) int {
	if n <= 0 {
		return 0
	}
	have := b[r]
	if n > have {
		n = have
	}
	b[r] = have - n
	return n
}

// Missing returns the per-resource shortfall of b against cost.
func (b Bag) Missing(cost Bag) Bag {
	out := Bag{}
	for r, n := range cost {
		if d := n - b[r]; d > 0 {
			out[r] = d
		}
	}
	return out
}

func (b Bag) Sum() int {
	s := 0
	for _, r := range Resources {
		s += b[r]
	}
	return s
}
