package order

// Snapshot is the customer's currently-understood cart: an ordered mapping
// from product code to quantity. It is rebuilt per message from consolidation
// and never stored; order history lives only in the conversation itself.
type Snapshot struct {
	codes []string
	qty   map[string]int
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{qty: make(map[string]int)}
}

// Set records a quantity for a code, overwriting any prior value. A code keeps
// its original position when overwritten; new codes append.
func (s *Snapshot) Set(code string, quantity int) {
	if _, exists := s.qty[code]; !exists {
		s.codes = append(s.codes, code)
	}
	s.qty[code] = quantity
}

// Get returns the quantity for a code.
func (s *Snapshot) Get(code string) (int, bool) {
	q, ok := s.qty[code]
	return q, ok
}

// Delete removes a code from the snapshot.
func (s *Snapshot) Delete(code string) {
	if _, exists := s.qty[code]; !exists {
		return
	}
	delete(s.qty, code)
	for i, c := range s.codes {
		if c == code {
			s.codes = append(s.codes[:i], s.codes[i+1:]...)
			break
		}
	}
}

// Len reports how many codes the snapshot holds.
func (s *Snapshot) Len() int {
	return len(s.codes)
}

// Items returns the snapshot content in insertion order.
func (s *Snapshot) Items() []LineItem {
	out := make([]LineItem, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, LineItem{Code: c, Quantity: s.qty[c]})
	}
	return out
}

func (s *Snapshot) clone() *Snapshot {
	out := NewSnapshot()
	for _, c := range s.codes {
		out.Set(c, s.qty[c])
	}
	return out
}

// Consolidate merges newly extracted items into a prior snapshot. Removals
// are applied first, then each item overwrites in extraction order, so the
// last occurrence of a code wins (quantities replace, they never add).
// Entries with non-positive quantities are filtered out of the result.
// Codes are case-sensitive here; normalization belongs to the catalog at
// render time, not to consolidation.
func Consolidate(items []LineItem, prior *Snapshot, removals map[string]bool) *Snapshot {
	var result *Snapshot
	if prior != nil {
		result = prior.clone()
	} else {
		result = NewSnapshot()
	}
	for code := range removals {
		result.Delete(code)
	}
	for _, item := range items {
		result.Set(item.Code, item.Quantity)
	}
	for _, code := range append([]string(nil), result.codes...) {
		if result.qty[code] <= 0 {
			result.Delete(code)
		}
	}
	return result
}
