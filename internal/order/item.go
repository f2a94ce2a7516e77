package order

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kapalua/ordersbot/internal/extract"
)

var codeRE = regexp.MustCompile(`^[A-Za-z0-9-]{2,32}$`)

// LineItem is one validated (product code, quantity) pair. Quantity is
// always positive; items that would violate that are dropped upstream, never
// stored as zero.
type LineItem struct {
	Code     string
	Quantity int
}

// Validate enforces the line-item invariants.
func (li LineItem) Validate() error {
	if !codeRE.MatchString(li.Code) {
		return fmt.Errorf("order: invalid product code %q", li.Code)
	}
	if li.Quantity < 1 {
		return fmt.Errorf("order: non-positive quantity %d for %s", li.Quantity, li.Code)
	}
	return nil
}

// FromPairs converts raw extracted pairs into validated line items. Pairs
// whose quantity cannot be normalized to a positive integer, or whose code
// fails validation, are dropped. Extraction order is preserved.
func FromPairs(pairs []extract.Pair) []LineItem {
	var out []LineItem
	for _, p := range pairs {
		qty, ok := extract.Quantity(p.Qty)
		if !ok {
			continue
		}
		item := LineItem{Code: strings.TrimSpace(p.Code), Quantity: qty}
		if item.Validate() != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}
