package order

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kapalua/ordersbot/internal/chatlog"
)

// orderTokenRE matches the backslash-delimited tokens of a rendered summary:
// "PEDIDO: \8741 \2 \GFT543 \3".
var orderTokenRE = regexp.MustCompile(`\\\S+`)

// minOrderTokens is the smallest token count a sent message needs to count
// as a real order summary (two code/quantity pairs) rather than noise.
const minOrderTokens = 4

const orderPrefix = "pedido:"

// FindConfirmed scans a trailing history window for a confirmed order. It
// walks newest-first: first it locates the most recent customer turn
// containing "es correcto", then keeps walking backward for the nearest sent
// turn that starts with "pedido:" and carries at least two code/quantity
// token pairs. Recency wins; the first valid candidate stops the scan.
//
// The raw summary text is returned unparsed; downstream formatters re-parse
// it with ParseConfirmed and apply their own stricter validation.
func FindConfirmed(history []chatlog.Turn) (string, bool) {
	confirmIdx := -1
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if t.Direction == chatlog.DirectionReceived &&
			strings.Contains(strings.ToLower(t.Content), "es correcto") {
			confirmIdx = i
			break
		}
	}
	if confirmIdx < 0 {
		return "", false
	}

	for i := confirmIdx - 1; i >= 0; i-- {
		t := history[i]
		if t.Direction != chatlog.DirectionSent {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(t.Content)), orderPrefix) {
			continue
		}
		if len(orderTokenRE.FindAllString(t.Content, -1)) >= minOrderTokens {
			return t.Content, true
		}
	}
	return "", false
}

// LatestSummary recovers the pending order state from the most recent sent
// summary in the window, so a correction message can be consolidated against
// it. Summaries that fail to re-parse are skipped, not surfaced; a miss
// returns nil.
func LatestSummary(history []chatlog.Turn) *Snapshot {
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if t.Direction != chatlog.DirectionSent {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(t.Content)), orderPrefix) {
			continue
		}
		lines, err := ParseConfirmed(t.Content)
		if err != nil {
			continue
		}
		snap := NewSnapshot()
		for _, line := range lines {
			if qty, err := strconv.Atoi(line.Quantity); err == nil {
				snap.Set(line.Code, qty)
			}
		}
		if snap.Len() > 0 {
			return snap
		}
	}
	return nil
}
