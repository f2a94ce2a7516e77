package order

import (
	"errors"
	"strings"
)

// ErrMalformedOrder marks a confirmed-order payload the formatters cannot
// convert: a missing or repeated "PEDIDO:" marker, no tokens, or an odd token
// count where (code, quantity) pairs were expected. This is a hard failure
// for the one conversion step; it never suppresses the chat reply already
// sent.
var ErrMalformedOrder = errors.New("order: malformed confirmed order payload")

// ConfirmedLine is one (code, quantity) pair re-parsed from a confirmed
// order summary. Values stay as rendered; the summary is the source of truth
// at this point, not the catalog.
type ConfirmedLine struct {
	Code     string
	Quantity string
}

// ParseConfirmed re-parses a confirmed "PEDIDO:" summary into its pairs.
// Tokens are backslash-delimited, whitespace-trimmed runs; they must pair up
// positionally as (code, quantity).
func ParseConfirmed(text string) ([]ConfirmedLine, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if strings.Count(lower, orderPrefix) != 1 {
		return nil, ErrMalformedOrder
	}
	payload := strings.TrimSpace(text[strings.Index(lower, orderPrefix)+len(orderPrefix):])

	var tokens []string
	for _, tok := range strings.Split(payload, `\`) {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 || len(tokens)%2 != 0 {
		return nil, ErrMalformedOrder
	}

	lines := make([]ConfirmedLine, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		lines = append(lines, ConfirmedLine{Code: tokens[i], Quantity: tokens[i+1]})
	}
	return lines, nil
}
