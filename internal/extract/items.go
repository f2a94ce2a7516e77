package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Pair is one raw (product code, quantity) pair as the model emitted it.
// Quantities stay strings at this stage; numeric validation happens later.
type Pair struct {
	Code string
	Qty  string
}

var (
	embeddedItemsRE = regexp.MustCompile(`(?s)\{\s*"items"\s*:\s*(\[.*?\])\s*\}`)
	bracketPairRE   = regexp.MustCompile(`\[\s*"([^"]+)"\s*,\s*"([^"]*)"\s*\]`)
)

// Items parses the raw output of the product-extraction prompt into pairs.
// Three strategies are tried in order; the first that yields a result wins:
//
//  1. the whole text is a JSON object with an "items" array of string pairs
//  2. an "items" object is embedded somewhere in surrounding model chatter
//  3. bare ["code", "qty"] bracket patterns anywhere in the text
//
// A nil result means no items could be recovered. That is not the same as
// "the message is not an order"; intent is classified separately.
func Items(raw string) []Pair {
	if pairs, ok := itemsFromJSON(raw); ok {
		return pairs
	}
	if pairs, ok := itemsFromEmbedded(raw); ok {
		return pairs
	}
	return itemsFromBrackets(raw)
}

func itemsFromJSON(raw string) ([]Pair, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}
	arrRaw, present := obj["items"]
	if !present {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(arrRaw, &arr); err != nil {
		return nil, false
	}
	var out []Pair
	for _, el := range arr {
		var pair []string
		if err := json.Unmarshal(el, &pair); err != nil || len(pair) != 2 {
			continue
		}
		out = append(out, Pair{Code: strings.TrimSpace(pair[0]), Qty: strings.TrimSpace(pair[1])})
	}
	return out, true
}

func itemsFromEmbedded(raw string) ([]Pair, bool) {
	m := embeddedItemsRE.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(m[1]))
	dec.UseNumber()
	var arr []any
	if err := dec.Decode(&arr); err != nil {
		return nil, false
	}
	var out []Pair
	for _, el := range arr {
		pair, isSeq := el.([]any)
		if !isSeq || len(pair) != 2 {
			continue
		}
		out = append(out, Pair{
			Code: strings.TrimSpace(coerceString(pair[0])),
			Qty:  strings.TrimSpace(coerceString(pair[1])),
		})
	}
	return out, true
}

func itemsFromBrackets(raw string) []Pair {
	matches := bracketPairRE.FindAllStringSubmatch(raw, -1)
	if matches == nil {
		return nil
	}
	out := make([]Pair, 0, len(matches))
	for _, m := range matches {
		out = append(out, Pair{Code: strings.TrimSpace(m[1]), Qty: strings.TrimSpace(m[2])})
	}
	return out
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
