package extract

import (
	"encoding/json"
	"regexp"
)

// The chat prompt instructs the model to answer with either
// {"responder": false} or {"responder": true, "respuesta": "..."}.
var replyRE = regexp.MustCompile(`(?s)"responder"\s*:\s*true\s*,\s*"respuesta"\s*:\s*"(.*?)"\s*\}`)

// ReplyText extracts the customer-facing reply from the chat-decision output.
// The second return is false when the model declined to answer or produced
// nothing usable; in that case nothing must be sent.
func ReplyText(raw string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		if responder, _ := obj["responder"].(bool); responder {
			if respuesta, isStr := obj["respuesta"].(string); isStr {
				return respuesta, true
			}
		}
	}
	// Tolerant fallback: the same keys with model chatter or raw newlines
	// embedded in the response text.
	if m := replyRE.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}

var orderTrueRE = regexp.MustCompile(`(?i)"order"\s*:\s*true`)

// IsOrder reports whether the intent classifier marked the message as a real
// order. The prompt is instructed to emit exactly `"order": true`; scanning
// for the token is deliberately more robust than parsing the whole reply.
func IsOrder(raw string) bool {
	return orderTrueRE.MatchString(raw)
}

var confirmationRE = regexp.MustCompile(`(?i)es\s*correct[oa]*`)

// IsConfirmation reports whether a customer message affirms a previously sent
// order summary ("es correcto" and close variants).
func IsConfirmation(message string) bool {
	return confirmationRE.MatchString(message)
}
