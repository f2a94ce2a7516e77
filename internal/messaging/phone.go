package messaging

import "strings"

// NormalizeNumber reduces a WhatsApp JID or phone value to a bare number:
// the device suffix after ":" and the "@server" part are dropped, as is a
// leading "+". "34600111222:12@s.whatsapp.net" becomes "34600111222".
func NormalizeNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '@'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimPrefix(raw, "+")
}
