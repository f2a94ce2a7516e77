package chatlog

import "strings"

// DigitsOnly strips everything but digits from a phone number.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhonesMatchFuzzy compares two phone numbers by digits only. It accepts
// containment in either direction and suffix matches in either direction,
// because stored numbers and wire identities disagree on country prefixes
// and device suffixes. The leniency is deliberate and downstream code
// depends on it; short numbers can false-positive.
func PhonesMatchFuzzy(a, b string) bool {
	da, db := DigitsOnly(a), DigitsOnly(b)
	if da == "" || db == "" {
		return false
	}
	return strings.Contains(db, da) || strings.Contains(da, db) ||
		strings.HasSuffix(da, db) || strings.HasSuffix(db, da)
}
