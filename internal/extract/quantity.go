package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var spanishCardinals = map[string]int{
	"uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
}

var (
	inlineQtyRE   = regexp.MustCompile(`[xX]\s*(\d+)|(\d+)\s*(?:u(?:nidades?)?)?`)
	removalHintRE = regexp.MustCompile(`(?i)\b(quit[ao]|elimin[aá]|sac[aá]|borra|sin)\b`)
)

// Quantity normalizes a free-text quantity to a positive integer. It accepts
// an inline "x3" marker, a bare integer with optional unit suffix ("2",
// "2 u", "2 unidades"), or a Spanish cardinal word uno..diez. The second
// return is false when no quantity can be determined; callers drop the
// associated code in that case.
func Quantity(text string) (int, bool) {
	if m := inlineQtyRE.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if n, err := strconv.Atoi(g); err == nil {
				return n, true
			}
		}
	}
	if n, ok := spanishCardinals[strings.ToLower(strings.TrimSpace(text))]; ok {
		return n, true
	}
	return 0, false
}

// HasRemovalHint reports whether the text carries a removal verb ("quita",
// "elimina", "borra", "sin", ...). Callers use it to build the removals set
// handed to order consolidation.
func HasRemovalHint(text string) bool {
	return removalHintRE.MatchString(text)
}
