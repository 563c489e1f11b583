package normalize

import "strings"

// Phone strips formatting and canonicalizes US numbers to an 11-digit form
// with a leading country code. Anything else is a soft failure: the raw
// value is kept and flagged, never an error.
func Phone(raw string) (phone, rawPhone string, unparsed bool) {
	rawPhone = strings.TrimSpace(raw)
	if rawPhone == "" {
		return "", "", false
	}
	var digits strings.Builder
	for _, r := range rawPhone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	switch d := digits.String(); {
	case len(d) == 10:
		return "1" + d, rawPhone, false
	case len(d) == 11 && d[0] == '1':
		return d, rawPhone, false
	default:
		return "", rawPhone, true
	}
}
