package normalize

import "strings"

// Email canonicalizes an email address to lowercase. Invalid addresses are
// retained in raw form and flagged rather than rejected, so the record can
// still be resolved on its other fields.
func Email(raw string) (email, rawEmail string, invalid bool) {
	rawEmail = strings.TrimSpace(raw)
	if rawEmail == "" {
		return "", "", false
	}
	candidate := strings.ToLower(rawEmail)
	at := strings.Index(candidate, "@")
	if at <= 0 || at == len(candidate)-1 {
		return "", rawEmail, true
	}
	return candidate, rawEmail, false
}
