package notify

import "strings"

// NormalizePhone converts a user-entered number into the digits-only international
// form the provider expects. An explicit "+" means the number already carries its
// country code; otherwise leading zeros are dropped and a bare 10 digit national
// number gets countryPrefix.
func NormalizePhone(raw, countryPrefix string) string {
	raw = strings.TrimSpace(raw)
	international := strings.HasPrefix(raw, "+")

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if international {
		return digits
	}

	digits = strings.TrimLeft(digits, "0")
	if len(digits) == 10 && countryPrefix != "" && !strings.HasPrefix(digits, countryPrefix) {
		digits = countryPrefix + digits
	}
	return digits
}
