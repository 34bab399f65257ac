// Package phone canonicalizes Brazilian phone numbers for comparison,
// display, and dialing through the WhatsApp gateway.
package phone

import "strings"

// countryCode is the Brazilian country calling code sometimes present
// before the national number.
const countryCode = "55"

// dialablePrefix is the literal carrier prefix the gateway expects on
// outbound dial strings.
const dialablePrefix = "021"

// Normalize strips every non-digit character. Empty input yields empty output.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidRegionalNumber reports whether the number has 10 or 11 significant
// digits after stripping the country code. Pure length heuristic: area-code
// ranges and check digits are not validated.
func IsValidRegionalNumber(raw string) bool {
	digits := stripCountryCode(Normalize(raw))
	return len(digits) == 10 || len(digits) == 11
}

// FormatRegional renders a display form: (DD) NNNNN-NNNN for 11 digits,
// (DD) NNNN-NNNN for 10, NNNN-NNNN over the last 8 digits when at least 8
// remain, and the untouched input otherwise.
func FormatRegional(raw string) string {
	digits := stripCountryCode(Normalize(raw))
	switch {
	case len(digits) == 11:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	case len(digits) == 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	case len(digits) >= 8:
		last := digits[len(digits)-8:]
		return last[:4] + "-" + last[4:]
	default:
		return raw
	}
}

// DialablePrefixForm normalizes, strips the country code and prepends the
// fixed carrier prefix. The resulting length is not validated.
func DialablePrefixForm(raw string) string {
	return dialablePrefix + stripCountryCode(Normalize(raw))
}

func stripCountryCode(digits string) string {
	if strings.HasPrefix(digits, countryCode) && len(digits) > len(countryCode) {
		return digits[len(countryCode):]
	}
	return digits
}
