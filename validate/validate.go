// Package validate holds the pure credential format checks shared by the
// registration flows. Functions here never touch storage: they either return
// a normalized value or a typed failure the caller can aggregate per field.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidDomain signals an email outside the university domain.
	ErrInvalidDomain = errors.New("validate: email must be an slu.edu.ph address")
	// ErrInvalidFormat signals a value that does not match the expected shape.
	ErrInvalidFormat = errors.New("validate: invalid format")
)

var (
	emailRe   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@slu\.edu\.ph$`)
	phoneRe   = regexp.MustCompile(`^(09\d{9}|639\d{9})$`)
	licenseRe = regexp.MustCompile(`^[A-Z]\d{2}-\d{2}-\d{6}$`)
	plateRe   = regexp.MustCompile(`^[A-Z0-9]{2,3}-[A-Z0-9]{3,4}$`)
)

// Email accepts only addresses in the university domain, case-insensitively,
// and returns the address lowercased.
func Email(raw string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(addr) {
		return "", ErrInvalidDomain
	}
	return addr, nil
}

// Phone accepts Philippine mobile numbers in local (09XXXXXXXXX) or
// international (+639XXXXXXXXX / 639XXXXXXXXX) form. Spaces, dashes and
// parentheses are stripped; the normalized local digit string is returned.
func Phone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if !phoneRe.MatchString(digits) {
		return "", ErrInvalidFormat
	}
	// Canonical form is the local 09XXXXXXXXX spelling.
	if strings.HasPrefix(digits, "639") {
		digits = "0" + digits[2:]
	}
	return digits, nil
}

// Password strength rules. Every rule is evaluated independently so a caller
// can surface the complete set of violations in one pass.
const (
	RuleMinLength = "must be at least 8 characters"
	RuleUppercase = "must contain an uppercase letter"
	RuleLowercase = "must contain a lowercase letter"
	RuleDigit     = "must contain a digit"
	RuleSpecial   = "must contain a special character"
)

// Password returns every unmet strength rule. An empty slice means the
// password is acceptable. It never stops at the first violation.
func Password(pw string) []string {
	var (
		hasUpper, hasLower, hasDigit, hasSpecial bool
	)
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	var unmet []string
	if len(pw) < 8 {
		unmet = append(unmet, RuleMinLength)
	}
	if !hasUpper {
		unmet = append(unmet, RuleUppercase)
	}
	if !hasLower {
		unmet = append(unmet, RuleLowercase)
	}
	if !hasDigit {
		unmet = append(unmet, RuleDigit)
	}
	if !hasSpecial {
		unmet = append(unmet, RuleSpecial)
	}
	return unmet
}

// LicenseNumber accepts LTO license numbers shaped like A12-34-567890:
// one uppercase letter, two digits, dash, two digits, dash, six digits.
func LicenseNumber(raw string) (string, error) {
	lic := strings.TrimSpace(raw)
	if !licenseRe.MatchString(lic) {
		return "", ErrInvalidFormat
	}
	return lic, nil
}

// PlateNumber accepts plates shaped like ABC-1234 or AB-123: two or three
// alphanumerics, dash, three or four alphanumerics, case-insensitively.
// The canonical uppercase spelling is returned.
func PlateNumber(raw string) (string, error) {
	plate := strings.ToUpper(strings.TrimSpace(raw))
	if !plateRe.MatchString(plate) {
		return "", ErrInvalidFormat
	}
	return plate, nil
}
