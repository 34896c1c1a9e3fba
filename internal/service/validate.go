package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// field describes how one string input is cleaned: trimmed, truncated to max
// runes, and reported when required and empty afterwards.
type field struct {
	name     string
	value    *string
	max      int
	required bool
}

// applyFields normalizes every field in place and returns the names of the
// required ones that ended up empty, in table order.
func applyFields(fields []field) (missing []string) {
	for _, f := range fields {
		*f.value = clean(*f.value, f.max)
		if f.required && *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func clean(s string, limit int) string {
	return truncate(strings.TrimSpace(s), limit)
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// alnumOnly drops every rune outside [A-Za-z0-9].
func alnumOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

const (
	maxEmailLen       = 255
	minPasswordLen    = 8
	maxPasswordBytes  = 72
	maxUsernameLen    = 100
	maxIPLen          = 45
	maxUserAgentLen   = 500
	maxProductIDLen   = 255
	maxProductNameLen = 500
	maxImageLen       = 500
	maxOrderIDLen     = 50
	maxNameLen        = 100
	maxAddressLen     = 500
	maxCityLen        = 100
	maxStateLen       = 100
	maxPostcodeLen    = 20
	maxPhoneLen       = 50
	maxSlugLen        = 255
	maxQty            = math.MaxInt32
)

// maxAmount is the largest magnitude a NUMERIC(12,2) column holds.
var maxAmount = decimal.RequireFromString("9999999999.99")

func amountInRange(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(maxAmount)
}

var validate = validator.New()

func validateEmail(email string) []string {
	switch {
	case email == "":
		return []string{"email is required"}
	case utf8.RuneCountInString(email) > maxEmailLen:
		return []string{"email must be at most 255 characters"}
	case validate.Var(email, "email") != nil:
		return []string{"a valid email address is required"}
	}
	return nil
}

// validatePassword reports every policy rule the password breaks.
func validatePassword(pw string) []string {
	var problems []string
	if utf8.RuneCountInString(pw) < minPasswordLen {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(pw) > maxPasswordBytes {
		problems = append(problems, "password must be at most 72 bytes")
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !upper {
		problems = append(problems, "password must include an uppercase letter")
	}
	if !lower {
		problems = append(problems, "password must include a lowercase letter")
	}
	if !digit {
		problems = append(problems, "password must include a number")
	}
	if !special {
		problems = append(problems, "password must include a special character")
	}
	return problems
}
