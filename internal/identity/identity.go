// Package identity canonicalizes and validates user-supplied identity
// fields. Normalize is pure: it touches no external state and the same
// input always yields the same output.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/campusworks/winter-registry/internal/domain"
)

var (
	rollPattern  = regexp.MustCompile(`^\d{2}[A-Z]\d{3,5}$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Config holds the institutional email domain allow-list.
type Config struct {
	EmailDomains []string
}

// DefaultConfig returns the default institutional domain suffixes.
func DefaultConfig() Config {
	return Config{EmailDomains: []string{"@iitb.ac.in", "@iitbhu.ac.in", "@itbhu.ac.in"}}
}

// Input is the raw identity material from a registration request.
type Input struct {
	Identifier string
	Email      string
	RollNumber string
	Phone      string
}

// Identity is the canonical form of a validated Input. Identifier is the
// email when present, else the lowercased roll number.
type Identity struct {
	Identifier string
	Email      string
	RollNumber string
	Phone      string
}

// Normalize canonicalizes in and validates every field. The identifier is
// classified as email-shaped when it contains '@' and fills the email slot
// if that is empty; an identifier matching the roll pattern fills the roll
// slot likewise. At least one of email or roll number must survive
// normalization.
func Normalize(in Input, cfg Config) (Identity, error) {
	identifier := strings.ToLower(strings.TrimSpace(in.Identifier))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	roll := strings.ToUpper(strings.TrimSpace(in.RollNumber))
	phone := nonDigits.ReplaceAllString(in.Phone, "")

	if identifier == "" {
		return Identity{}, fmt.Errorf("%w: identifier is required", domain.ErrMissingField)
	}
	if phone == "" {
		return Identity{}, fmt.Errorf("%w: phone is required", domain.ErrMissingField)
	}

	if strings.Contains(identifier, "@") {
		if email == "" {
			email = identifier
		}
	} else if roll == "" && rollPattern.MatchString(strings.ToUpper(identifier)) {
		roll = strings.ToUpper(identifier)
	}

	if email == "" && roll == "" {
		return Identity{}, domain.ErrMissingContactMethod
	}

	if email != "" && !allowedDomain(email, cfg.EmailDomains) {
		return Identity{}, fmt.Errorf("%w: email must use an institutional address", domain.ErrInvalidFormat)
	}
	if roll != "" && !rollPattern.MatchString(roll) {
		return Identity{}, fmt.Errorf("%w: roll number must match pattern like 22B1234", domain.ErrInvalidFormat)
	}
	if !phonePattern.MatchString(phone) {
		return Identity{}, fmt.Errorf("%w: phone must be 10 digits starting with 6-9", domain.ErrInvalidFormat)
	}

	// Canonical key: email when present, else the roll number.
	canonical := email
	if canonical == "" {
		canonical = strings.ToLower(roll)
	}

	return Identity{
		Identifier: canonical,
		Email:      email,
		RollNumber: roll,
		Phone:      phone,
	}, nil
}

func allowedDomain(email string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(email, s) {
			return true
		}
	}
	return false
}
