package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// Canonical field bounds. The service enforces a single bound per
// field; endpoint-specific variants are deliberately not supported.
const (
	MinPasswordLength   = 8
	MaxPasswordLength   = 128
	MaxNameLength       = 255
	MaxDescriptionLen   = 1000
	MaxTags             = 10
	MaxTagLength        = 50
	MinSearchQueryLen   = 3
	MinBatchQuantity    = 1
	MaxBatchQuantity    = 100
	MaxLocationDepth    = 5
	MaxLocationChildren = 100
)

var qrShortIDPattern = regexp.MustCompile(`^QR-[A-Z0-9]{6}$`)

// FieldErrors maps a field name to the first violated rule message.
// Only the first error per field is retained.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// AddError records err for field if err is non-nil. Returns true when
// an error was recorded.
func (fe FieldErrors) AddError(field string, err error) bool {
	if err == nil {
		return false
	}
	fe.Add(field, err.Error())
	return true
}

// HasErrors reports whether any field failed validation
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// NormalizeEmail trims, lowercases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

// ValidatePassword enforces the password length bounds
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must be at most 128 characters")
	}
	return nil
}

// ValidateName checks a workspace, location or box name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	if len(name) > MaxNameLength {
		return errors.New("name must be at most 255 characters")
	}
	return nil
}

// ValidateDescription checks an optional description
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLen {
		return errors.New("description must be at most 1000 characters")
	}
	return nil
}

// ValidateTags checks the tag count and per-tag length
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return errors.New("at most 10 tags are allowed")
	}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			return errors.New("tags cannot be empty")
		}
		if len(trimmed) > MaxTagLength {
			return errors.New("each tag must be at most 50 characters")
		}
		if strings.Contains(tag, ",") {
			return errors.New("tags cannot contain commas")
		}
	}
	return nil
}

// ValidateQRShortID checks the exact QR short id format QR-XXXXXX
func ValidateQRShortID(shortID string) error {
	if !qrShortIDPattern.MatchString(shortID) {
		return errors.New("invalid QR code format, expected QR- followed by 6 uppercase alphanumerics")
	}
	return nil
}

// ValidateSearchQuery requires at least 3 characters when non-empty
func ValidateSearchQuery(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if len(query) < MinSearchQueryLen {
		return errors.New("search query must be at least 3 characters")
	}
	return nil
}

// ValidateBatchQuantity bounds a QR batch request
func ValidateBatchQuantity(quantity int) error {
	if quantity < MinBatchQuantity || quantity > MaxBatchQuantity {
		return errors.New("quantity must be between 1 and 100")
	}
	return nil
}

// ValidateThemePreference checks the profile theme value
func ValidateThemePreference(theme string) error {
	switch theme {
	case "light", "dark", "system":
		return nil
	}
	return errors.New("theme must be one of: light, dark, system")
}
