package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  User@Example.COM ")
	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	_, err = NormalizeEmail("")
	assert.Error(t, err)

	_, err = NormalizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("12345678"))
	assert.NoError(t, ValidatePassword(strings.Repeat("a", 128)))
	assert.Error(t, ValidatePassword(strings.Repeat("a", 129)))
}

func TestValidateName(t *testing.T) {
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("   "))
	assert.NoError(t, ValidateName("Garage"))
	assert.NoError(t, ValidateName(strings.Repeat("x", 255)))
	assert.Error(t, ValidateName(strings.Repeat("x", 256)))
}

func TestValidateDescription(t *testing.T) {
	assert.NoError(t, ValidateDescription(""))
	assert.NoError(t, ValidateDescription(strings.Repeat("x", 1000)))
	assert.Error(t, ValidateDescription(strings.Repeat("x", 1001)))
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags(nil))
	assert.NoError(t, ValidateTags([]string{"tools", "fragile"}))

	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = "tag"
	}
	assert.Error(t, ValidateTags(eleven))

	assert.Error(t, ValidateTags([]string{""}))
	assert.Error(t, ValidateTags([]string{"  "}))
	assert.Error(t, ValidateTags([]string{strings.Repeat("x", 51)}))
	assert.Error(t, ValidateTags([]string{"a,b"}))
}

func TestValidateQRShortID(t *testing.T) {
	valid := []string{"QR-7GK2ZX", "QR-000000", "QR-ZZZZZZ", "QR-A1B2C3"}
	for _, shortID := range valid {
		assert.NoError(t, ValidateQRShortID(shortID), shortID)
	}

	invalid := []string{
		"",
		"QR-",
		"QR-7GK2Z",    // too short
		"QR-7GK2ZXX",  // too long
		"qr-7GK2ZX",   // lowercase prefix
		"QR-7gk2zx",   // lowercase body
		"BX-7GK2ZX",   // wrong prefix
		"QR_7GK2ZX",   // wrong separator
		" QR-7GK2ZX",  // leading space
		"QR-7GK2ZX ",  // trailing space
		"QR-7GK-2ZX",  // embedded dash
	}
	for _, shortID := range invalid {
		assert.Error(t, ValidateQRShortID(shortID), shortID)
	}
}

func TestValidateSearchQuery(t *testing.T) {
	assert.NoError(t, ValidateSearchQuery(""))
	assert.NoError(t, ValidateSearchQuery("   "))
	assert.Error(t, ValidateSearchQuery("ab"))
	assert.Error(t, ValidateSearchQuery(" ab "))
	assert.NoError(t, ValidateSearchQuery("abc"))
}

func TestValidateBatchQuantity(t *testing.T) {
	assert.Error(t, ValidateBatchQuantity(0))
	assert.NoError(t, ValidateBatchQuantity(1))
	assert.NoError(t, ValidateBatchQuantity(100))
	assert.Error(t, ValidateBatchQuantity(101))
	assert.Error(t, ValidateBatchQuantity(-5))
}

func TestValidateThemePreference(t *testing.T) {
	for _, theme := range []string{"light", "dark", "system"} {
		assert.NoError(t, ValidateThemePreference(theme))
	}
	assert.Error(t, ValidateThemePreference("solarized"))
	assert.Error(t, ValidateThemePreference(""))
}
