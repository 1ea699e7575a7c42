package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword("correct horse battery staple", hash))
	assert.False(t, CheckPassword("wrong password", hash))
}

func TestGenerateShortIDFormat(t *testing.T) {
	qrPattern := regexp.MustCompile(`^QR-[A-Z0-9]{6}$`)
	bxPattern := regexp.MustCompile(`^BX-[A-Z0-9]{6}$`)

	for i := 0; i < 50; i++ {
		qr, err := GenerateShortID("QR")
		require.NoError(t, err)
		assert.Regexp(t, qrPattern, qr)

		bx, err := GenerateShortID("BX")
		require.NoError(t, err)
		assert.Regexp(t, bxPattern, bx)
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token, err := GenerateRandomToken(16)
	require.NoError(t, err)
	assert.Len(t, token, 32) // hex doubles the byte length

	other, err := GenerateRandomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
