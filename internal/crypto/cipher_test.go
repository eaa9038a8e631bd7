package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("top-secret", "")
	require.NoError(t, err)

	sealed, err := c.Encrypt("api-key-123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1."))
	assert.NotContains(t, sealed, "api-key-123")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "api-key-123", plain)
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, err := NewCipher("top-secret", "salt")
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_WrongSecret(t *testing.T) {
	c1, err := NewCipher("secret-one", "salt")
	require.NoError(t, err)
	c2, err := NewCipher("secret-two", "salt")
	require.NoError(t, err)

	sealed, err := c1.Encrypt("payload")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	assert.Error(t, err)
}

func TestCipher_Malformed(t *testing.T) {
	c, err := NewCipher("secret", "salt")
	require.NoError(t, err)

	_, err = c.Decrypt("no-separator")
	assert.ErrorIs(t, err, ErrMalformedSealed)

	_, err = c.Decrypt("v9.abc")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = c.Decrypt("v1.")
	assert.ErrorIs(t, err, ErrMalformedSealed)
}

func TestNewCipher_EmptySecret(t *testing.T) {
	_, err := NewCipher("  ", "salt")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
