package cryptox

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBox(t *testing.T) *SecretBox {
	t.Helper()
	b, err := NewSecretBox(common.GenerateRandByteArray(KeySize))
	require.NoError(t, err)
	return b
}

func TestSecretBox_RoundTrip(t *testing.T) {
	b := newBox(t)

	sealed, err := b.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "JBSWY3DPEHPK3PXP")

	again, err := b.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must be fresh per call")

	plain, err := b.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)
}

func TestSecretBox_PlaintextPassthrough(t *testing.T) {
	b := newBox(t)

	plain, err := b.Open("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)

	empty, err := b.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSecretBox_NilBox(t *testing.T) {
	var b *SecretBox

	s, err := b.Seal("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	_, err = b.Open(sealedPrefix + "AAAA")
	require.Error(t, err)
}

func TestSecretBox_WrongKeyAndTamper(t *testing.T) {
	sealed, err := newBox(t).Seal("secret")
	require.NoError(t, err)

	_, err = newBox(t).Open(sealed)
	require.Error(t, err)

	_, err = newBox(t).Open(sealedPrefix + "!!!")
	require.ErrorIs(t, err, ErrMalformedSealed)

	_, err = newBox(t).Open(sealedPrefix + "AAAA")
	require.ErrorIs(t, err, ErrMalformedSealed)
}

func TestNewSecretBoxFromHex(t *testing.T) {
	b, err := NewSecretBoxFromHex("")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = NewSecretBoxFromHex("zz")
	require.Error(t, err)

	_, err = NewSecretBoxFromHex("abcd")
	require.Error(t, err)

	b, err = NewSecretBoxFromHex(strings.Repeat("ab", KeySize))
	require.NoError(t, err)
	assert.NotNil(t, b)
}
