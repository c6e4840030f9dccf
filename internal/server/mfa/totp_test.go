package mfa

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 appendix B seed "12345678901234567890" in base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeAt_RFC6238Vectors(t *testing.T) {
	p := NewProvisioner()
	vectors := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, v := range vectors {
		got, err := p.CodeAt(rfcSecret, time.Unix(v.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, v.want, got, "t=%d", v.unix)
	}
}

func TestGenerateSecret(t *testing.T) {
	p := NewProvisioner()

	a, err := p.GenerateSecret()
	require.NoError(t, err)
	b, err := p.GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	raw, err := secretEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, secretBytes)
}

func TestVerifyAt_ToleranceWindow(t *testing.T) {
	p := NewProvisioner()
	secret, err := p.GenerateSecret()
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	step := period * time.Second

	for _, offset := range []time.Duration{-step, 0, step} {
		code, err := p.CodeAt(secret, now.Add(offset))
		require.NoError(t, err)
		assert.True(t, p.VerifyAt(secret, code, now), "offset %v must verify", offset)
	}

	for _, offset := range []time.Duration{-2 * step, 2 * step, -3 * step, 5 * step} {
		code, err := p.CodeAt(secret, now.Add(offset))
		require.NoError(t, err)
		// a code from another step can collide by chance; require it differs first
		current, _ := p.CodeAt(secret, now)
		prev, _ := p.CodeAt(secret, now.Add(-step))
		next, _ := p.CodeAt(secret, now.Add(step))
		if code == current || code == prev || code == next {
			continue
		}
		assert.False(t, p.VerifyAt(secret, code, now), "offset %v must not verify", offset)
	}
}

func TestVerifyAt_DifferentSecretRejected(t *testing.T) {
	p := NewProvisioner()
	now := time.Unix(1_700_000_000, 0)

	code, err := p.CodeAt(rfcSecret, now)
	require.NoError(t, err)
	assert.True(t, p.VerifyAt(rfcSecret, code, now))

	other := "JBSWY3DPEHPK3PXP"
	otherCode, err := p.CodeAt(other, now)
	require.NoError(t, err)
	if otherCode != code {
		assert.False(t, p.VerifyAt(other, code, now))
	}
}

func TestVerifyAt_MalformedInput(t *testing.T) {
	p := NewProvisioner()
	now := time.Unix(1_700_000_000, 0)
	code, err := p.CodeAt(rfcSecret, now)
	require.NoError(t, err)

	assert.False(t, p.VerifyAt("", code, now))
	assert.False(t, p.VerifyAt("not base32 !!", code, now))
	assert.False(t, p.VerifyAt(rfcSecret, "", now))
	assert.False(t, p.VerifyAt(rfcSecret, "12345", now))
	assert.False(t, p.VerifyAt(rfcSecret, "abcdef", now))
	assert.False(t, p.VerifyAt(rfcSecret, code+"0", now))
}

func TestVerifyAt_LenientFormatting(t *testing.T) {
	p := NewProvisioner()
	now := time.Unix(1_700_000_000, 0)
	code, err := p.CodeAt(rfcSecret, now)
	require.NoError(t, err)

	assert.True(t, p.VerifyAt(strings.ToLower(rfcSecret), code, now))
	assert.True(t, p.VerifyAt(rfcSecret+"====", code, now))
	assert.True(t, p.VerifyAt(rfcSecret, " "+code[:3]+" "+code[3:]+" ", now))
}

func TestVerify_UsesClock(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := NewProvisioner(WithClock(func() time.Time { return now }))

	code, err := p.CodeAt(rfcSecret, now)
	require.NoError(t, err)
	assert.True(t, p.Verify(rfcSecret, code))
}

func TestProvisioningReference(t *testing.T) {
	p := NewProvisioner()
	ref := p.ProvisioningReference("JBSWY3DPEHPK3PXP", "a@x.com", "Data Cleaner")

	u, err := url.Parse(ref)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/Data Cleaner:a@x.com", u.Path)

	q := u.Query()
	assert.Equal(t, "JBSWY3DPEHPK3PXP", q.Get("secret"))
	assert.Equal(t, "Data Cleaner", q.Get("issuer"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))
}
