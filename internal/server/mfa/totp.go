// Package mfa provisions and verifies RFC 6238 time-based one-time
// passwords (SHA1, 6 digits, 30 second steps).
package mfa

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	secretBytes = 20
	digits      = 6
	period      = 30
	skew        = 1
)

var ErrInvalidSecret = errors.New("invalid totp secret")

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Provisioner generates shared secrets and checks submitted codes.
type Provisioner struct {
	now func() time.Time
}

type Option func(*Provisioner)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) { p.now = now }
}

func NewProvisioner(opts ...Option) *Provisioner {
	p := &Provisioner{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateSecret returns 160 random bits in unpadded base32.
func (p *Provisioner) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return secretEncoding.EncodeToString(raw), nil
}

// ProvisioningReference builds the otpauth:// URI authenticator apps scan.
func (p *Provisioner) ProvisioningReference(secret, account, issuer string) string {
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", strconv.Itoa(digits))
	v.Set("period", strconv.Itoa(period))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// Verify checks code against secret at the current time.
func (p *Provisioner) Verify(secret, code string) bool {
	return p.VerifyAt(secret, code, p.now())
}

// VerifyAt checks code against the steps t-1, t and t+1. Malformed secrets
// and codes never verify.
func (p *Provisioner) VerifyAt(secret, code string, t time.Time) bool {
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if len(code) != digits || !isNumeric(code) {
		return false
	}

	matched := 0
	base := t.Unix() / period
	for step := int64(-skew); step <= skew; step++ {
		counter := base + step
		if counter < 0 {
			continue
		}
		// every step is compared so timing does not reveal which one matched
		matched |= subtle.ConstantTimeCompare([]byte(hotp(key, uint64(counter))), []byte(code))
	}
	return matched == 1
}

// CodeAt returns the code valid for secret at t.
func (p *Provisioner) CodeAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, uint64(t.Unix()/period)), nil
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, ErrInvalidSecret
	}
	key, err := secretEncoding.DecodeString(s)
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

func hotp(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (uint32(sum[offset])&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	return fmt.Sprintf("%0*d", digits, bin%1_000_000)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
