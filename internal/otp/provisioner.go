// Package otp provisions shared secrets and enrollment descriptors for
// TOTP-capable devices. It never computes OTP codes itself.
package otp

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"net/url"
	"strings"

	otplib "github.com/pquerna/otp"
	"go.uber.org/zap"
)

// Base32Alphabet is the symbol set secrets are drawn from (RFC 4648, no padding).
const Base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

const (
	DefaultSecretLength = 20
	DefaultIssuer       = "Open2FA"
	DefaultPeriod       = 30
	DefaultDigits       = 6
	DefaultAlgorithm    = "SHA1"
)

// Provisioner generates device secrets and renders enrollment URIs.
type Provisioner struct {
	logger *zap.Logger
}

func NewProvisioner(logger *zap.Logger) *Provisioner {
	return &Provisioner{logger: logger}
}

// GenerateSecret produces length symbols drawn uniformly from the base32
// alphabet. It prefers the crypto-grade source and falls back to
// math/rand only when that source errors; the degradation is logged.
func (p *Provisioner) GenerateSecret(length int) string {
	if length <= 0 {
		length = DefaultSecretLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		p.logger.Warn("strong random source unavailable, degrading to pseudo-random secret",
			zap.Error(err))
		for i := range buf {
			buf[i] = byte(mathrand.Intn(256))
		}
	}
	var b strings.Builder
	b.Grow(length)
	for _, c := range buf {
		b.WriteByte(Base32Alphabet[int(c)%len(Base32Alphabet)])
	}
	return b.String()
}

// Enrollment holds the parameters of an otpauth enrollment descriptor.
// Zero values for Issuer, Period, Digits and Algorithm take the defaults.
type Enrollment struct {
	AccountName string
	Secret      string
	Issuer      string
	Period      int
	Digits      int
	Algorithm   string
}

func (e Enrollment) withDefaults() Enrollment {
	if e.Issuer == "" {
		e.Issuer = DefaultIssuer
	}
	if e.Period == 0 {
		e.Period = DefaultPeriod
	}
	if e.Digits == 0 {
		e.Digits = DefaultDigits
	}
	if e.Algorithm == "" {
		e.Algorithm = DefaultAlgorithm
	}
	return e
}

// BuildEnrollmentURI renders the standard otpauth descriptor:
//
//	otpauth://totp/<issuer>:<account>?secret=..&issuer=..&period=..&digits=..&algorithm=..
//
// with the label percent-encoded. Deterministic for identical inputs.
func BuildEnrollmentURI(e Enrollment) string {
	e = e.withDefaults()
	label := strings.ReplaceAll(url.QueryEscape(e.Issuer+":"+e.AccountName), "+", "%20")
	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s&period=%d&digits=%d&algorithm=%s",
		label,
		url.QueryEscape(e.Secret),
		url.QueryEscape(e.Issuer),
		e.Period,
		e.Digits,
		e.Algorithm,
	)
}

// ParseEnrollmentURI parses an otpauth URI back into its parameters.
// Round-trips the output of BuildEnrollmentURI exactly.
func ParseEnrollmentURI(uri string) (Enrollment, error) {
	key, err := otplib.NewKeyFromURL(uri)
	if err != nil {
		return Enrollment{}, fmt.Errorf("parse enrollment uri: %w", err)
	}
	if key.Type() != "totp" {
		return Enrollment{}, fmt.Errorf("parse enrollment uri: unexpected type %q", key.Type())
	}
	return Enrollment{
		AccountName: key.AccountName(),
		Secret:      key.Secret(),
		Issuer:      key.Issuer(),
		Period:      int(key.Period()),
		Digits:      int(key.Digits()),
		Algorithm:   key.Algorithm().String(),
	}, nil
}

// MaskSecret replaces every character except the trailing four with '*',
// preserving length.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return secret
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
