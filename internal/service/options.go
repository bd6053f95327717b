package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

type Option func(*settings)

type settings struct {
	now     func() time.Time
	otpCode func() (string, error)
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithOTPGenerator overrides the delivery code generator.
func WithOTPGenerator(gen func() (string, error)) Option {
	return func(s *settings) { s.otpCode = gen }
}

func newSettings(opts []Option) settings {
	s := settings{
		now:     func() time.Time { return time.Now().UTC() },
		otpCode: GenerateOTP,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

var otpSpan = big.NewInt(900000)

// GenerateOTP draws a 6-digit code uniformly from [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
