package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks an already verified admin session token.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	// Subject, when set, must equal the token subject (the admin email).
	Subject string
	// Claims maps private claims to the value they must carry.
	Claims map[string]string
}

// Validate runs the registered-claim checks and then the private claims.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return errors.New("auth: token is nil")
	}
	if algorithm == "" {
		return errors.New("auth: token missing algorithm")
	}
	if v.Algorithm != "" && algorithm != v.Algorithm {
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	if tok.Subject() == "" {
		return errors.New("auth: token missing subject")
	}
	if v.Subject != "" && tok.Subject() != v.Subject {
		return errors.New("auth: subject mismatch")
	}

	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		return err
	}

	for name, want := range v.Claims {
		got, ok := tok.Get(name)
		if !ok {
			return fmt.Errorf("auth: missing %s claim", name)
		}
		if s, _ := got.(string); s != want {
			return fmt.Errorf("auth: %s claim is %v", name, got)
		}
	}
	return nil
}
