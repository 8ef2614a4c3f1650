package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-perhiasan/internal/common"
	"github.com/noah-isme/backend-perhiasan/internal/obs"
)

const (
	defaultSessionTTL = 12 * time.Hour
	roleClaim         = "role"
	roleAdmin         = "admin"
)

// decoyHash is compared against when the email does not match so that both
// failure paths cost one argon2id verification.
const decoyHash = "$argon2id$v=19$m=65536,t=1,p=2$c2FsdHNhbHRzYWx0c2FsdA$3mD0XxJ2i1Pq6oK2xqfKc7Y2wCWcX5Fs1nJfYlqJx3w"

// Service authenticates the single storefront administrator and issues
// signed session tokens.
type Service struct {
	email     string
	hash      string
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
}

// Config configures the auth service.
type Config struct {
	AdminEmail   string
	PasswordHash string
	Secret       string
	SessionTTL   time.Duration
	Issuer       string
	Audience     string
	ClockSkew    time.Duration
}

// Session is a freshly issued admin session token.
type Session struct {
	Token     string    `json:"-"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

var errInvalidCredentials = common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

// NewService constructs a Service. An empty password hash disables login.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-perhiasan"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "perhiasan-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	return &Service{
		email:  email,
		hash:   strings.TrimSpace(cfg.PasswordHash),
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		signer: jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
			Subject:   email,
			Claims:    map[string]string{roleClaim: roleAdmin},
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies the admin credentials and issues a session token.
func (s *Service) Login(_ context.Context, email, password string) (Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" || s.hash == "" || s.email == "" {
		obs.IncCounter(obs.AdminLoginTotal, "rejected")
		return Session{}, errInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(normalized), []byte(s.email)) == 1
	hash := s.hash
	if !emailOK {
		hash = decoyHash
	}
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil || !match || !emailOK {
		obs.IncCounter(obs.AdminLoginTotal, "rejected")
		return Session{}, errInvalidCredentials
	}

	token, expiresAt, err := s.sign(s.email)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	obs.IncCounter(obs.AdminLoginTotal, "ok")
	return Session{Token: token, Email: s.email, ExpiresAt: expiresAt}, nil
}

// ParseSession validates a session token and returns the admin email.
func (s *Service) ParseSession(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" || s.email == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing session", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid session", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid session", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid session", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid session", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func (s *Service) sign(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expiresAt).
		Claim(roleClaim, roleAdmin).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", errors.New("auth: token must carry exactly one signature")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	if alg == "" {
		return "", errors.New("auth: token missing algorithm")
	}
	if alg == jwa.NoSignature {
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}
