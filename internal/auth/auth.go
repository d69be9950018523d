package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceSession   = "session"
	audienceChallenge = "challenge"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Nonce string `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies the HS256 tokens used for wallet sessions and
// sign-in challenges. Create one at startup with the configured secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret not set")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of s reading time from now. Used by tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Signer) TTL() time.Duration { return s.ttl }

// IssueSession returns a session token whose subject is the wallet address.
func (s *Signer) IssueSession(address string) (string, error) {
	return s.issue(address, audienceSession, "", s.ttl)
}

func (s *Signer) ParseSession(tok string) (string, error) {
	c, err := s.parse(tok, audienceSession)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// IssueChallenge binds a nonce to an address for a short sign-in window.
func (s *Signer) IssueChallenge(address, nonce string, ttl time.Duration) (string, error) {
	if nonce == "" {
		return "", errors.New("nonce required")
	}
	return s.issue(address, audienceChallenge, nonce, ttl)
}

// ParseChallenge returns the address, nonce and issue time of a challenge.
func (s *Signer) ParseChallenge(tok string) (address, nonce string, issued time.Time, err error) {
	c, err := s.parse(tok, audienceChallenge)
	if err != nil {
		return "", "", time.Time{}, err
	}
	if c.Nonce == "" || c.IssuedAt == nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	return c.Subject, c.Nonce, c.IssuedAt.Time, nil
}

func (s *Signer) issue(subject, audience, nonce string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject required")
	}
	now := s.now().Truncate(time.Second)
	c := claims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Signer) parse(tok, audience string) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(tok, &c,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: no sub", ErrInvalidToken)
	}
	return &c, nil
}
