package wallet

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"frodoestate/internal/auth"
	"frodoestate/internal/chain"
)

var (
	ErrChallengeMismatch = errors.New("challenge does not match address")
	ErrSignerMismatch    = errors.New("signature was not produced by this address")
	ErrChallengeUsed     = errors.New("challenge already used")
)

// Challenge is the message a wallet signs to prove control of an address.
type Challenge struct {
	Address chain.Address
	Nonce   string
	Message string
	Token   string
}

// ConnectRequest is what the connect form posts back.
type ConnectRequest struct {
	Address        string
	ConnectorID    string
	ChallengeToken string
	Signature      string
}

// Sessions runs the connect handshake and resolves session tokens.
type Sessions struct {
	signer           *auth.Signer
	appName          string
	requireSignature bool
	challengeTTL     time.Duration
	now              func() time.Time

	mu   sync.Mutex
	used map[string]time.Time // nonce -> challenge expiry
}

func NewSessions(signer *auth.Signer, appName string, requireSignature bool) *Sessions {
	return &Sessions{
		signer:           signer,
		appName:          appName,
		requireSignature: requireSignature,
		challengeTTL:     5 * time.Minute,
		now:              time.Now,
		used:             make(map[string]time.Time),
	}
}

func (s *Sessions) RequireSignature() bool { return s.requireSignature }

// ChallengeMessage is the exact text presented to personal_sign.
func ChallengeMessage(appName string, addr chain.Address, nonce string, issued time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sign in to %s\n\n", appName)
	fmt.Fprintf(&b, "Address: %s\n", addr.Hex())
	fmt.Fprintf(&b, "Nonce: %s\n", nonce)
	fmt.Fprintf(&b, "Issued At: %s", issued.UTC().Format(time.RFC3339))
	return b.String()
}

func (s *Sessions) NewChallenge(addr chain.Address) (Challenge, error) {
	nonce := uuid.NewString()
	tok, err := s.signer.IssueChallenge(addr.Hex(), nonce, s.challengeTTL)
	if err != nil {
		return Challenge{}, err
	}
	_, _, issued, err := s.signer.ParseChallenge(tok)
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{
		Address: addr,
		Nonce:   nonce,
		Message: ChallengeMessage(s.appName, addr, nonce, issued),
		Token:   tok,
	}, nil
}

// Connect validates a connect request and returns a session token for the
// proven address.
func (s *Sessions) Connect(req ConnectRequest) (string, chain.Address, error) {
	addr, err := chain.ParseAddress(req.Address)
	if err != nil {
		return "", chain.Address{}, err
	}
	if s.requireSignature {
		if err := s.verify(addr, req); err != nil {
			return "", chain.Address{}, err
		}
	}
	tok, err := s.signer.IssueSession(addr.Hex())
	if err != nil {
		return "", chain.Address{}, err
	}
	return tok, addr, nil
}

func (s *Sessions) verify(addr chain.Address, req ConnectRequest) error {
	subject, nonce, issued, err := s.signer.ParseChallenge(req.ChallengeToken)
	if err != nil {
		return err
	}
	if subject != addr.Hex() {
		return ErrChallengeMismatch
	}
	sig, err := DecodeSignature(req.Signature)
	if err != nil {
		return err
	}
	signer, err := RecoverAddress([]byte(ChallengeMessage(s.appName, addr, nonce, issued)), sig)
	if err != nil {
		return err
	}
	if signer != addr {
		return ErrSignerMismatch
	}
	return s.consume(nonce, issued.Add(s.challengeTTL))
}

// consume marks nonce spent until its challenge expires. A challenge signs in
// once.
func (s *Sessions) consume(nonce string, expires time.Time) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for n, exp := range s.used {
		if now.After(exp) {
			delete(s.used, n)
		}
	}
	if _, ok := s.used[nonce]; ok {
		return ErrChallengeUsed
	}
	s.used[nonce] = expires
	return nil
}

// Resolve maps a session token back to its wallet address.
func (s *Sessions) Resolve(tok string) (chain.Address, bool) {
	if tok == "" {
		return chain.Address{}, false
	}
	sub, err := s.signer.ParseSession(tok)
	if err != nil {
		return chain.Address{}, false
	}
	addr, err := chain.ParseAddress(sub)
	if err != nil {
		return chain.Address{}, false
	}
	return addr, true
}

func (s *Sessions) TTL() time.Duration { return s.signer.TTL() }
