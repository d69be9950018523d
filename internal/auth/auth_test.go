package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	require.NoError(t, err)

	tok, err := s.IssueSession("0xabc")
	require.NoError(t, err)
	sub, err := s.ParseSession(tok)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", sub)
}

func TestSessionExpires(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSigner("secret", time.Hour)
	require.NoError(t, err)

	tok, err := s.WithClock(func() time.Time { return base }).IssueSession("0xabc")
	require.NoError(t, err)

	_, err = s.WithClock(func() time.Time { return base.Add(2 * time.Hour) }).ParseSession(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAudienceSeparation(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	require.NoError(t, err)

	ch, err := s.IssueChallenge("0xabc", "n-1", time.Minute)
	require.NoError(t, err)
	_, err = s.ParseSession(ch)
	assert.ErrorIs(t, err, ErrInvalidToken, "a challenge must not work as a session")

	addr, nonce, issued, err := s.ParseChallenge(ch)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", addr)
	assert.Equal(t, "n-1", nonce)
	assert.False(t, issued.IsZero())
}

func TestWrongSecret(t *testing.T) {
	a, _ := NewSigner("one", time.Hour)
	b, _ := NewSigner("two", time.Hour)
	tok, err := a.IssueSession("0xabc")
	require.NoError(t, err)
	_, err = b.ParseSession(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.Error(t, err)
}
