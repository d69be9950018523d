package wallet

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frodoestate/internal/auth"
	"frodoestate/internal/chain"
	"frodoestate/internal/config"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(Options{
		AppName:   "Frodo App",
		ProjectID: "wc",
		Chains:    config.DefaultChains,
	})
	require.NoError(t, err)

	var ids []uint64
	for _, c := range cfg.Chains() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []uint64{42161, 10, 137, 8453, 84532, 1, 11155111}, ids)
	assert.Equal(t, uint64(42161), cfg.DefaultChain().ID, "first chain is the default when none is named")

	for _, c := range cfg.Chains() {
		tr, ok := cfg.Transport(c.ID)
		require.True(t, ok, "every chain gets a transport: %s", c.Network)
		assert.Equal(t, c.RPCURL, tr.URL)
	}

	groups := cfg.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Recommended", groups[0].Name)
	assert.Equal(t, "Others", groups[1].Name)
	assert.Equal(t, "rainbow", groups[0].Connectors[0].ID)
	assert.Len(t, groups[1].Connectors, 6)

	coinbase, ok := cfg.Connector("coinbase")
	require.True(t, ok)
	assert.Equal(t, "smartWalletOnly", coinbase.Preference)
}

func TestNewConfigTransportPrecedence(t *testing.T) {
	cfg, err := NewConfig(Options{
		Chains:       []string{"mainnet", "base"},
		AlchemyKey:   "k",
		RPCOverrides: map[string]string{"base": "http://localhost:8545"},
	})
	require.NoError(t, err)

	tr, _ := cfg.Transport(1)
	assert.Equal(t, "https://eth-mainnet.g.alchemy.com/v2/k", tr.URL)
	tr, _ = cfg.Transport(8453)
	assert.Equal(t, "http://localhost:8545", tr.URL)
}

func TestNewConfigWithoutProjectIDDropsConnectors(t *testing.T) {
	cfg, err := NewConfig(Options{Chains: []string{"base"}})
	require.NoError(t, err)
	for _, g := range cfg.Groups() {
		for _, c := range g.Connectors {
			assert.False(t, c.RequiresProjectID, c.ID)
		}
	}
	_, ok := cfg.Connector("walletConnect")
	assert.False(t, ok)
}

func TestNewConfigErrors(t *testing.T) {
	cases := []Options{
		{},
		{Chains: []string{"solana"}},
		{Chains: []string{"base", "base"}},
		{Chains: []string{"base"}, DefaultChain: "mainnet"},
		{Chains: []string{"base"}, RPCOverrides: map[string]string{"nope": "x"}},
	}
	for _, opts := range cases {
		_, err := NewConfig(opts)
		assert.Error(t, err, "%+v", opts)
	}
}

func TestConfigIsImmutable(t *testing.T) {
	cfg, err := NewConfig(Options{ProjectID: "wc", Chains: []string{"base", "mainnet"}})
	require.NoError(t, err)

	chains := cfg.Chains()
	chains[0].Name = "mutated"
	groups := cfg.Groups()
	groups[0].Connectors[0].Name = "mutated"

	assert.Equal(t, "Base", cfg.Chains()[0].Name)
	assert.Equal(t, "Rainbow", cfg.Groups()[0].Connectors[0].Name)
}

func signPersonal(t *testing.T, key *secp256k1.PrivateKey, msg string) string {
	t.Helper()
	compact := ecdsa.SignCompact(key, HashPersonalMessage([]byte(msg)), false)
	sig := append(append([]byte{}, compact[1:]...), compact[0])
	return "0x" + hex.EncodeToString(sig)
}

func TestRecoverAddress(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	want := chain.AddressFromPublicKey(key.PubKey().SerializeUncompressed())

	sigHex := signPersonal(t, key, "hello")
	sig, err := DecodeSignature(sigHex)
	require.NoError(t, err)

	got, err := RecoverAddress([]byte("hello"), sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// wallets that report v as 0/1
	sig[64] -= 27
	got, err = RecoverAddress([]byte("hello"), sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := RecoverAddress([]byte("tampered"), sig)
	if err == nil {
		assert.NotEqual(t, want, other)
	}
}

func newSessions(t *testing.T, requireSig bool) *Sessions {
	t.Helper()
	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	return NewSessions(signer, "Frodo Estate", requireSig)
}

func TestConnectWithSignature(t *testing.T) {
	s := newSessions(t, true)
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	addr := chain.AddressFromPublicKey(key.PubKey().SerializeUncompressed())

	ch, err := s.NewChallenge(addr)
	require.NoError(t, err)
	assert.Contains(t, ch.Message, addr.Hex())

	tok, got, err := s.Connect(ConnectRequest{
		Address:        addr.Hex(),
		ChallengeToken: ch.Token,
		Signature:      signPersonal(t, key, ch.Message),
	})
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	resolved, ok := s.Resolve(tok)
	require.True(t, ok)
	assert.Equal(t, addr, resolved)
}

func TestConnectRejectsReplayedChallenge(t *testing.T) {
	s := newSessions(t, true)
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	addr := chain.AddressFromPublicKey(key.PubKey().SerializeUncompressed())

	ch, err := s.NewChallenge(addr)
	require.NoError(t, err)
	req := ConnectRequest{
		Address:        addr.Hex(),
		ChallengeToken: ch.Token,
		Signature:      signPersonal(t, key, ch.Message),
	}
	_, _, err = s.Connect(req)
	require.NoError(t, err)

	_, _, err = s.Connect(req)
	assert.ErrorIs(t, err, ErrChallengeUsed)

	fresh, err := s.NewChallenge(addr)
	require.NoError(t, err)
	_, _, err = s.Connect(ConnectRequest{
		Address:        addr.Hex(),
		ChallengeToken: fresh.Token,
		Signature:      signPersonal(t, key, fresh.Message),
	})
	assert.NoError(t, err, "a new challenge still works")
}

func TestUsedNoncesExpire(t *testing.T) {
	s := newSessions(t, true)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	require.NoError(t, s.consume("n-1", base.Add(time.Minute)))
	assert.ErrorIs(t, s.consume("n-1", base.Add(time.Minute)), ErrChallengeUsed)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	require.NoError(t, s.consume("n-2", base.Add(3*time.Minute)))
	assert.NotContains(t, s.used, "n-1")
	assert.Contains(t, s.used, "n-2")
}

func TestConnectRejectsForeignSigner(t *testing.T) {
	s := newSessions(t, true)
	victim, _ := secp256k1.GeneratePrivateKey()
	attacker, _ := secp256k1.GeneratePrivateKey()
	addr := chain.AddressFromPublicKey(victim.PubKey().SerializeUncompressed())

	ch, err := s.NewChallenge(addr)
	require.NoError(t, err)
	_, _, err = s.Connect(ConnectRequest{
		Address:        addr.Hex(),
		ChallengeToken: ch.Token,
		Signature:      signPersonal(t, attacker, ch.Message),
	})
	assert.ErrorIs(t, err, ErrSignerMismatch)
}

func TestConnectRejectsChallengeForOtherAddress(t *testing.T) {
	s := newSessions(t, true)
	a := chain.MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	b := chain.MustAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	ch, err := s.NewChallenge(a)
	require.NoError(t, err)
	_, _, err = s.Connect(ConnectRequest{Address: b.Hex(), ChallengeToken: ch.Token, Signature: "0x00"})
	assert.ErrorIs(t, err, ErrChallengeMismatch)
}

func TestConnectDemoMode(t *testing.T) {
	s := newSessions(t, false)
	tok, addr, err := s.Connect(ConnectRequest{Address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"})
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())
	_, ok := s.Resolve(tok)
	assert.True(t, ok)

	_, _, err = s.Connect(ConnectRequest{Address: "not-an-address"})
	assert.ErrorIs(t, err, chain.ErrInvalidAddress)
}

func TestResolveRejectsGarbage(t *testing.T) {
	s := newSessions(t, false)
	_, ok := s.Resolve("")
	assert.False(t, ok)
	_, ok = s.Resolve("abc.def.ghi")
	assert.False(t, ok)
}
