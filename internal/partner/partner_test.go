package partner

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frodoestate/internal/chain"
	"frodoestate/internal/notify"
)

var (
	nft     = chain.MustAddress("0x7d5524041A6630352C761ddBB360226e0e6140EF")
	kyc     = chain.MustAddress("0xB5644397a9733f86Cacd928478B29b4cD6041C45")
	partner = chain.MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

type fakeKYC struct {
	verified bool
	err      error
	registry chain.Address
}

func (f *fakeKYC) IsVerified(_ context.Context, registry, _ chain.Address) (bool, error) {
	f.registry = registry
	return f.verified, f.err
}

func draft(t *testing.T) Draft {
	t.Helper()
	d, err := ParseDraft("ipfs://prop", "rent", "1500")
	require.NoError(t, err)
	return d
}

func TestPrepareUnverified(t *testing.T) {
	reader := &fakeKYC{}
	s := &Service{Verifier: RegistryVerifier{Client: reader, Registry: kyc}, ChainID: 8453, NFT: nft}
	var col notify.Collector

	_, ok := s.Prepare(context.Background(), partner, draft(t), &col)
	assert.False(t, ok)
	assert.Equal(t, kyc, reader.registry)
	require.Len(t, col.Notices(), 1)
	assert.Equal(t, MsgNotVerified, col.Notices()[0].Message)
	assert.Equal(t, notify.Error, col.Notices()[0].Variant)
}

func TestPrepareVerified(t *testing.T) {
	s := &Service{Verifier: RegistryVerifier{Client: &fakeKYC{verified: true}, Registry: kyc}, ChainID: 8453, NFT: nft}
	var col notify.Collector

	tx, ok := s.Prepare(context.Background(), partner, draft(t), &col)
	require.True(t, ok)
	assert.Equal(t, nft, tx.To)
	assert.Equal(t, uint64(8453), tx.ChainID)
	assert.Equal(t, chain.Selector("mintProperty(string,uint8,uint256,address)"), tx.Data[:4])
	assert.Equal(t, big.NewInt(1_500_000_000), new(big.Int).SetBytes(tx.Data[4+64:4+96]))
	assert.Equal(t, 1, col.Count(notify.Success))
}

type alertLog []string

func (a *alertLog) Alert(_ context.Context, msg string) { *a = append(*a, msg) }

func TestPrepareAlertsOnlyOnSuccess(t *testing.T) {
	var sent alertLog
	s := &Service{Verifier: RegistryVerifier{Client: &fakeKYC{}, Registry: kyc}, NFT: nft, Alerts: &sent}
	_, ok := s.Prepare(context.Background(), partner, draft(t), &notify.Collector{})
	require.False(t, ok)
	assert.Empty(t, sent)

	s.Verifier = RegistryVerifier{Client: &fakeKYC{verified: true}, Registry: kyc}
	_, ok = s.Prepare(context.Background(), partner, draft(t), &notify.Collector{})
	require.True(t, ok)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "ipfs://prop")
}

func TestPrepareVerifierError(t *testing.T) {
	s := &Service{Verifier: RegistryVerifier{Client: &fakeKYC{err: errors.New("rpc")}}, NFT: nft}
	var col notify.Collector
	_, ok := s.Prepare(context.Background(), partner, draft(t), &col)
	assert.False(t, ok)
	assert.Equal(t, MsgFailed, col.Notices()[0].Message)
}

func TestAllowlist(t *testing.T) {
	l, err := NewAllowlist([]string{partner.Hex()})
	require.NoError(t, err)
	ok, _ := l.IsVerified(context.Background(), partner)
	assert.True(t, ok)
	ok, _ = l.IsVerified(context.Background(), nft)
	assert.False(t, ok)

	_, err = NewAllowlist([]string{"0x1"})
	assert.ErrorIs(t, err, chain.ErrInvalidAddress)
}

func TestParseDraft(t *testing.T) {
	_, err := ParseDraft("", "Flip", "1")
	assert.Error(t, err)
	_, err = ParseDraft("x", "Hold", "1")
	assert.Error(t, err)
	_, err = ParseDraft("x", "Flip", "-3")
	assert.Error(t, err)
	d, err := ParseDraft(" x ", "Build", "2.5")
	require.NoError(t, err)
	assert.Equal(t, "x", d.TokenURI)
	assert.Equal(t, chain.UsageBuild, d.Usage)
}
