// Package partner gates property minting behind a KYC check and prepares the
// mintProperty transaction for the partner's wallet to send.
package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"frodoestate/internal/chain"
	"frodoestate/internal/logging"
	"frodoestate/internal/market"
	"frodoestate/internal/notify"
)

const (
	MsgNotVerified = "You must be a verified partner to add a property."
	MsgPrepared    = "Property mint transaction prepared"
	MsgFailed      = "An error occurred. Please try again."
)

var ErrNoVerifier = errors.New("no kyc source configured")

// Verifier answers whether an address passed KYC.
type Verifier interface {
	IsVerified(ctx context.Context, who chain.Address) (bool, error)
}

// Allowlist verifies a fixed set of addresses.
type Allowlist map[chain.Address]struct{}

func NewAllowlist(addrs []string) (Allowlist, error) {
	out := make(Allowlist, len(addrs))
	for _, s := range addrs {
		a, err := chain.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("kyc allowlist: %w", err)
		}
		out[a] = struct{}{}
	}
	return out, nil
}

func (l Allowlist) IsVerified(_ context.Context, who chain.Address) (bool, error) {
	_, ok := l[who]
	return ok, nil
}

// KYCReader is the slice of the RPC client RegistryVerifier needs.
type KYCReader interface {
	IsVerified(ctx context.Context, registry, who chain.Address) (bool, error)
}

// RegistryVerifier calls isVerified on the KYC contract.
type RegistryVerifier struct {
	Client   KYCReader
	Registry chain.Address
}

func (r RegistryVerifier) IsVerified(ctx context.Context, who chain.Address) (bool, error) {
	return r.Client.IsVerified(ctx, r.Registry, who)
}

// Draft is the Add Property form.
type Draft struct {
	TokenURI     string
	Usage        chain.Usage
	InitialValue decimal.Decimal // whole USDC
}

// ParseDraft reads the form values.
func ParseDraft(tokenURI, usage, initialValue string) (Draft, error) {
	var d Draft
	d.TokenURI = strings.TrimSpace(tokenURI)
	if d.TokenURI == "" {
		return d, errors.New("token URI is required")
	}
	u, err := chain.ParseUsage(usage)
	if err != nil {
		return d, err
	}
	d.Usage = u
	v, err := decimal.NewFromString(strings.TrimSpace(initialValue))
	if err != nil || v.IsNegative() {
		return d, fmt.Errorf("initial value %q must be a non-negative number", initialValue)
	}
	d.InitialValue = v
	return d, nil
}

// Service prepares mint transactions against the PropertyNFT contract.
type Service struct {
	Verifier Verifier
	ChainID  uint64
	NFT      chain.Address
	Alerts   market.Alerter // optional
}

// Prepare checks KYC for partner and returns the unsigned mint transaction.
// The outcome is reported through n.
func (s *Service) Prepare(ctx context.Context, partner chain.Address, d Draft, n notify.Notifier) (chain.TxRequest, bool) {
	log := logging.From(ctx)
	if s.Verifier == nil {
		log.Error("partner.verify", "err", ErrNoVerifier)
		n.Notify(MsgFailed, notify.Error)
		return chain.TxRequest{}, false
	}
	ok, err := s.Verifier.IsVerified(ctx, partner)
	if err != nil {
		log.Error("partner.verify", "partner", partner.Hex(), "err", err)
		n.Notify(MsgFailed, notify.Error)
		return chain.TxRequest{}, false
	}
	if !ok {
		n.Notify(MsgNotVerified, notify.Error)
		return chain.TxRequest{}, false
	}

	data, err := chain.EncodeMintProperty(chain.MintRequest{
		TokenURI:     d.TokenURI,
		Usage:        d.Usage,
		InitialValue: d.InitialValue.Shift(chain.USDCDecimals).Floor().BigInt(),
		Recipient:    partner,
	})
	if err != nil {
		log.Warn("partner.encode", "err", err)
		n.Notify(MsgFailed, notify.Error)
		return chain.TxRequest{}, false
	}
	log.Info("partner.mint_prepared", "partner", partner.Hex(), "usage", d.Usage.String())
	if s.Alerts != nil {
		s.Alerts.Alert(ctx, fmt.Sprintf("%s prepared a %s mint for %s (value %s USDC)", partner.Hex(), d.Usage, d.TokenURI, d.InitialValue.String()))
	}
	n.Notify(MsgPrepared, notify.Success)
	return chain.TxRequest{ChainID: s.ChainID, To: s.NFT, Data: data}, true
}
