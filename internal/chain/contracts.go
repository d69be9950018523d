package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// USDCDecimals is the number of decimals of every USDC deployment we target.
const USDCDecimals = 6

// BalanceOf reads an ERC-20 balance in base units.
func (c *Client) BalanceOf(ctx context.Context, token, holder Address) (*big.Int, error) {
	data := append(Selector("balanceOf(address)"), encodeAddress(holder)...)
	out, err := c.EthCall(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	if len(out) < wordSize {
		return nil, fmt.Errorf("balanceOf: short return data (%d bytes)", len(out))
	}
	return decodeWord(out), nil
}

// IsVerified reads isVerified(address) from a KYC registry contract.
func (c *Client) IsVerified(ctx context.Context, registry, who Address) (bool, error) {
	data := append(Selector("isVerified(address)"), encodeAddress(who)...)
	out, err := c.EthCall(ctx, registry, data)
	if err != nil {
		return false, fmt.Errorf("isVerified: %w", err)
	}
	if len(out) < wordSize {
		return false, fmt.Errorf("isVerified: short return data (%d bytes)", len(out))
	}
	return decodeWord(out).Sign() != 0, nil
}

// Usage is the PropertyNFT usage category.
type Usage uint8

const (
	UsageFlip Usage = iota
	UsageRent
	UsageBuild
)

var usageNames = [...]string{"Flip", "Rent", "Build"}

func (u Usage) String() string {
	if int(u) < len(usageNames) {
		return usageNames[u]
	}
	return fmt.Sprintf("Usage(%d)", u)
}

func ParseUsage(s string) (Usage, error) {
	for i, n := range usageNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Usage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown usage %q", s)
}

func (u Usage) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Usage) UnmarshalText(b []byte) error {
	v, err := ParseUsage(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Usages lists the categories in enum order.
func Usages() []Usage { return []Usage{UsageFlip, UsageRent, UsageBuild} }

// TxRequest is an unsigned transaction the user's wallet is asked to send.
type TxRequest struct {
	ChainID uint64
	To      Address
	Data    []byte
	Value   *big.Int
}

func (t TxRequest) DataHex() string { return "0x" + hex.EncodeToString(t.Data) }

// MintRequest carries the arguments of PropertyNFT.mintProperty.
type MintRequest struct {
	TokenURI     string
	Usage        Usage
	InitialValue *big.Int
	Recipient    Address
}

// EncodeMintProperty builds calldata for
// mintProperty(string tokenURI, uint8 usage, uint256 initialValue, address to).
func EncodeMintProperty(req MintRequest) ([]byte, error) {
	if strings.TrimSpace(req.TokenURI) == "" {
		return nil, errors.New("token URI required")
	}
	if req.Usage > UsageBuild {
		return nil, fmt.Errorf("unknown usage %d", req.Usage)
	}
	if req.InitialValue == nil || req.InitialValue.Sign() < 0 {
		return nil, errors.New("initial value must be non-negative")
	}
	if req.InitialValue.BitLen() > 256 {
		return nil, errors.New("initial value overflows uint256")
	}
	if req.Recipient.IsZero() {
		return nil, errors.New("recipient required")
	}

	out := Selector("mintProperty(string,uint8,uint256,address)")
	out = append(out, encodeUint(big.NewInt(4*wordSize))...) // offset of the string tail
	out = append(out, encodeUint(big.NewInt(int64(req.Usage)))...)
	out = append(out, encodeUint(req.InitialValue)...)
	out = append(out, encodeAddress(req.Recipient)...)
	out = append(out, encodeBytesTail([]byte(req.TokenURI))...)
	return out, nil
}
