package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressChecksum(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		a, err := ParseAddress(strings.ToLower(v))
		require.NoError(t, err)
		assert.Equal(t, v, a.Hex())

		_, err = ParseAddress(v)
		assert.NoError(t, err, v)
	}
}

func TestParseAddressRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"0x123",
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00",
		"0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", // bad checksum
	} {
		_, err := ParseAddress(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, s)
	}
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "70a08231", hex.EncodeToString(Selector("balanceOf(address)")))
	assert.Equal(t, "a9059cbb", hex.EncodeToString(Selector("transfer(address,uint256)")))
}

func TestEncodeMintProperty(t *testing.T) {
	to := MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	data, err := EncodeMintProperty(MintRequest{
		TokenURI:     "ipfs://abc",
		Usage:        UsageRent,
		InitialValue: big.NewInt(1000),
		Recipient:    to,
	})
	require.NoError(t, err)

	// selector + 4 head words + length word + 1 padded data word
	require.Len(t, data, 4+6*32)
	assert.Equal(t, Selector("mintProperty(string,uint8,uint256,address)"), data[:4])
	words := data[4:]
	assert.Equal(t, int64(128), new(big.Int).SetBytes(words[0:32]).Int64())
	assert.Equal(t, int64(1), new(big.Int).SetBytes(words[32:64]).Int64())
	assert.Equal(t, int64(1000), new(big.Int).SetBytes(words[64:96]).Int64())
	assert.Equal(t, to[:], words[96+12:128])
	assert.Equal(t, int64(10), new(big.Int).SetBytes(words[128:160]).Int64())
	assert.Equal(t, "ipfs://abc", string(words[160:170]))
}

func TestEncodeMintPropertyValidation(t *testing.T) {
	to := MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	_, err := EncodeMintProperty(MintRequest{Usage: UsageFlip, InitialValue: big.NewInt(1), Recipient: to})
	assert.Error(t, err)
	_, err = EncodeMintProperty(MintRequest{TokenURI: "x", Usage: 7, InitialValue: big.NewInt(1), Recipient: to})
	assert.Error(t, err)
	_, err = EncodeMintProperty(MintRequest{TokenURI: "x", InitialValue: big.NewInt(-1), Recipient: to})
	assert.Error(t, err)
	_, err = EncodeMintProperty(MintRequest{TokenURI: "x", InitialValue: big.NewInt(1)})
	assert.Error(t, err)
}

func TestParseUsage(t *testing.T) {
	u, err := ParseUsage("build")
	require.NoError(t, err)
	assert.Equal(t, UsageBuild, u)
	assert.Equal(t, "Build", u.String())
	_, err = ParseUsage("hold")
	assert.Error(t, err)
}

type fakeNode struct {
	t        *testing.T
	balance  *big.Int
	verified bool
	calls    []string
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     uint64            `json:"id"`
	}
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))
	n.calls = append(n.calls, req.Method)

	reply := func(result any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}
	switch req.Method {
	case "eth_chainId":
		reply("0x2105")
	case "eth_blockNumber":
		reply("0x10")
	case "eth_call":
		var msg struct{ Data string }
		require.NoError(n.t, json.Unmarshal(req.Params[0], &msg))
		word := make([]byte, 32)
		switch msg.Data[:10] {
		case "0x70a08231":
			n.balance.FillBytes(word)
		default:
			if n.verified {
				word[31] = 1
			}
		}
		reply("0x" + hex.EncodeToString(word))
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]any{"code": -32601, "message": "method not found"},
		})
	}
}

func newTestClient(t *testing.T, node *fakeNode, chainID uint64) *Client {
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{RPCURL: srv.URL, ChainID: chainID})
	require.NoError(t, err)
	return c
}

func TestClientReads(t *testing.T) {
	node := &fakeNode{t: t, balance: big.NewInt(250_000_000), verified: true}
	c := newTestClient(t, node, 8453)
	ctx := context.Background()

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), id)
	require.NoError(t, c.Verify(ctx))

	n, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)

	token := MustAddress("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913")
	holder := MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bal, err := c.BalanceOf(ctx, token, holder)
	require.NoError(t, err)
	assert.Equal(t, "250000000", bal.String())

	ok, err := c.IsVerified(ctx, token, holder)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClientVerifyMismatch(t *testing.T) {
	c := newTestClient(t, &fakeNode{t: t, balance: new(big.Int)}, 1)
	assert.Error(t, c.Verify(context.Background()))
}

func TestClientRPCError(t *testing.T) {
	c := newTestClient(t, &fakeNode{t: t, balance: new(big.Int)}, 0)
	_, err := c.Call(context.Background(), "eth_unknown")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(-32601), rpcErr.Code)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
