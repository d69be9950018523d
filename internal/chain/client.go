package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

// Client is a minimal EVM JSON-RPC client bound to one transport URL.
type Client struct {
	rpcURL     string
	chainID    uint64
	httpClient *http.Client
	nextID     atomic.Uint64
}

type Config struct {
	RPCURL     string
	ChainID    uint64
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("RPC URL required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{rpcURL: cfg.RPCURL, chainID: cfg.ChainID, httpClient: hc}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call performs one JSON-RPC request and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (gjson.Result, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("rpc %s: http status %d", method, resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("rpc %s: malformed response", method)
	}

	parsed := gjson.ParseBytes(raw)
	if e := parsed.Get("error"); e.Exists() && e.Type != gjson.Null {
		return gjson.Result{}, &RPCError{Code: e.Get("code").Int(), Message: e.Get("message").String()}
	}
	result := parsed.Get("result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("rpc %s: missing result", method)
	}
	return result, nil
}

// ChainID asks the node which chain it serves.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	res, err := c.Call(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	return parseQuantity(res.String())
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	res, err := c.Call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return parseQuantity(res.String())
}

// EthCall executes a read-only call against the latest block.
func (c *Client) EthCall(ctx context.Context, to Address, data []byte) ([]byte, error) {
	msg := map[string]string{
		"to":   to.Hex(),
		"data": "0x" + hex.EncodeToString(data),
	}
	res, err := c.Call(ctx, "eth_call", msg, "latest")
	if err != nil {
		return nil, err
	}
	return decodeHex(res.String())
}

// Verify checks that the transport really serves the configured chain.
func (c *Client) Verify(ctx context.Context) error {
	if c.chainID == 0 {
		return nil
	}
	got, err := c.ChainID(ctx)
	if err != nil {
		return err
	}
	if got != c.chainID {
		return fmt.Errorf("transport %s serves chain %d, want %d", c.rpcURL, got, c.chainID)
	}
	return nil
}

func parseQuantity(s string) (uint64, error) {
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("bad quantity %q", s)
	}
	return strconv.ParseUint(s[2:], 16, 64)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}
