// Package wallet assembles the chain, transport and connector bundle the
// application hands to every page, and manages wallet sessions.
package wallet

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"frodoestate/internal/chain"
)

type Transport struct {
	ChainID uint64
	URL     string
}

type Options struct {
	AppName       string
	ProjectID     string
	OnchainKitKey string
	AlchemyKey    string
	Chains        []string
	DefaultChain  string
	RPCOverrides  map[string]string
	Groups        []ConnectorGroup // nil means DefaultGroups
	Logger        *slog.Logger
}

// Config is built once at startup and never modified afterwards. Accessors
// hand out copies.
type Config struct {
	appName       string
	projectID     string
	onchainKitKey string
	chains        []Chain
	defaultChain  Chain
	transports    map[uint64]Transport
	groups        []ConnectorGroup
}

func NewConfig(opts Options) (*Config, error) {
	if len(opts.Chains) == 0 {
		return nil, errors.New("wallet: at least one chain required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	cfg := &Config{
		appName:       opts.AppName,
		projectID:     opts.ProjectID,
		onchainKitKey: opts.OnchainKitKey,
		transports:    make(map[uint64]Transport, len(opts.Chains)),
	}

	overrides := make(map[uint64]string, len(opts.RPCOverrides))
	for name, u := range opts.RPCOverrides {
		c, err := LookupChain(name)
		if err != nil {
			return nil, fmt.Errorf("wallet: rpc override: %w", err)
		}
		overrides[c.ID] = u
	}

	for _, name := range opts.Chains {
		c, err := LookupChain(name)
		if err != nil {
			return nil, fmt.Errorf("wallet: %w", err)
		}
		if _, dup := cfg.transports[c.ID]; dup {
			return nil, fmt.Errorf("wallet: chain %q listed twice", name)
		}
		url := overrides[c.ID]
		if url == "" {
			url = c.alchemyURL(opts.AlchemyKey)
		}
		if url == "" {
			url = c.RPCURL
		}
		cfg.chains = append(cfg.chains, c)
		cfg.transports[c.ID] = Transport{ChainID: c.ID, URL: url}
	}

	def := cfg.chains[0]
	if opts.DefaultChain != "" {
		c, err := LookupChain(opts.DefaultChain)
		if err != nil {
			return nil, fmt.Errorf("wallet: default chain: %w", err)
		}
		if _, ok := cfg.transports[c.ID]; !ok {
			return nil, fmt.Errorf("wallet: default chain %q is not in the chain list", opts.DefaultChain)
		}
		def = c
	}
	cfg.defaultChain = def

	groups := opts.Groups
	if groups == nil {
		groups = DefaultGroups()
	}
	for _, g := range groups {
		kept := ConnectorGroup{Name: g.Name}
		for _, conn := range g.Connectors {
			if conn.RequiresProjectID && opts.ProjectID == "" {
				log.Warn("wallet.connector_skipped", "connector", conn.ID, "reason", "no walletconnect project id")
				continue
			}
			kept.Connectors = append(kept.Connectors, conn)
		}
		if len(kept.Connectors) > 0 {
			cfg.groups = append(cfg.groups, kept)
		}
	}
	return cfg, nil
}

func (c *Config) AppName() string       { return c.appName }
func (c *Config) ProjectID() string     { return c.projectID }
func (c *Config) OnchainKitKey() string { return c.onchainKitKey }
func (c *Config) DefaultChain() Chain   { return c.defaultChain }

func (c *Config) Chains() []Chain {
	return append([]Chain(nil), c.chains...)
}

func (c *Config) Transport(chainID uint64) (Transport, bool) {
	t, ok := c.transports[chainID]
	return t, ok
}

// Transports returns the transports in chain order.
func (c *Config) Transports() []Transport {
	out := make([]Transport, 0, len(c.chains))
	for _, ch := range c.chains {
		out = append(out, c.transports[ch.ID])
	}
	return out
}

func (c *Config) Groups() []ConnectorGroup {
	out := make([]ConnectorGroup, len(c.groups))
	for i, g := range c.groups {
		out[i] = ConnectorGroup{Name: g.Name, Connectors: append([]Connector(nil), g.Connectors...)}
	}
	return out
}

// Connector finds an enabled connector by id.
func (c *Config) Connector(id string) (Connector, bool) {
	for _, g := range c.groups {
		for _, conn := range g.Connectors {
			if conn.ID == id {
				return conn, true
			}
		}
	}
	return Connector{}, false
}

// Client opens an RPC client on the transport of chainID.
func (c *Config) Client(chainID uint64, timeout time.Duration) (*chain.Client, error) {
	t, ok := c.transports[chainID]
	if !ok {
		return nil, fmt.Errorf("wallet: no transport for chain %d", chainID)
	}
	return chain.NewClient(chain.Config{RPCURL: t.URL, ChainID: chainID, Timeout: timeout})
}
