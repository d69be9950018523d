package config

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BaseURL string `yaml:"base_url"`

	HTTP struct {
		Address string `yaml:"address"`
		// POST requests allowed per client IP per minute.
		ActionsPerMinute int `yaml:"actions_per_minute"`
		// Proxies (CIDR or address) allowed to set X-Forwarded-For.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"http"`

	Storage struct {
		Driver string `yaml:"driver"` // "memory" | "postgres"
		Seed   string `yaml:"seed"`   // optional seed file; embedded demo data when empty
	} `yaml:"storage"`

	Database DatabaseConfig `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
		Format string `yaml:"format"` // "text" | "json"
	} `yaml:"logging"`

	Security struct {
		JWTSecret  string        `yaml:"jwt_secret"`
		SessionTTL time.Duration `yaml:"session_ttl"`
	} `yaml:"security"`

	Wallet WalletConfig `yaml:"wallet"`

	Contracts ContractsConfig `yaml:"contracts"`

	// Operator alerts for purchases and mint preparations. Disabled when
	// either value is empty.
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"` // e.g. "disable" | "require"
	MaxConns int32  `yaml:"max_conns"`
}

type WalletConfig struct {
	AppName          string            `yaml:"app_name"`
	ProjectID        string            `yaml:"project_id"` // WalletConnect cloud project id
	OnchainKitKey    string            `yaml:"onchain_kit_key"`
	AlchemyKey       string            `yaml:"alchemy_key"`
	InfuraKey        string            `yaml:"infura_key"`
	EtherscanKey     string            `yaml:"etherscan_key"`
	Chains           []string          `yaml:"chains"`
	DefaultChain     string            `yaml:"default_chain"`
	RPCOverrides     map[string]string `yaml:"rpc_overrides"` // chain name -> url
	RequireSignature *bool             `yaml:"require_signature"`
	BalanceCheck     string            `yaml:"balance_check"` // "demo" | "chain"
}

type ContractsConfig struct {
	USDC         string   `yaml:"usdc"`
	PropertyNFT  string   `yaml:"property_nft"`
	KYC          string   `yaml:"kyc"`
	KYCAllowlist []string `yaml:"kyc_allowlist"`
}

// DefaultChains mirrors the chain list the wallet modal offers.
var DefaultChains = []string{"arbitrum", "optimism", "polygon", "base", "base-sepolia", "mainnet", "sepolia"}

func (c *Config) Defaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ActionsPerMinute == 0 {
		c.HTTP.ActionsPerMinute = 30
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Database.Host == "" {
		c.Database.Host = "db"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "frodoestate"
	}
	if c.Database.Name == "" {
		c.Database.Name = "frodoestate"
	}
	if c.Database.Password == "" {
		c.Database.Password = "password"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Security.JWTSecret == "" {
		c.Security.JWTSecret = "change-me"
	}
	if c.Security.SessionTTL == 0 {
		c.Security.SessionTTL = 72 * time.Hour
	}
	if c.Wallet.AppName == "" {
		c.Wallet.AppName = "Frodo Estate"
	}
	if len(c.Wallet.Chains) == 0 {
		c.Wallet.Chains = append([]string(nil), DefaultChains...)
	}
	if c.Wallet.DefaultChain == "" {
		c.Wallet.DefaultChain = "base"
	}
	if c.Wallet.RequireSignature == nil {
		v := true
		c.Wallet.RequireSignature = &v
	}
	if c.Wallet.BalanceCheck == "" {
		c.Wallet.BalanceCheck = "demo"
	}
}

func (c *Config) Validate() error {
	var errs []string
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		// DB must have either URL or (Host, User, Name)
		if c.Database.URL == "" {
			if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
				errs = append(errs, "database.url or database.{host,user,name} must be set")
			}
		}
	default:
		errs = append(errs, "storage.driver must be memory or postgres")
	}
	switch c.Wallet.BalanceCheck {
	case "demo":
	case "chain":
		if c.Contracts.USDC == "" {
			errs = append(errs, "contracts.usdc must be set when wallet.balance_check is chain")
		}
	default:
		errs = append(errs, "wallet.balance_check must be demo or chain")
	}
	if c.HTTP.ActionsPerMinute < 0 {
		errs = append(errs, "http.actions_per_minute must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// SignatureRequired reports whether wallet connects must carry a signed challenge.
func (w *WalletConfig) SignatureRequired() bool {
	return w.RequireSignature == nil || *w.RequireSignature
}

// AppURL returns a postgres connection URL for the application DB.
func (d *DatabaseConfig) AppURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", errors.New("database config incomplete: need host, user, name or set url")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
