package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads path and applies environment overrides. When the file cannot be
// opened a defaulted config is returned together with the error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		var cfg Config
		cfg.ApplyEnv(os.Getenv)
		cfg.Defaults()
		return &cfg, err
	}
	defer f.Close()
	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return finish(cfg)
}

// FromReader decodes a config without consulting the environment.
func FromReader(r io.Reader) (*Config, error) {
	cfg, err := decode(r)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func decode(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills wallet identifiers from the environment. Values already
// present in the file win.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Wallet.AppName, "APP_NAME")
	set(&c.Wallet.ProjectID, "WALLET_CONNECT_ID", "NEXT_PUBLIC_WALLET_CONNECT_ID")
	set(&c.Wallet.OnchainKitKey, "ONCHAIN_KIT_KEY")
	set(&c.Wallet.AlchemyKey, "ALCHEMY_ID")
	set(&c.Wallet.InfuraKey, "INFURA_ID")
	set(&c.Wallet.EtherscanKey, "ETHERSCAN_API_KEY")
	set(&c.Security.JWTSecret, "JWT_SECRET")
	set(&c.Database.URL, "DATABASE_URL")
	set(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	if len(c.HTTP.TrustedProxies) == 0 {
		for _, p := range strings.Split(getenv("TRUSTED_PROXIES"), ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.HTTP.TrustedProxies = append(c.HTTP.TrustedProxies, p)
			}
		}
	}
}
