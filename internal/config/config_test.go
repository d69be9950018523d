package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 72*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, DefaultChains, cfg.Wallet.Chains)
	assert.Equal(t, "base", cfg.Wallet.DefaultChain)
	assert.True(t, cfg.Wallet.SignatureRequired())
	assert.Equal(t, "demo", cfg.Wallet.BalanceCheck)
}

func TestFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := FromReader(strings.NewReader("http:\n  adress: \":9000\"\n"))
	require.Error(t, err)
}

func TestFromReaderParsesWallet(t *testing.T) {
	src := `
wallet:
  project_id: abc
  chains: [mainnet, sepolia]
  default_chain: sepolia
  require_signature: false
security:
  session_ttl: 2h
`
	cfg, err := FromReader(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Wallet.ProjectID)
	assert.Equal(t, []string{"mainnet", "sepolia"}, cfg.Wallet.Chains)
	assert.False(t, cfg.Wallet.SignatureRequired())
	assert.Equal(t, 2*time.Hour, cfg.Security.SessionTTL)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"bad driver", "storage:\n  driver: mongo\n", "storage.driver"},
		{"chain balance without usdc", "wallet:\n  balance_check: chain\n", "contracts.usdc"},
		{"bad balance mode", "wallet:\n  balance_check: maybe\n", "wallet.balance_check"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader(strings.NewReader(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NEXT_PUBLIC_WALLET_CONNECT_ID": "wc-123",
		"ONCHAIN_KIT_KEY":               "ock",
		"ALCHEMY_ID":                    "alch",
		"TRUSTED_PROXIES":               "10.0.0.0/8, 127.0.0.1",
	}
	var cfg Config
	cfg.Wallet.OnchainKitKey = "from-file"
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "wc-123", cfg.Wallet.ProjectID)
	assert.Equal(t, "from-file", cfg.Wallet.OnchainKitKey)
	assert.Equal(t, "alch", cfg.Wallet.AlchemyKey)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.HTTP.TrustedProxies)
}

func TestAppURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	got, err := d.AppURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", got)

	_, err = (&DatabaseConfig{}).AppURL()
	assert.Error(t, err)
}
