package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns Defaults with the required operator-supplied fields
// filled in.
func validConfig() Config {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	cfg.Contracts.Dragon = "0x1000000000000000000000000000000000000001"
	cfg.Contracts.Market = "0x2000000000000000000000000000000000000002"
	cfg.Contracts.Drink = "0x3000000000000000000000000000000000000003"
	cfg.Contracts.Forwarder = "0x4000000000000000000000000000000000000004"
	return cfg
}

func TestValidateAcceptsFilledDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "trade"
	cfg.Contracts.Market = "not-an-address"
	cfg.Relay.APIKey = "key-without-secret"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "market is not a valid hex address")
	assert.Contains(t, err.Error(), "api_key and api_secret must be set together")
}

func TestValidateRequiresWalletKeySource(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.PrivateKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key or encrypted_key_path")

	cfg.Wallet.EncryptedKeyPath = "/keys/wallet.json"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password is required")

	cfg.Wallet.KeyPassword = "hunter2"
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRAGON_CHAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("DRAGON_CHAIN_ID", "1")
	t.Setenv("DRAGON_RELAY_WAIT_MINED", "true")
	t.Setenv("DRAGON_RECONCILE_INTERVAL", "30s")
	t.Setenv("DRAGON_SERVER_CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "https://rpc.example.com", cfg.Chain.RPCURL)
	assert.Equal(t, int64(1), cfg.Chain.ChainID)
	assert.True(t, cfg.Relay.WaitMined)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval.Duration)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestEnvOverridesIgnoreUnsetAndEmpty(t *testing.T) {
	t.Setenv("DRAGON_CHAIN_RPC_URL", "")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
}

func TestDurationTextRoundTrip(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("5m")))
	assert.Equal(t, 5*time.Minute, d.Duration)

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Relay.APIKey = "key"
	cfg.Relay.APISecret = "secret"
	cfg.Redis.Password = "redispass"
	cfg.Server.APIKey = "serverkey"

	red := RedactedConfig(&cfg)

	assert.NotEqual(t, cfg.Wallet.PrivateKey, red.Wallet.PrivateKey)
	assert.NotEqual(t, cfg.Relay.APISecret, red.Relay.APISecret)
	assert.NotEqual(t, cfg.Redis.Password, red.Redis.Password)
	assert.NotEqual(t, cfg.Server.APIKey, red.Server.APIKey)

	// Non-secret fields pass through untouched, and the original is never
	// mutated.
	assert.Equal(t, cfg.Chain.RPCURL, red.Chain.RPCURL)
	assert.Equal(t, "key", cfg.Relay.APIKey)
	assert.Equal(t, "secret", cfg.Relay.APISecret)
}
