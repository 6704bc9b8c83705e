package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DRAGON_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DRAGON_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "DRAGON_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "DRAGON_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "DRAGON_WALLET_KEY_PASSWORD")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "DRAGON_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "DRAGON_CHAIN_ID")
	setDuration(&cfg.Chain.PollInterval, "DRAGON_CHAIN_POLL_INTERVAL")
	setDuration(&cfg.Chain.MinedTimeout, "DRAGON_CHAIN_MINED_TIMEOUT")

	// ── Contracts ──
	setStr(&cfg.Contracts.Dragon, "DRAGON_CONTRACTS_DRAGON")
	setStr(&cfg.Contracts.Market, "DRAGON_CONTRACTS_MARKET")
	setStr(&cfg.Contracts.Drink, "DRAGON_CONTRACTS_DRINK")
	setStr(&cfg.Contracts.Forwarder, "DRAGON_CONTRACTS_FORWARDER")

	// ── Relay ──
	setStr(&cfg.Relay.URL, "DRAGON_RELAY_URL")
	setStr(&cfg.Relay.APIKey, "DRAGON_RELAY_API_KEY")
	setStr(&cfg.Relay.APISecret, "DRAGON_RELAY_API_SECRET")
	setStr(&cfg.Relay.DomainName, "DRAGON_RELAY_DOMAIN_NAME")
	setStr(&cfg.Relay.DomainVersion, "DRAGON_RELAY_DOMAIN_VERSION")
	setUint64(&cfg.Relay.DefaultGas, "DRAGON_RELAY_DEFAULT_GAS")
	setBool(&cfg.Relay.WaitMined, "DRAGON_RELAY_WAIT_MINED")

	// ── Reconcile ──
	setDuration(&cfg.Reconcile.Interval, "DRAGON_RECONCILE_INTERVAL")
	setDuration(&cfg.Reconcile.CacheTTL, "DRAGON_RECONCILE_CACHE_TTL")
	setDuration(&cfg.Reconcile.LockTTL, "DRAGON_RECONCILE_LOCK_TTL")
	setBool(&cfg.Reconcile.ArchiveSnapshots, "DRAGON_RECONCILE_ARCHIVE_SNAPSHOTS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DRAGON_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DRAGON_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DRAGON_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DRAGON_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DRAGON_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DRAGON_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "DRAGON_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "DRAGON_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DRAGON_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DRAGON_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DRAGON_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DRAGON_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DRAGON_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DRAGON_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DRAGON_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DRAGON_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DRAGON_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "DRAGON_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "DRAGON_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DRAGON_S3_REGION")
	setStr(&cfg.S3.Bucket, "DRAGON_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DRAGON_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DRAGON_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DRAGON_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DRAGON_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DRAGON_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DRAGON_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DRAGON_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DRAGON_SERVER_API_KEY")
	setInt(&cfg.Server.ActionRateLimit, "DRAGON_SERVER_ACTION_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DRAGON_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DRAGON_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DRAGON_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DRAGON_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DRAGON_MODE")
	setStr(&cfg.LogLevel, "DRAGON_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
