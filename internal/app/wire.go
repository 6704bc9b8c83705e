package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	s3blob "github.com/bchsol/CryptoDragon/internal/blob/s3"
	"github.com/bchsol/CryptoDragon/internal/cache/redis"
	"github.com/bchsol/CryptoDragon/internal/chain"
	"github.com/bchsol/CryptoDragon/internal/config"
	"github.com/bchsol/CryptoDragon/internal/crypto"
	"github.com/bchsol/CryptoDragon/internal/domain"
	"github.com/bchsol/CryptoDragon/internal/notify"
	"github.com/bchsol/CryptoDragon/internal/reconcile"
	"github.com/bchsol/CryptoDragon/internal/relay"
	"github.com/bchsol/CryptoDragon/internal/session"
	"github.com/bchsol/CryptoDragon/internal/station"
	"github.com/bchsol/CryptoDragon/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Session *session.Session
	Station *station.Station

	// Chain
	Chain     *chain.Client
	Dragon    *chain.Dragon
	Market    *chain.Market
	Drink     *chain.Drink
	Forwarder *chain.Forwarder

	// Cache and coordination
	ListingCache domain.ListingCache
	LockManager  domain.LockManager
	RateLimiter  domain.RateLimiter
	SignalBus    domain.SignalBus

	// Journal
	ActionStore domain.ActionStore

	// Blob storage
	Archiver      domain.SnapshotArchiver
	ArchiveReader domain.BlobReader

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Wallet key and signer ---
	keyHex, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
	}

	forwarderAddr := common.HexToAddress(cfg.Contracts.Forwarder)
	signer, err := crypto.NewSigner(crypto.SignerConfig{
		PrivateKeyHex: keyHex,
		ChainID:       cfg.Chain.ChainID,
		Forwarder:     forwarderAddr,
		DomainName:    cfg.Relay.DomainName,
		DomainVersion: cfg.Relay.DomainVersion,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: signer: %w", err)
	}
	deps.Session = session.New(signer)

	// --- Chain client and contract wrappers ---
	chainClient, err := chain.Dial(ctx, chain.ClientConfig{
		RPCURL:       cfg.Chain.RPCURL,
		PollInterval: cfg.Chain.PollInterval.Duration,
		MinedTimeout: cfg.Chain.MinedTimeout.Duration,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, chainClient.Close)
	deps.Chain = chainClient

	if got := chainClient.ChainID().Int64(); got != cfg.Chain.ChainID {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain id mismatch: rpc reports %d, config says %d", got, cfg.Chain.ChainID)
	}

	deps.Dragon, err = chain.NewDragon(chainClient, common.HexToAddress(cfg.Contracts.Dragon))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: dragon contract: %w", err)
	}
	deps.Market, err = chain.NewMarket(chainClient, common.HexToAddress(cfg.Contracts.Market))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: market contract: %w", err)
	}
	deps.Drink, err = chain.NewDrink(chainClient, common.HexToAddress(cfg.Contracts.Drink))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: drink contract: %w", err)
	}
	deps.Forwarder, err = chain.NewForwarder(chainClient, forwarderAddr)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: forwarder contract: %w", err)
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.ListingCache = redis.NewListingCache(redisClient, cfg.Reconcile.CacheTTL.Duration)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- PostgreSQL action journal (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.ActionStore = postgres.NewActionStore(pgClient.Pool())
	}

	// --- S3 snapshot archive (optional) ---
	if cfg.S3.Enabled && cfg.Reconcile.ArchiveSnapshots {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
		deps.ArchiveReader = s3blob.NewReader(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Relay transport ---
	var auth *crypto.HMACAuth
	if cfg.Relay.APIKey != "" {
		auth = &crypto.HMACAuth{Key: cfg.Relay.APIKey, Secret: cfg.Relay.APISecret}
	}
	transport := relay.NewClient(cfg.Relay.URL, auth)

	// --- Reconciler and station ---
	reconciler := reconcile.New(deps.Market, deps.Drink, deps.Dragon.Address(), logger)

	var waiter domain.ReceiptWaiter
	if cfg.Relay.WaitMined {
		waiter = chainClient
	}

	deps.Station = station.New(deps.Session, station.Deps{
		Dragon:     deps.Dragon,
		Market:     deps.Market,
		Forwarder:  deps.Forwarder,
		Transport:  transport,
		Source:     deps.Dragon,
		Reconciler: reconciler,
		Locks:      deps.LockManager,
		Cache:      deps.ListingCache,
		Journal:    deps.ActionStore,
		Notifier:   deps.Notifier,
		Bus:        deps.SignalBus,
		Waiter:     waiter,
		Archiver:   deps.Archiver,
	}, station.Config{
		DefaultGas: cfg.Relay.DefaultGas,
		LockTTL:    cfg.Reconcile.LockTTL.Duration,
		CacheTTL:   cfg.Reconcile.CacheTTL.Duration,
	}, logger)

	return deps, cleanup, nil
}
