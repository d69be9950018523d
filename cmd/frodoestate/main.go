package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"frodoestate/internal/auth"
	"frodoestate/internal/chain"
	"frodoestate/internal/config"
	"frodoestate/internal/db"
	"frodoestate/internal/dbinit"
	apphttp "frodoestate/internal/http"
	"frodoestate/internal/http/middleware"
	"frodoestate/internal/logging"
	"frodoestate/internal/market"
	"frodoestate/internal/partner"
	"frodoestate/internal/telegram"
	"frodoestate/internal/wallet"
	"frodoestate/internal/web"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil && cfg == nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	l := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(l)

	if err != nil {
		slog.Warn("config.missing", "path", *cfgPath, "err", err)
		slog.Warn("The JWT secret will be defined to a default value. This is a security risk in production.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		slog.Error("frodoestate.exit", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	walletCfg, err := wallet.NewConfig(wallet.Options{
		AppName:       cfg.Wallet.AppName,
		ProjectID:     cfg.Wallet.ProjectID,
		OnchainKitKey: cfg.Wallet.OnchainKitKey,
		AlchemyKey:    cfg.Wallet.AlchemyKey,
		Chains:        cfg.Wallet.Chains,
		DefaultChain:  cfg.Wallet.DefaultChain,
		RPCOverrides:  cfg.Wallet.RPCOverrides,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	signer, err := auth.NewSigner(cfg.Security.JWTSecret, cfg.Security.SessionTTL)
	if err != nil {
		return err
	}
	sessions := wallet.NewSessions(signer, walletCfg.AppName(), cfg.Wallet.SignatureRequired())

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	balances, err := balanceChecker(cfg, walletCfg)
	if err != nil {
		return err
	}
	verifier, err := kycVerifier(cfg, walletCfg)
	if err != nil {
		return err
	}
	var nft chain.Address
	if cfg.Contracts.PropertyNFT != "" {
		if nft, err = chain.ParseAddress(cfg.Contracts.PropertyNFT); err != nil {
			return fmt.Errorf("contracts.property_nft: %w", err)
		}
	}

	var alerts market.Alerter
	if a := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID); a != nil {
		alerts = a
	}

	rend, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.HTTP.ActionsPerMinute)
	if err := limiter.TrustProxies(cfg.HTTP.TrustedProxies...); err != nil {
		return fmt.Errorf("http: %w", err)
	}

	deps := apphttp.Deps{
		TPL:          rend,
		Store:        store,
		Wallet:       walletCfg,
		Sessions:     sessions,
		Purchaser:    &market.Purchaser{Store: store, Balances: balances, Alerts: alerts},
		Partner:      &partner.Service{Verifier: verifier, ChainID: walletCfg.DefaultChain().ID, NFT: nft, Alerts: alerts},
		Metrics:      apphttp.NewMetrics(),
		Limiter:      limiter,
		Logger:       log,
		BaseURL:      cfg.BaseURL,
		SecureCookie: strings.HasPrefix(cfg.BaseURL, "https://"),
	}
	mux, err := apphttp.NewMux(deps)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         cfg.HTTP.Address, // e.g. ":8080"
		Handler:      apphttp.WithStandardMiddleware(mux, deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http.starting", "addr", cfg.HTTP.Address, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("http.shutting_down")
		err := srv.Shutdown(shutdownCtx)
		log.Info("http.stopped")
		return err
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (market.Store, func(), error) {
	seed, err := loadSeed(cfg.Storage.Seed)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Driver == "memory" {
		return market.NewMemoryStore(seed), func() {}, nil
	}

	pool, err := openPostgres(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	store := market.NewPGStore(pool)
	var n int
	if err := pool.QueryRow(ctx, `select count(*) from properties`).Scan(&n); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("count properties: %w", err)
	}
	if n == 0 {
		log.Info("db.seeding", "properties", len(seed.Properties))
		if err := store.Replace(ctx, seed); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return store, pool.Close, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	appURL, err := cfg.Database.AppURL()
	if err != nil {
		return nil, err
	}
	adminURL, err := dbinit.AdminURL(appURL)
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()
	if err := dbinit.EnsureDatabaseAndMigrate(initCtx, adminURL, cfg.Database.Name, cfg.Database.User); err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}
	log.Info("db.migrated", "database", cfg.Database.Name)

	poolCtx, cancelPool := context.WithTimeout(ctx, 20*time.Second)
	defer cancelPool()
	return db.NewPool(poolCtx, db.Options{URL: appURL, MaxConns: cfg.Database.MaxConns, Attempts: 5, Logger: log})
}

func loadSeed(path string) (*market.Seed, error) {
	if path == "" {
		return market.DemoSeed(), nil
	}
	return market.LoadSeedFile(path)
}

func balanceChecker(cfg *config.Config, w *wallet.Config) (market.BalanceChecker, error) {
	if cfg.Wallet.BalanceCheck != "chain" {
		return market.DemoBalances{}, nil
	}
	token, err := chain.ParseAddress(cfg.Contracts.USDC)
	if err != nil {
		return nil, fmt.Errorf("contracts.usdc: %w", err)
	}
	client, err := w.Client(w.DefaultChain().ID, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return market.ChainBalances{Client: client, Token: token, Decimals: chain.USDCDecimals}, nil
}

func kycVerifier(cfg *config.Config, w *wallet.Config) (partner.Verifier, error) {
	if cfg.Contracts.KYC == "" {
		return partner.NewAllowlist(cfg.Contracts.KYCAllowlist)
	}
	registry, err := chain.ParseAddress(cfg.Contracts.KYC)
	if err != nil {
		return nil, fmt.Errorf("contracts.kyc: %w", err)
	}
	client, err := w.Client(w.DefaultChain().ID, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return partner.RegistryVerifier{Client: client, Registry: registry}, nil
}
