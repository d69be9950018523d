package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/term"

	"frodoestate/internal/config"
	"frodoestate/internal/db"
	"frodoestate/internal/dbinit"
	"frodoestate/internal/market"
	"frodoestate/internal/wallet"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "migrate":
		migrateCmd(os.Args[2:])
	case "seed":
		seedCmd(os.Args[2:])
	case "chains":
		chainsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`frodoctl - frodoestate admin CLI

Usage:
  frodoctl migrate [-status] [-config config.yaml] [-db postgres://...] [-ask-password]
  frodoctl seed [<file.yaml>] [-dry-run] [-config config.yaml] [-db postgres://...] [-ask-password]
  frodoctl chains [-check] [-config config.yaml]

Examples:
  frodoctl migrate
  frodoctl migrate -status
  frodoctl seed ./listings.yaml
  frodoctl seed -dry-run
  frodoctl chains -check`)
}

func migrateCmd(args []string) {
	fs := newFlagSet("migrate")
	var (
		cfgPath    = fs.String("config", "config.yaml", "path to config file")
		dbOverride = fs.String("db", "", "override database connection URL")
		askPW      = fs.Bool("ask-password", false, "prompt for the database password")
		status     = fs.Bool("status", false, "list migrations without applying them")
	)
	_ = fs.Parse(reorderArgs(args))

	cfg := loadConfig(*cfgPath)
	appURL, err := resolveDBURL(cfg, *dbOverride, *askPW)
	if err != nil {
		log.Fatalf("db url: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !*status {
		adminURL, err := dbinit.AdminURL(appURL)
		if err != nil {
			log.Fatalf("db url: %v", err)
		}
		if err := dbinit.EnsureDatabaseAndMigrate(ctx, adminURL, cfg.Database.Name, cfg.Database.User); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	conn, err := pgx.Connect(ctx, appURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer conn.Close(context.Background())

	st, err := dbinit.Status(ctx, conn)
	if err != nil {
		log.Fatalf("status: %v", err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MIGRATION\tAPPLIED")
	for _, m := range st {
		applied := "pending"
		if m.Applied {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\n", m.Filename, applied)
	}
	_ = tw.Flush()
}

func seedCmd(args []string) {
	fs := newFlagSet("seed")
	var (
		cfgPath    = fs.String("config", "config.yaml", "path to config file")
		dbOverride = fs.String("db", "", "override database connection URL")
		askPW      = fs.Bool("ask-password", false, "prompt for the database password")
		dryRun     = fs.Bool("dry-run", false, "validate the seed and print a summary only")
	)
	_ = fs.Parse(reorderArgs(args))

	seed := market.DemoSeed()
	source := "embedded demo data"
	if rest := fs.Args(); len(rest) > 0 {
		s, err := market.LoadSeedFile(rest[0])
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		seed, source = s, rest[0]
	}
	fmt.Printf("seed: %s\n  properties: %d\n  allocations: %d\n  strategies: %d\n  pools: %d\n",
		source, len(seed.Properties), len(seed.Allocations), len(seed.Strategies), len(seed.Pools))
	if *dryRun {
		return
	}

	cfg := loadConfig(*cfgPath)
	appURL, err := resolveDBURL(cfg, *dbOverride, *askPW)
	if err != nil {
		log.Fatalf("db url: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, db.Options{URL: appURL, MaxConns: 2})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := market.NewPGStore(pool).Replace(ctx, seed); err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Println("ok: market data replaced")
}

func chainsCmd(args []string) {
	fs := newFlagSet("chains")
	var (
		cfgPath = fs.String("config", "config.yaml", "path to config file")
		check   = fs.Bool("check", false, "call eth_chainId on every transport")
	)
	_ = fs.Parse(reorderArgs(args))

	cfg := loadConfig(*cfgPath)
	w, err := wallet.NewConfig(wallet.Options{
		AppName:      cfg.Wallet.AppName,
		ProjectID:    cfg.Wallet.ProjectID,
		AlchemyKey:   cfg.Wallet.AlchemyKey,
		Chains:       cfg.Wallet.Chains,
		DefaultChain: cfg.Wallet.DefaultChain,
		RPCOverrides: cfg.Wallet.RPCOverrides,
	})
	if err != nil {
		log.Fatalf("wallet: %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNETWORK\tNAME\tRPC\tSTATUS")
	failed := 0
	for _, c := range w.Chains() {
		tr, _ := w.Transport(c.ID)
		status := "-"
		if *check {
			status = "ok"
			if err := verifyChain(w, c.ID); err != nil {
				status = err.Error()
				failed++
			}
		}
		name := c.Name
		if c.ID == w.DefaultChain().ID {
			name += " (default)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Network, name, redactKey(tr.URL), status)
	}
	_ = tw.Flush()
	if failed > 0 {
		os.Exit(1)
	}
}

func verifyChain(w *wallet.Config, chainID uint64) error {
	client, err := w.Client(chainID, 5*time.Second)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Verify(ctx)
}

// redactKey hides the API key path segment of hosted RPC URLs.
func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if i := strings.LastIndex(u.Path, "/"); i >= 0 && len(u.Path)-i > 12 {
		u.Path = u.Path[:i+1] + "***"
	}
	return u.String()
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil && cfg == nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after input
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	return strings.TrimSpace(string(b))
}

func resolveDBURL(cfg *config.Config, override string, ask bool) (string, error) {
	raw := strings.TrimSpace(override)
	if raw == "" {
		var err error
		if raw, err = cfg.Database.AppURL(); err != nil {
			return "", err
		}
	}
	if !ask {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	user := cfg.Database.User
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, promptPassword("Database password: "))
	return u.String(), nil
}
