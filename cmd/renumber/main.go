package main

//// One-shot CLI: runs a renumbering pass for one owner, or for all owners,
//// against the configured database.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/traininglog/internal/config"
	"github.com/2beens/traininglog/internal/db"
	"github.com/2beens/traininglog/internal/logging"
	"github.com/2beens/traininglog/internal/sequencing"
	"github.com/2beens/traininglog/internal/telemetry/metrics"
	"github.com/2beens/traininglog/internal/training"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	ownerID := flag.String("owner", "", "owner to renumber")
	all := flag.Bool("all", false, "renumber all owners")
	timeout := flag.Duration("timeout", 5*time.Minute, "max duration of the run")
	flag.Parse()

	if (*ownerID == "") == !*all {
		fmt.Fprintln(os.Stderr, "exactly one of -owner or -all must be set")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	logging.Setup(logging.LoggerSetupParams{
		LogLevel: cfg.LogLevel,
	})

	if err := run(cfg, *ownerID, *timeout); err != nil {
		log.Errorf("renumber: %s", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, ownerID string, timeout time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBPassword: os.Getenv("TRAININGLOG_DB_PASS"),
	})
	if err != nil {
		return fmt.Errorf("new db pool: %w", err)
	}
	defer dbPool.Close()

	repo := training.NewRepo(dbPool)
	renumberer := sequencing.NewRenumberer(
		repo,
		metrics.NewManager("cli", "renumber", prometheus.NewRegistry()),
	)

	if ownerID == "" {
		result, err := sequencing.NewReconciler(repo, renumberer).Sweep(ctx)
		fmt.Printf("owners: %d, failed: %d, numbering updates: %d\n", result.Owners, result.Failed, result.Updated)
		return err
	}

	pass, err := renumberer.Renumber(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("owner [%s]: %w", ownerID, err)
	}
	fmt.Printf("owner [%s]: %d entries, %d weeks, numbering updates: %d\n", pass.OwnerID, pass.Entries, pass.Weeks, pass.Updated)

	return nil
}
