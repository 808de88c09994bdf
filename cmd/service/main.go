package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/2beens/traininglog/internal"
	"github.com/2beens/traininglog/internal/config"
	"github.com/2beens/traininglog/internal/logging"
	"github.com/2beens/traininglog/pkg"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// secrets are never part of the TOML config, only of the environment
type secrets struct {
	apiSecret     string
	dbPassword    string
	redisPassword string
	sentryDSN     string
}

func secretsFromEnv() secrets {
	s := secrets{
		apiSecret:     os.Getenv("TRAININGLOG_API_SECRET"),
		dbPassword:    os.Getenv("TRAININGLOG_DB_PASS"),
		redisPassword: os.Getenv("TRAININGLOG_REDIS_PASS"),
		sentryDSN:     os.Getenv("SENTRY_DSN"),
	}
	if s.apiSecret == "" {
		log.Errorln("api secret not set, all owner requests will be rejected. use TRAININGLOG_API_SECRET")
	}
	if s.redisPassword == "" {
		log.Warnln("redis password not set. use TRAININGLOG_REDIS_PASS")
	}
	return s
}

func main() {
	fmt.Println("starting traininglog service ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional .env file with secrets")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Warnf("load env file [%s]: %s", *envFile, err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	sec := secretsFromEnv()
	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sec.sentryDSN,
		SentryServerName: "traininglog-service",
	})
	defer func() {
		if err := logCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %s\n", err)
		}
	}()

	log.Warnf("---->> running in [%s] environment, port [%d]", cfg.Environment, cfg.Port)

	versionInfo := versionInfo()
	log.Debugf("running version: %s", versionInfo)

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if os.Getenv("HONEYCOMB_API_KEY") == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
		if os.Getenv("OTEL_SERVICE_NAME") == "" {
			log.Warnln("OTEL_SERVICE_NAME env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			APISecret:               sec.apiSecret,
			VersionInfo:             versionInfo,
			DBPassword:              sec.dbPassword,
			RedisPassword:           sec.redisPassword,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	<-ctx.Done()
	log.Warnln("stop signal received, shutting down ...")

	server.GracefulShutdown()
}

// versionInfo prefers the vcs revision stamped into the binary,
// then the HEAD of a git checkout in the working dir.
func versionInfo() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}

	stdout, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		log.Tracef("get last commit hash: %s", err)
		return "unknown"
	}
	return strings.TrimSpace(pkg.BytesToString(stdout))
}
