package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/traininglog/internal/cache"
	"github.com/2beens/traininglog/internal/config"
	"github.com/2beens/traininglog/internal/db"
	"github.com/2beens/traininglog/internal/entries"
	"github.com/2beens/traininglog/internal/load"
	"github.com/2beens/traininglog/internal/middleware"
	"github.com/2beens/traininglog/internal/sequencing"
	"github.com/2beens/traininglog/internal/telemetry/metrics"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/internal/training"
	"github.com/2beens/traininglog/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	apiSecret         string // checked against the X-TRAININGLOG-TOKEN header
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	loadCache   *cache.LoadCache

	entriesRepo *training.Repo
	renumberer  *sequencing.Renumberer
	reconciler  *sequencing.Reconciler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	APISecret               string
	VersionInfo             string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBPassword:     params.DBPassword,
		MaxConns:       params.Config.PostgresMaxConn,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "traininglog", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "traininglog-backend", rdb)
	if err != nil {
		return nil, err
	}

	entriesRepo := training.NewRepo(dbPool)
	renumberer := sequencing.NewRenumberer(entriesRepo, metricsManager)

	return &Server{
		apiSecret:   params.APISecret,
		versionInfo: params.VersionInfo,

		config:      params.Config,
		dbPool:      dbPool,
		redisClient: rdb,
		loadCache: cache.NewLoadCache(
			rdb,
			params.Config.LoadCacheSizeMB,
			params.Config.LoadCacheTTL(),
		),

		entriesRepo: entriesRepo,
		renumberer:  renumberer,
		reconciler:  sequencing.NewReconciler(entriesRepo, renumberer),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", s.handleVersion).Methods("GET").Name("version")
	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	entriesHandler := entries.NewHandler(
		entries.NewService(s.entriesRepo, s.renumberer, s.loadCache),
	)
	r.HandleFunc("/entries", entriesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-entries")
	r.HandleFunc("/entries", entriesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-entry")
	r.HandleFunc("/entries/renumber", entriesHandler.HandleRenumber).Methods("POST", "OPTIONS").Name("renumber-entries")
	r.HandleFunc("/entries/{id}", entriesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-entry")
	r.HandleFunc("/entries/{id}", entriesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-entry")
	r.HandleFunc("/entries/{id}", entriesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-entry")
	r.HandleFunc("/entries/{id}/complete", entriesHandler.HandleComplete).Methods("POST", "OPTIONS").Name("complete-entry")

	loadHandler := load.NewHandler(
		load.NewService(s.entriesRepo, s.loadCache, s.metricsManager),
		s.config.LoadMaxBuckets,
	)
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	r.Handle("/load", middleware.RateLimit(
		reqRateLimiter,
		s.metricsManager,
		"load",
		s.config.LoadRateLimitAllowedPerMin,
	)(http.HandlerFunc(loadHandler.HandleGetLoad))).Methods("GET", "OPTIONS").Name("get-load")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.apiSecret)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(router, "traininglog-server"),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	if s.config.ReconcileSchedule != "" {
		if err := s.reconciler.Start(ctx, s.config.ReconcileSchedule); err != nil {
			log.Errorf("start renumbering reconciler: %s", err)
		} else {
			log.Debugf("renumbering reconciler scheduled: [%s]", s.config.ReconcileSchedule)
		}
	} else {
		log.Debugln("renumbering reconciler disabled")
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	// waits for a running sweep
	s.reconciler.Stop()
	log.Debugln("reconciler stopped")

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, fmt.Sprintf("traininglog backend, version: %s", s.versionInfo))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.dbPool.Ping(ctx); err != nil {
		log.Errorf("health, ping db: %s", err)
		pkg.WriteResponse(w, pkg.ContentType.Text, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		log.Errorf("health, ping redis: %s", err)
		pkg.WriteResponse(w, pkg.ContentType.Text, "redis unavailable", http.StatusServiceUnavailable)
		return
	}

	pkg.WriteTextResponseOK(w, "ok")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
