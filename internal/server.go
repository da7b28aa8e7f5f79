package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

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

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/config"
	"github.com/2beens/gymplan/internal/db"
	"github.com/2beens/gymplan/internal/docstore"
	"github.com/2beens/gymplan/internal/history"
	"github.com/2beens/gymplan/internal/mcp"
	"github.com/2beens/gymplan/internal/middleware"
	"github.com/2beens/gymplan/internal/misc"
	"github.com/2beens/gymplan/internal/plan"
	"github.com/2beens/gymplan/internal/preferences"
	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/internal/timer"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient    *redis.Client
	sessionChecker *auth.SessionChecker
	authService    *auth.Service

	planService   *plan.Service
	timerService  *timer.Service
	historyRepo   *history.Repo
	prefsStore    *preferences.Store
	shutdownDrain time.Duration

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	DBUser                  string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	poolParams := db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         params.DBUser,
		DBPassword:     params.DBPassword,
		SSLMode:        cfg.PostgresSSLMode,
		TracingEnabled: params.HoneycombTracingEnabled,
	}
	dbPool, err := db.NewDBPool(ctx, poolParams)
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(poolParams.ConnString()); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("gymplan", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	accounts := Accounts(cfg.Users)
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	authService := auth.NewAuthService(accounts, sessionTTL, rdb)
	go func() {
		ticker := time.NewTicker(8 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				authService.ScanAndClean(ctx)
			}
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymplan-backend", rdb)
	if err != nil {
		return nil, err
	}

	docBackend := newDocBackend(cfg, dbPool, rdb)
	docStore := docstore.NewStore(docBackend, docstore.Config{
		UserCollection:        cfg.UserCollection,
		WorkoutsSubcollection: cfg.WorkoutsSubcollection,
		DocumentID:            cfg.DocumentID,
		MaxConflictRetries:    cfg.MaxConflictRetries,
	}, metricsManager)

	planService := plan.NewService(plan.NewServiceParams{
		Store:          docStore,
		MaxTabs:        cfg.MaxTabs,
		SyncQueueSize:  cfg.SyncQueueSize,
		MetricsManager: metricsManager,
	})

	historyRepo := history.NewRepo(dbPool)
	timerService := timer.NewService(timer.NewServiceParams{
		PlanItems:         planService,
		OnCircuitFinished: recordFinishedCircuit(historyRepo, time.Now),
		CountdownSeconds:  cfg.CountdownSeconds,
		CountdownTick:     time.Duration(cfg.CountdownTickMilli) * time.Millisecond,
		CircuitTick:       time.Duration(cfg.CircuitTickMillis) * time.Millisecond,
		NewTicker:         timer.NewStdTicker,
		MetricsManager:    metricsManager,
		IdleTTL:           time.Duration(cfg.TimerIdleMinutes) * time.Minute,
	})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				timerService.ScanAndClean()
			}
		}
	}()

	prefsStore, err := preferences.OpenStore(cfg.PreferencesDBPath, cfg.DefaultTheme)
	if err != nil {
		return nil, fmt.Errorf("open preferences store: %w", err)
	}

	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:    rdb,
		authService:    authService,
		sessionChecker: auth.NewSessionChecker(accounts, sessionTTL, rdb),

		planService:   planService,
		timerService:  timerService,
		historyRepo:   historyRepo,
		prefsStore:    prefsStore,
		shutdownDrain: 10 * time.Second,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

// Accounts maps the configured users to the accounts allowed to sign in.
func Accounts(users []config.User) []auth.Account {
	accounts := make([]auth.Account, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, auth.Account{
			User: auth.User{
				UID:         u.UID,
				DisplayName: u.DisplayName,
				Email:       u.Email,
				PhotoURL:    u.PhotoURL,
			},
			PasswordHash: u.PasswordHash,
		})
	}
	return accounts
}

func newDocBackend(cfg *config.Config, dbPool *pgxpool.Pool, rdb *redis.Client) docstore.Backend {
	var backend docstore.Backend
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		backend = docstore.NewRedisBackend(rdb)
	case config.StoreBackendMemory:
		log.Warnln("plan documents kept in memory, they will not survive a restart")
		backend = docstore.NewMemoryBackend()
	default:
		backend = docstore.NewPostgresBackend(dbPool)
	}

	if cfg.DocCacheSizeMB > 0 {
		return docstore.NewCachedBackend(backend, cfg.DocCacheSizeMB, cfg.DocCacheTTLSeconds)
	}
	return backend
}

type historyWriter interface {
	AddMany(ctx context.Context, records []history.Record) error
}

// recordFinishedCircuit logs the trainings of a finished circuit as today's history.
func recordFinishedCircuit(repo historyWriter, now func() time.Time) timer.FinishedFunc {
	return func(ctx context.Context, userID string, exercises []timer.Exercise) {
		records := CircuitRecords(userID, exercises, now())
		if len(records) == 0 {
			return
		}
		if err := repo.AddMany(ctx, records); err != nil {
			log.Errorf("record finished circuit for %s: %s", userID, err)
			return
		}
		log.Debugf("recorded %d exercises of a finished circuit for %s", len(records), userID)
	}
}

// CircuitRecords returns one history record per training of a finished circuit. Rests are skipped.
func CircuitRecords(userID string, exercises []timer.Exercise, at time.Time) []history.Record {
	date := history.Today(at)
	records := make([]history.Record, 0, len(exercises))
	for _, ex := range exercises {
		if ex.Rest {
			continue
		}
		records = append(records, history.Record{
			UserID:    userID,
			Date:      date,
			Exercise:  ex.Name,
			Sets:      ex.Sets,
			Reps:      ex.Reps,
			CreatedAt: at,
		})
	}
	return records
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.versionInfo, s.authService)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.config.SignInRateLimitPerMin, s.metricsManager)

	planHandler := plan.NewHandler(s.planService)
	r.HandleFunc("/plan/tabs", planHandler.HandleGetPlan).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/plan/tabs", planHandler.HandleAddTab).Methods("POST", "OPTIONS").Name("add-tab")
	r.HandleFunc("/plan/tabs/{id}", planHandler.HandleRenameTab).Methods("PUT", "OPTIONS").Name("rename-tab")
	r.HandleFunc("/plan/tabs/{id}", planHandler.HandleDeleteTab).Methods("DELETE", "OPTIONS").Name("delete-tab")
	r.HandleFunc("/plan/tabs/{id}/activate", planHandler.HandleActivateTab).Methods("POST", "OPTIONS").Name("activate-tab")
	r.HandleFunc("/plan/tabs/{id}/items", planHandler.HandleTabItems).Methods("GET", "OPTIONS").Name("tab-items")
	r.HandleFunc("/plan/tabs/{id}/items/training", planHandler.HandleAddTraining).Methods("POST", "OPTIONS").Name("add-training")
	r.HandleFunc("/plan/tabs/{id}/items/interval", planHandler.HandleAddInterval).Methods("POST", "OPTIONS").Name("add-interval")
	r.HandleFunc("/plan/tabs/{id}/items/order", planHandler.HandleReorder).Methods("PUT", "OPTIONS").Name("reorder-items")
	r.HandleFunc("/plan/items/{id}", planHandler.HandleUpdateItem).Methods("PATCH", "OPTIONS").Name("update-item")
	r.HandleFunc("/plan/items/{id}", planHandler.HandleDeleteItem).Methods("DELETE", "OPTIONS").Name("delete-item")

	timerHandler := timer.NewHandler(s.timerService)
	r.HandleFunc("/timer/countdown", timerHandler.HandleCreateCountdown).Methods("POST", "OPTIONS").Name("new-countdown")
	r.HandleFunc("/timer/circuit", timerHandler.HandleCreateCircuit).Methods("POST", "OPTIONS").Name("new-circuit")
	r.HandleFunc("/timer/{id}", timerHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-timer")
	r.HandleFunc("/timer/{id}", timerHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-timer")
	r.HandleFunc("/timer/{id}/{action}", timerHandler.HandleAction).Methods("POST", "OPTIONS").Name("timer-action")

	historyHandler := history.NewHandler(s.historyRepo)
	r.HandleFunc("/history", historyHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-record")
	r.HandleFunc("/history/date/{date}", historyHandler.HandleListForDate).Methods("GET", "OPTIONS").Name("records-for-date")
	r.HandleFunc("/history/month/{year}/{month}", historyHandler.HandleMonth).Methods("GET", "OPTIONS").Name("month-summary")
	r.HandleFunc("/history/{id}", historyHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-record")

	prefsHandler := preferences.NewHandler(s.prefsStore)
	r.HandleFunc("/settings/theme", prefsHandler.HandleGetTheme).Methods("GET", "OPTIONS").Name("get-theme")
	r.HandleFunc("/settings/theme", prefsHandler.HandleSetTheme).Methods("PUT", "OPTIONS").Name("set-theme")
	r.HandleFunc("/settings/theme/toggle", prefsHandler.HandleToggleTheme).Methods("POST", "OPTIONS").Name("toggle-theme")

	mcpServer := mcp.NewServer(mcp.NewContextService(s.planService, s.historyRepo), s.versionInfo)
	r.PathPrefix("/mcp").Handler(otelhttp.NewHandler(mcp.NewHTTPHandler(mcpServer), "mcp.http")).Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
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

	s.timerService.CloseAll()
	log.Trace("timers closed ...")

	drainCtx, drainCancel := context.WithTimeout(ctx, s.shutdownDrain)
	if err := s.planService.Close(drainCtx); err != nil {
		log.Errorf("plan service close, pending writes may be lost: %s", err)
	}
	drainCancel()

	if s.prefsStore != nil {
		if err := s.prefsStore.Close(); err != nil {
			log.Errorf("failed to close preferences store: %s", err)
		}
	}

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

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
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
