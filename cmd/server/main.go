package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"medisim/internal/agent"
	"medisim/internal/cases"
	"medisim/internal/config"
	"medisim/internal/consultation"
	"medisim/internal/feedback"
	"medisim/internal/platform/database"
	"medisim/internal/platform/logging"
	"medisim/internal/platform/metrics"
	"medisim/internal/platform/respond"
	"medisim/internal/profile"
	"medisim/internal/report"
	"medisim/internal/training"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	m := metrics.New()

	// 1. Infrastructure
	db, err := database.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := database.Migrate(db, cfg.Storage.Migrations, logger); err != nil {
			return err
		}
	} else {
		if cfg.IsProduction() {
			return errors.New("memory storage is not allowed in production")
		}
		logger.Warn("Using in-memory storage, progress is lost on restart")
	}

	rdb := connectRedis(ctx, cfg.Cache.RedisURL, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	// 2. Clients
	gemini := agent.NewGemini(cfg.LLM, logger, m)
	if !cfg.LLM.Enabled() {
		logger.Warn("No Gemini API key configured, patient replies and evaluations will fall back")
	}

	var advisor feedback.Advisor
	if cfg.Expert.URL != "" {
		advisor = agent.NewExpert(cfg.Expert, logger, m)
	}

	var caseGen cases.Generator
	var contentGen training.Generator
	if cfg.LLM.Enabled() {
		if cfg.Cases.Generate {
			caseGen = gemini
		}
		contentGen = gemini
	}

	// 3. Services
	profileSvc := profile.NewService(profile.NewRepository(db), logger)

	caseRepo := cases.NewRepository(
		caseGen,
		cases.NewCache(cfg.Cache.LRUSize, cfg.Cache.TTL, rdb, logger),
		cases.Options{Generate: cfg.Cases.Generate, Count: cfg.Cases.Count, Timeout: cfg.LLM.Timeouts.Generate},
		logger, m,
	)

	synth := feedback.NewSynthesizer(gemini, advisor, feedback.Options{
		EvaluateTimeout: cfg.LLM.Timeouts.Evaluate,
		ExpertTimeout:   cfg.Expert.Timeout,
	}, logger, m)

	store := consultation.NewStore(cfg.Session.TTL)
	go store.Run(ctx, time.Minute, func(removed int) {
		logger.WithField("removed", removed).Info("Expired idle sessions")
	})

	consultationSvc := consultation.NewService(
		store,
		consultation.NewRepository(db),
		gemini,
		caseRepo,
		profileSvc,
		synth,
		consultation.Options{ReplyTimeout: cfg.LLM.Timeouts.Reply, HintTimeout: cfg.LLM.Timeouts.Hint},
		logger, m,
	)

	trainingSvc, err := training.NewService(contentGen, profileSvc, training.Options{
		Timeout:   cfg.LLM.Timeouts.Generate,
		QuizCache: cfg.Cache.LRUSize * 16,
	}, logger, m)
	if err != nil {
		return err
	}

	reportSvc := report.NewService(cfg.Report.FontPaths, logger)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(cors(cfg.Server.AllowedOrigins))

	r.Get("/healthz", health(db, rdb))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		profile.RegisterRoutes(r, profile.NewHandler(profileSvc))
		consultation.RegisterRoutes(r, consultation.NewHandler(consultationSvc, reportSvc))
		training.RegisterRoutes(r, training.NewHandler(trainingSvc))
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// connectRedis returns nil when no URL is configured or the server does not
// answer; the case cache then stays in process.
func connectRedis(ctx context.Context, url string, logger logrus.FieldLogger) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.WithError(err).Warn("Invalid Redis URL, continuing without Redis")
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, continuing without Redis")
		client.Close()
		return nil
	}
	logger.Info("Connected to Redis")
	return client
}

func cors(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-Id")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func health(db *database.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "database": "memory", "redis": "disabled"}
		code := http.StatusOK
		if db != nil {
			status["database"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				status["database"] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
				status["status"] = "degraded"
			}
		}
		respond.JSON(w, code, status)
	}
}
