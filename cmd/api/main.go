package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-perhiasan/internal/app"
	"github.com/noah-isme/backend-perhiasan/internal/assets"
	"github.com/noah-isme/backend-perhiasan/internal/auth"
	"github.com/noah-isme/backend-perhiasan/internal/catalog"
	"github.com/noah-isme/backend-perhiasan/internal/common"
	"github.com/noah-isme/backend-perhiasan/internal/config"
	"github.com/noah-isme/backend-perhiasan/internal/goldprice"
	"github.com/noah-isme/backend-perhiasan/internal/health"
	"github.com/noah-isme/backend-perhiasan/internal/obs"
	"github.com/noah-isme/backend-perhiasan/internal/ratelimit"
	"github.com/noah-isme/backend-perhiasan/internal/security"
	"github.com/noah-isme/backend-perhiasan/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "perhiasan")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    cfg.Obs.ServiceName,
			Endpoint:       cfg.Obs.TracingEndpoint,
			SamplingRatio:  cfg.Obs.TracingSampling,
			Environment:    cfg.AppEnv,
			ServiceVersion: envOrDefault("APP_VERSION", "dev"),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deps, err := app.Open(bootCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	var imageStore assets.Store
	if cfg.Drive.Enabled() {
		drive, err := assets.NewDriveStore(ctx, assets.DriveConfig{
			ClientID:     cfg.Drive.ClientID,
			ClientSecret: cfg.Drive.ClientSecret,
			RefreshToken: cfg.Drive.RefreshToken,
			Root:         cfg.Drive.RootFolder,
			Logger:       logger.With().Str("component", "assets").Logger(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise drive asset store")
		} else {
			imageStore = drive
		}
	} else {
		logger.Warn().Msg("drive credentials not set; asset uploads disabled")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:        catalog.NewPostgresStore(deps.DB),
		Cache:        catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
		Prices:       deps.GoldPrice,
		Images:       imageRemover(imageStore),
		Logger:       logger.With().Str("component", "catalog").Logger(),
		DefaultLimit: envInt("CATALOG_DEFAULT_LIMIT", 20),
		MaxLimit:     envInt("CATALOG_MAX_LIMIT", 100),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	authService, err := auth.NewService(auth.Config{
		AdminEmail:   cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.SessionSecret,
		SessionTTL:   cfg.SessionTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:        authService,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.CookieSameSite,
	}
	authMiddleware := auth.Middleware{Service: authService}

	limiterStore, err := ratelimit.NewStore(deps.Redis, ratelimit.DefaultPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	loginLimiter, err := ratelimit.New(limiterStore, cfg.LoginRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.LoginRateLimit).Msg("parse login rate limit")
	}
	trustProxy := envBool("TRUST_PROXY", true)
	loginThrottle := ratelimit.Handler{
		Limiter: loginLimiter,
		Key:     ratelimit.ByClientIP("login", trustProxy),
		OnError: func(err error) { logger.Warn().Err(err).Msg("login rate limiter unavailable") },
	}

	goldHandler := &goldprice.Handler{Provider: deps.GoldPrice}
	settingsHandler := &settings.Handler{Accessor: deps.Settings}
	assetHandler := &assets.Handler{Store: imageStore, MaxBytes: cfg.UploadMaxBytes}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{HSTS: cfg.CookieSecure}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Deps{DB: deps.DB, Redis: deps.Redis},
		Gold:         deps.GoldPrice,
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	jsonLimit := security.BodyLimit{Max: 1 << 20}
	submitGuard := common.SubmitGuard{R: deps.Redis, TTL: 10 * time.Minute}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(jsonLimit.Middleware)

		v.Get("/categories", catalogHandler.Categories)
		v.Get("/categories/{id}", catalogHandler.Category)
		v.Get("/categories/{id}/subcategories", catalogHandler.Subcategories)
		v.Get("/items", catalogHandler.Items)
		v.Get("/items/{id}", catalogHandler.Item)
		v.Get("/gold-price", goldHandler.Current)
		v.Get("/price-quote", goldHandler.QuoteFromQuery)
		v.Post("/price-quote", goldHandler.Quote)

		v.Route("/admin", func(admin chi.Router) {
			admin.With(loginThrottle.Middleware).Post("/login", authHandler.Login)
			admin.Post("/logout", authHandler.Logout)
			admin.Get("/session", authHandler.Session)

			admin.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAdmin)

				protected.Get("/settings", settingsHandler.Get)
				protected.Put("/settings", settingsHandler.Update)

				protected.Get("/gold-price", goldHandler.Snapshot)
				protected.Post("/gold-price/refresh", goldHandler.Refresh)

				protected.With(submitGuard.Middleware).Post("/categories", catalogHandler.CreateCategory)
				protected.Put("/categories/{id}", catalogHandler.UpdateCategory)
				protected.Delete("/categories/{id}", catalogHandler.DeleteCategory)

				protected.With(submitGuard.Middleware).Post("/items", catalogHandler.CreateItem)
				protected.Put("/items/{id}", catalogHandler.UpdateItem)
				protected.Delete("/items/{id}", catalogHandler.DeleteItem)

				protected.With(submitGuard.Middleware).Post("/assets", assetHandler.Upload)
				protected.Delete("/assets", assetHandler.Delete)
			})
		})
	})

	if envBool("GOLD_REFRESH_IN_PROCESS", true) {
		go deps.Refresher.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func imageRemover(store assets.Store) catalog.ImageRemover {
	if store == nil {
		return nil
	}
	return store
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "pprof credentials not configured", http.StatusForbidden)
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
