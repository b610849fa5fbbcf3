package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/suraksha-edu/risk-assessment-service/internal/cache"
	"github.com/suraksha-edu/risk-assessment-service/internal/circuitbreaker"
	"github.com/suraksha-edu/risk-assessment-service/internal/client"
	"github.com/suraksha-edu/risk-assessment-service/internal/config"
	"github.com/suraksha-edu/risk-assessment-service/internal/health"
	httphandler "github.com/suraksha-edu/risk-assessment-service/internal/http"
	"github.com/suraksha-edu/risk-assessment-service/internal/observability"
	"github.com/suraksha-edu/risk-assessment-service/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	providerClient, err := client.NewWeatherAPIClientWithRetry(
		cfg.ProviderAPIKey,
		cfg.ProviderAPIURL,
		cfg.ProviderTimeout,
		cfg.RetryAttempts,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
	)
	if err != nil {
		logger.Fatal("provider client", zap.Error(err))
	}

	if cfg.CircuitBreakerEnabled {
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
			Component:        "weather_provider",
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition("weather_provider", from.String(), to.String())
				observability.SetCircuitBreakerStateGauge("weather_provider", int(to))
			},
		})
		providerClient.SetCircuitBreaker(cb)
		observability.SetCircuitBreakerStateGauge("weather_provider", 0)
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	var reportCache cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns, cfg.StaleCacheTTL)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		reportCache = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "none":
		reportCache = cache.NewNoopCache()
		logger.Info("cache backend: none")
	default:
		reportCache = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}
	riskService := service.NewRiskService(providerClient, reportCache, cfg.CacheTTL, cfg.StaleCacheTTL, cfg.ForecastDays, cfg.CoalesceEnabled, cfg.CoalesceTimeout)

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:         cfg.OverloadWindow,
		OverloadThresholdPct:   cfg.OverloadThresholdPct,
		RateLimitRPS:           cfg.RateLimitRPS,
		RateLimitBurst:         cfg.RateLimitBurst,
		DegradedWindow:         cfg.DegradedWindow,
		DegradedErrorPct:       cfg.DegradedErrorPct,
		IdleWindow:             cfg.IdleWindow,
		IdleThresholdReqPerMin: cfg.IdleThresholdReqPerMin,
		MinimumLifespan:        cfg.MinimumLifespan,
		StartTime:              time.Now(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(riskService, providerClient, healthConfig, logger, limiter, cfg.LocationMinLength, cfg.LocationMaxLength)

	observability.RegisterRateLimitGauges(cfg.OverloadWindow)
	if len(cfg.TrackedLocations) > 0 {
		observability.SetTrackedLocations(cfg.TrackedLocations)
	}

	if cfg.WarmCache && len(cfg.TrackedLocations) > 0 {
		warmer := cache.NewWarmer(riskService, logger)
		if cfg.WarmInterval > 0 {
			// WarmPeriodic runs the initial warm itself.
			go func() {
				if err := warmer.WarmPeriodic(context.Background(), cfg.TrackedLocations, cfg.WarmInterval); err != nil && err != context.Canceled {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		} else {
			warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := warmer.Warm(warmCtx, cfg.TrackedLocations); err != nil {
				logger.Warn("cache warming failed", zap.Error(err))
			}
			warmCancel()
		}
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	apiRouter := router.PathPrefix("/").Subrouter()
	apiRouter.Use(httphandler.RateLimitMiddleware(limiter))
	apiRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	apiRouter.HandleFunc("/risk/{location}", handler.GetRisk).Methods("GET")
	apiRouter.HandleFunc("/alerts/{location}", handler.GetAlerts).Methods("GET")
	apiRouter.HandleFunc("/safety/{location}", handler.GetSafety).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	health.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	observability.RecordShutdownInFlight(inFlight)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
