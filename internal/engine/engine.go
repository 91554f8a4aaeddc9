// Package engine wires the alert pipeline together and owns its
// lifecycle: store and directory connections, gateway selection, the
// cycle scheduler, and the HTTP health/stats/metrics surface.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plantwatch/internal/classify"
	"plantwatch/internal/config"
	"plantwatch/internal/directory"
	"plantwatch/internal/dispatch"
	"plantwatch/internal/logger"
	"plantwatch/internal/models"
	"plantwatch/internal/notify"
	"plantwatch/internal/predict"
	"plantwatch/internal/publish"
	"plantwatch/internal/scheduler"
	"plantwatch/internal/store"
)

// Engine is the high-level coordinator for evaluation and dispatch.
type Engine struct {
	cfg   *config.Config
	rules atomic.Pointer[config.RuleSet]

	telemetry   store.TelemetryStore
	cache       *store.ResultCache
	directory   directory.RecipientDirectory
	coordinator *dispatch.Coordinator
	scheduler   *scheduler.Scheduler
	publisher   *publish.Publisher
	httpServer  *http.Server

	wg sync.WaitGroup
}

// New constructs an Engine with given config.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run starts background goroutines and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	log := logger.WithComponent("engine")
	log.Info().Msg("engine starting")

	if err := e.initRules(ctx); err != nil {
		return fmt.Errorf("failed to load threshold rules: %w", err)
	}

	if err := e.initStores(ctx); err != nil {
		return fmt.Errorf("failed to initialize stores: %w", err)
	}
	defer e.closeStores()

	if err := e.initDirectory(ctx); err != nil {
		return fmt.Errorf("failed to initialize recipient directory: %w", err)
	}
	defer e.directory.Close()

	if err := e.initPipeline(); err != nil {
		return fmt.Errorf("failed to initialize dispatch pipeline: %w", err)
	}

	e.initHTTPServer()

	// Start HTTP server in background
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		log.Info().Str("addr", e.cfg.HTTPAddr).Msg("starting HTTP server")
		if err := e.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Scheduler runs until shutdown
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.scheduler.Start(ctx)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return e.shutdown()
}

// initRules loads the threshold rule set and starts the file watcher
// when a rules file is configured
func (e *Engine) initRules(ctx context.Context) error {
	log := logger.WithComponent("engine")

	if e.cfg.RulesFile == "" {
		e.rules.Store(config.DefaultRules())
		log.Info().Msg("using built-in threshold rules")
		return nil
	}

	rules, err := config.LoadRules(e.cfg.RulesFile)
	if err != nil {
		return err
	}
	e.rules.Store(rules)
	log.Info().Str("path", e.cfg.RulesFile).Msg("threshold rules loaded")

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		err := config.WatchRules(ctx, e.cfg.RulesFile, func(updated *config.RuleSet) {
			e.rules.Store(updated)
		})
		if err != nil {
			log.Error().Err(err).Msg("rules watcher exited")
		}
	}()
	return nil
}

// initStores connects the telemetry store and the optional redis mirror
func (e *Engine) initStores(ctx context.Context) error {
	log := logger.WithComponent("engine")

	if e.cfg.PostgresDSN != "" {
		ts, err := store.NewPostgresStore(ctx, e.cfg.PostgresDSN, e.cfg.DBMaxConns)
		if err != nil {
			return err
		}
		e.telemetry = ts
		log.Info().Msg("postgres telemetry store connected")
	} else {
		e.telemetry = store.NewMemoryStore()
		log.Warn().Msg("no POSTGRES_DSN set, using in-memory telemetry store")
	}

	if e.cfg.RedisConfigured() {
		cache, err := store.NewResultCache(ctx, e.cfg.RedisAddr, e.cfg.RedisPassword, e.cfg.RedisDB)
		if err != nil {
			return err
		}
		e.cache = cache
		log.Info().Str("addr", e.cfg.RedisAddr).Msg("redis result cache connected")
	}
	return nil
}

// initDirectory selects the recipient source
func (e *Engine) initDirectory(ctx context.Context) error {
	log := logger.WithComponent("engine")

	switch {
	case e.cfg.PostgresDSN != "":
		dir, err := directory.NewPostgresDirectory(ctx, e.cfg.PostgresDSN)
		if err != nil {
			return err
		}
		e.directory = dir
		log.Info().Msg("postgres recipient directory connected")
	case e.cfg.RecipientsFile != "":
		dir, err := directory.LoadStaticDirectory(e.cfg.RecipientsFile)
		if err != nil {
			return err
		}
		e.directory = dir
		log.Info().Str("path", e.cfg.RecipientsFile).Msg("static recipient directory loaded")
	default:
		e.directory = directory.NewStaticDirectory(nil)
		log.Warn().Msg("no recipient source configured, alerts will have no targets")
	}
	return nil
}

// initPipeline selects gateways by configuration presence and builds
// the dispatch and scheduling machinery
func (e *Engine) initPipeline() error {
	log := logger.WithComponent("engine")

	gateways := make(map[models.Channel]notify.DeliveryGateway, 2)

	if e.cfg.SMSConfigured() {
		sms, err := notify.NewSMSGateway(e.cfg.SMSGatewayURL, e.cfg.SMSAPIKey, e.cfg.SMSSender)
		if err != nil {
			return err
		}
		gateways[models.ChannelSMS] = sms
		log.Info().Msg("live SMS gateway configured")
	} else {
		gateways[models.ChannelSMS] = notify.NewSimulatedGateway(models.ChannelSMS)
		log.Warn().Msg("SMS gateway unconfigured, deliveries will be simulated")
	}

	if e.cfg.ChatConfigured() {
		chat, err := notify.NewChatGateway(e.cfg.ChatWebhookURL)
		if err != nil {
			return err
		}
		gateways[models.ChannelChat] = chat
		log.Info().Msg("live chat gateway configured")
	} else {
		gateways[models.ChannelChat] = notify.NewSimulatedGateway(models.ChannelChat)
		log.Warn().Msg("chat webhook unconfigured, deliveries will be simulated")
	}

	dispatcher := notify.NewDispatcher(gateways, e.cfg.SendTimeout)

	e.coordinator = dispatch.NewCoordinator(dispatch.Config{
		Sender:      dispatcher,
		Retry:       dispatch.PolicyFromName(e.cfg.RetryPolicy, e.cfg.RetryCount, e.cfg.RetryBackoff),
		Concurrency: e.cfg.DispatchConcurrency,
	})

	if e.cfg.KafkaConfigured() {
		publisher, err := publish.NewPublisher(e.cfg.KafkaBrokers, e.cfg.KafkaTopic)
		if err != nil {
			return err
		}
		e.publisher = publisher
		log.Info().
			Strs("brokers", e.cfg.KafkaBrokers).
			Str("topic", e.cfg.KafkaTopic).
			Msg("alert event publisher initialized")
	}

	node, _ := os.Hostname()
	if node == "" {
		node = "unknown"
	}

	schedCfg := scheduler.Config{
		Interval:    e.cfg.CycleInterval,
		Domains:     models.AllDomains(),
		Store:       e.telemetry,
		Directory:   e.directory,
		Classifier:  classify.New(e.telemetry),
		Coordinator: e.coordinator,
		Advisor:     predict.New(e.cfg.PredictURL, e.cfg.PredictTimeout),
		Rules:       e.rules.Load,
		Node:        node,
	}
	if e.cache != nil {
		schedCfg.Sink = e.cache
	}
	if e.publisher != nil {
		schedCfg.Publisher = e.publisher
	}
	e.scheduler = scheduler.New(schedCfg)

	return nil
}

// initHTTPServer builds the health/stats/metrics surface
func (e *Engine) initHTTPServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", e.healthHandler)
	mux.HandleFunc("/stats", e.statsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	e.httpServer = &http.Server{
		Addr:         e.cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown performs graceful shutdown
func (e *Engine) shutdown() error {
	log := logger.WithComponent("engine")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := e.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if e.publisher != nil {
		log.Info().Msg("closing alert event publisher")
		if err := e.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("publisher close error")
		}
	}

	e.wg.Wait()
	log.Info().Msg("engine stopped gracefully")
	return nil
}

func (e *Engine) closeStores() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	_ = e.telemetry.Close()
}

// healthHandler checks store and cache connectivity
func (e *Engine) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := e.telemetry.Ping(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: store: %v", err), http.StatusServiceUnavailable)
		return
	}
	if e.cache != nil {
		if err := e.cache.Ping(ctx); err != nil {
			http.Error(w, fmt.Sprintf("unhealthy: cache: %v", err), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler reports scheduler and dispatch counters
func (e *Engine) statsHandler(w http.ResponseWriter, _ *http.Request) {
	stats := struct {
		Scheduler scheduler.Stats `json:"scheduler"`
		Dispatch  dispatch.Stats  `json:"dispatch"`
		Publisher *publish.Stats  `json:"publisher,omitempty"`
	}{
		Scheduler: e.scheduler.Stats(),
		Dispatch:  e.coordinator.Stats(),
	}
	if e.publisher != nil {
		ps := e.publisher.Stats()
		stats.Publisher = &ps
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
