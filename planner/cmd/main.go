package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/config"
	"github.com/Cogwheel-Validator/spectra-planner/planner/indexer"
	"github.com/Cogwheel-Validator/spectra-planner/planner/presenter"
	"github.com/Cogwheel-Validator/spectra-planner/planner/router"
	"github.com/Cogwheel-Validator/spectra-planner/planner/rpc"
	"github.com/Cogwheel-Validator/spectra-planner/planner/store"
	"github.com/Cogwheel-Validator/spectra-planner/planner/validation"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the RPC package
	rpc.SetLogger(log)
}

func main() {
	configRpc := flag.String("config-rpc", "./rpc-config.toml", "config file for the rpc server, empty to read PLANNER_* env vars")
	catalogSource := flag.String("catalog", "", "catalog file or go-getter URL, overrides catalog_source")
	flag.Parse()

	var configPath *string
	if *configRpc != "" {
		configPath = configRpc
	}

	rpcConfig, err := config.LoadRPCPlannerConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load RPC config")
	}
	if *catalogSource != "" {
		rpcConfig.CatalogSource = *catalogSource
	}

	log.Info().
		Str("rpc_config", *configRpc).
		Str("catalog", rpcConfig.CatalogSource).
		Msg("Starting Spectra's Planner")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := config.LoadCatalog(ctx, rpcConfig.CatalogSource)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalog")
	}
	log.Info().
		Int("assets", len(cat.Assets())).
		Int("chains", len(cat.Chains())).
		Int("pairs", len(cat.Pairs())).
		Int("yield_pools", len(cat.YieldPools())).
		Msg("Loaded catalog")

	failover := indexer.DefaultFailoverConfig()
	if rpcConfig.IndexerTimeout > 0 {
		failover.Timeout = rpcConfig.IndexerTimeout
	}
	indexerClient, err := indexer.NewClientWithFailover(rpcConfig.IndexerURLs[0], rpcConfig.IndexerURLs[1:], failover)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexer client")
	}
	defer indexerClient.Close()

	var opts []router.Option
	if rpcConfig.DefaultSlippageBps > 0 {
		opts = append(opts, router.WithSlippageBps(rpcConfig.DefaultSlippageBps))
	}
	if rpcConfig.XcmFeePaddingBps > 0 {
		opts = append(opts, router.WithXcmFeePaddingBps(rpcConfig.XcmFeePaddingBps))
	}
	planner := router.NewPlanner(cat, indexerClient, indexerClient, opts...)
	validator := validation.NewService(cat, indexerClient, nil)

	var plans store.Store
	if rpcConfig.RedisURL != "" {
		plans, err = store.NewRedisStore(ctx, rpcConfig.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect plan store")
		}
		log.Info().Msg("Plans stored in redis")
	} else {
		plans = store.NewMemoryStore(time.Minute)
		log.Info().Msg("Plans stored in memory")
	}
	defer func() {
		_ = plans.Close()
	}()

	handlers := rpc.NewPlannerServer(planner, validator, presenter.New(), plans, indexerClient, rpcConfig.PlanTTL)

	server, err := rpc.NewServer(ctx, buildServerConfig(rpcConfig), handlers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RPC server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// buildServerConfig converts the loaded RPCPlannerConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.RPCPlannerConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "spectra-planner"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:     defaultString(cfg.Environment, "development"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics || cfg.UsePrometheus,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

// defaultString returns the default value if s is empty
func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
