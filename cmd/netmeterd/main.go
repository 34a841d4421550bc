package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HerbHall/netmeter/internal/auth"
	"github.com/HerbHall/netmeter/internal/carrier"
	"github.com/HerbHall/netmeter/internal/classify"
	"github.com/HerbHall/netmeter/internal/config"
	"github.com/HerbHall/netmeter/internal/event"
	"github.com/HerbHall/netmeter/internal/feed"
	"github.com/HerbHall/netmeter/internal/policy"
	"github.com/HerbHall/netmeter/internal/registry"
	"github.com/HerbHall/netmeter/internal/server"
	"github.com/HerbHall/netmeter/internal/store"
	"github.com/HerbHall/netmeter/internal/version"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"go.uber.org/zap"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.Info())
		return
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	// Initialize logger from configuration.
	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("NetMeter server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Open database.
	dbPath := viperCfg.GetString("database.dsn")
	if dbPath == "" {
		dbPath = "netmeter.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	// Create shared services.
	bus := event.NewBus(logger.Named("event"))

	// Optional auth service.
	var authService *auth.Service
	if viperCfg.GetBool("auth.enabled") {
		var authCfg auth.Config
		if err := viperCfg.UnmarshalKey("auth", &authCfg); err != nil {
			logger.Fatal("failed to parse auth configuration", zap.Error(err))
		}
		authService, err = auth.NewService(authCfg, logger.Named("auth"))
		if err != nil {
			logger.Fatal("failed to initialize auth service", zap.Error(err))
		}
		logger.Info("auth service initialized", zap.String("component", "auth"))
	}

	// Create plugin registry and register modules (compile-time composition).
	reg := registry.New(logger.Named("registry"))

	carrierMod := carrier.New()
	policyMod := policy.New(carrierMod)
	classifyMod := classify.New(policyMod)

	var feedTokens *auth.TokenService
	if authService != nil {
		feedTokens = authService.Tokens()
	}
	feedMod := feed.New(feedTokens)

	for _, m := range []plugin.Plugin{carrierMod, policyMod, classifyMod, feedMod} {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	// Validate dependency graph and API versions.
	if err := reg.Validate(); err != nil {
		logger.Fatal("plugin validation failed", zap.Error(err))
	}

	// Initialize all plugins with dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config: cfg.Sub("plugins." + name),
			Logger: logger.Named(name),
			Store:  db,
			Bus:    bus,
		}
	}); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	// Start plugins.
	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	// Create and start the HTTP server.
	serverCfg := server.Config{
		Host: viperCfg.GetString("server.host"),
		Port: viperCfg.GetInt("server.port"),
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	var authRoutes server.RouteRegistrar
	if authService != nil {
		authRoutes = authService
	}
	srv := server.New(serverCfg.Addr(), reg, logger.Named("server"), readyCheck, authRoutes)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("NetMeter server ready", zap.String("addr", serverCfg.Addr()))

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.StopAll(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("NetMeter server stopped")
}
