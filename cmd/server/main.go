package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker/alpaca"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker/paper"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/config"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/database"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/scheduler"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Select broker backend
	var brokerClient broker.Broker
	switch cfg.Broker.Backend {
	case config.BrokerAlpaca:
		brokerClient = alpaca.NewClient(cfg.Broker)
	default:
		brokerClient = paper.NewClient()
	}
	log.Printf("Broker backend: %s", cfg.Broker.Backend)

	// Create repositories
	washSaleRepo := repository.NewWashSaleRepository(db)
	harvestRepo := repository.NewHarvestQueueRepository(db)
	ledgerRepo := repository.NewLossLedgerRepository(db)
	indexRepo := repository.NewIndexRepository(db)
	rulesRepo := repository.NewRulesRepository(db)

	systemService := service.NewSystemService(db, cfg.Broker.Backend)
	// Create services
	rulesService := service.NewRulesService(rulesRepo)
	washSaleService := service.NewWashSaleService(washSaleRepo, rulesService)
	tradeQueue := service.NewTradeQueueService()
	scannerService := service.NewScannerService(
		brokerClient,
		harvestRepo,
		rulesService,
		washSaleService,
		cfg.Broker.OrderHistoryDays,
	)
	portfolioService := service.NewPortfolioService(
		brokerClient,
		washSaleService,
		harvestRepo,
		ledgerRepo,
		cfg.Broker.OrderHistoryDays,
	)
	rebalanceService := service.NewRebalanceService(
		portfolioService,
		washSaleService,
		rulesService,
	)
	indexService := service.NewIndexService(indexRepo, brokerClient)
	executionService := service.NewExecutionService(
		brokerClient,
		washSaleService,
		harvestRepo,
		ledgerRepo,
		tradeQueue,
	)

	// Create router
	router := api.NewRouter(
		systemService,
		scannerService,
		washSaleService,
		tradeQueue,
		executionService,
		rebalanceService,
		portfolioService,
		indexService,
		rulesService,
		cfg,
	)

	// Start background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.NewScheduler(context.Background(), scannerService, washSaleService, cfg.Scheduler)
		if err := jobs.RegisterAll(); err != nil {
			log.Fatalf("Failed to register scheduled tasks: %v", err)
		}
		jobs.Start()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if jobs != nil {
		jobs.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
