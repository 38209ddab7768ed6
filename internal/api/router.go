package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/api/middleware"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/config"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	scannerService *service.ScannerService,
	washSaleService *service.WashSaleService,
	tradeQueue *service.TradeQueueService,
	executionService *service.ExecutionService,
	rebalanceService *service.RebalanceService,
	portfolioService *service.PortfolioService,
	indexService *service.IndexService,
	rulesService *service.RulesService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
		})

		harvestHandler := handlers.NewHarvestHandler(scannerService, executionService)
		r.Post("/scan", harvestHandler.Scan)
		r.Route("/harvest/queue", func(r chi.Router) {
			r.Get("/", harvestHandler.GetQueue)
			r.Post("/", harvestHandler.QueueHarvest)
			r.Delete("/expired", harvestHandler.ClearExpired)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateIDMiddleware)
				r.Get("/", harvestHandler.GetQueueItem)
				r.Post("/approve", harvestHandler.ApproveHarvest)
				r.Post("/reject", harvestHandler.RejectHarvest)
				r.Post("/execute", harvestHandler.ExecuteHarvest)
			})
		})

		r.Route("/wash-sales", func(r chi.Router) {
			washSaleHandler := handlers.NewWashSaleHandler(washSaleService, executionService)
			r.Get("/", washSaleHandler.ListRestrictions)
			r.Get("/pending-rebuys", washSaleHandler.PendingRebuys)
			r.Get("/check", washSaleHandler.Check)
			r.Get("/ticker/{ticker}", washSaleHandler.RestrictionsByTicker)
			r.Delete("/cleanup", washSaleHandler.Cleanup)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateIDMiddleware)
				r.Post("/rebuy", washSaleHandler.ExecuteRebuy)
				r.Post("/skip", washSaleHandler.SkipRebuy)
			})
		})

		r.Route("/trades", func(r chi.Router) {
			tradeHandler := handlers.NewTradeHandler(tradeQueue, executionService)
			r.Get("/", tradeHandler.ListTrades)
			r.Post("/", tradeHandler.AddTrade)
			r.Delete("/", tradeHandler.ClearTrades)
			r.Get("/summary", tradeHandler.Summary)
			r.Post("/approve-all", tradeHandler.ApproveAll)
			r.Post("/reject-all", tradeHandler.RejectAll)
			r.Post("/execute", tradeHandler.ExecuteApproved)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateIDMiddleware)
				r.Get("/", tradeHandler.GetTrade)
				r.Delete("/", tradeHandler.RemoveTrade)
				r.Post("/approve", tradeHandler.ApproveTrade)
				r.Post("/reject", tradeHandler.RejectTrade)
				r.Post("/execute", tradeHandler.ExecuteTrade)
			})
		})

		r.Route("/rebalance", func(r chi.Router) {
			rebalanceHandler := handlers.NewRebalanceHandler(rebalanceService, indexService)
			r.Post("/plan", rebalanceHandler.Plan)
			r.Get("/harvest-opportunities", rebalanceHandler.HarvestOpportunities)
			r.Get("/tax-savings", rebalanceHandler.TaxSavings)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
			r.Get("/positions", portfolioHandler.Positions)
			r.Get("/positions/{ticker}", portfolioHandler.Position)
			r.Get("/summary", portfolioHandler.Summary)
			r.Get("/trades", portfolioHandler.Trades)
		})

		r.Route("/index", func(r chi.Router) {
			indexHandler := handlers.NewIndexHandler(indexService)
			r.Get("/constituents", indexHandler.Constituents)
			r.Put("/constituents", indexHandler.UpdateConstituents)
			r.Get("/allocations", indexHandler.Allocations)
			r.Get("/sectors", indexHandler.Sectors)
			r.Get("/top-holdings", indexHandler.TopHoldings)
		})

		executionHandler := handlers.NewExecutionHandler(executionService)
		r.Get("/executions/summary", executionHandler.Summary)

		r.Route("/rules", func(r chi.Router) {
			rulesHandler := handlers.NewRulesHandler(rulesService)
			r.Get("/", rulesHandler.GetRules)
			r.Put("/", rulesHandler.UpdateRules)
		})
	})

	return r
}
