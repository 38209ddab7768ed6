package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/broker"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/repository"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
)

// testHistoryDays is how far back test services fetch order history.
const testHistoryDays = 365

func NewTestRulesService(t *testing.T, db *sql.DB) *service.RulesService {
	t.Helper()

	return service.NewRulesService(repository.NewRulesRepository(db))
}

func NewTestWashSaleService(t *testing.T, db *sql.DB) *service.WashSaleService {
	t.Helper()

	washSaleRepo := repository.NewWashSaleRepository(db)

	return service.NewWashSaleService(washSaleRepo, NewTestRulesService(t, db))
}

func NewTestScannerService(t *testing.T, db *sql.DB, brokerClient broker.Broker) *service.ScannerService {
	t.Helper()

	harvestRepo := repository.NewHarvestQueueRepository(db)
	rulesService := NewTestRulesService(t, db)
	washSaleService := service.NewWashSaleService(repository.NewWashSaleRepository(db), rulesService)

	return service.NewScannerService(
		brokerClient,
		harvestRepo,
		rulesService,
		washSaleService,
		testHistoryDays,
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB, brokerClient broker.Broker) *service.PortfolioService {
	t.Helper()

	harvestRepo := repository.NewHarvestQueueRepository(db)
	ledgerRepo := repository.NewLossLedgerRepository(db)

	return service.NewPortfolioService(
		brokerClient,
		NewTestWashSaleService(t, db),
		harvestRepo,
		ledgerRepo,
		testHistoryDays,
	)
}

func NewTestRebalanceService(t *testing.T, db *sql.DB, brokerClient broker.Broker) *service.RebalanceService {
	t.Helper()

	rulesService := NewTestRulesService(t, db)
	washSaleService := service.NewWashSaleService(repository.NewWashSaleRepository(db), rulesService)
	portfolioService := service.NewPortfolioService(
		brokerClient,
		washSaleService,
		repository.NewHarvestQueueRepository(db),
		repository.NewLossLedgerRepository(db),
		testHistoryDays,
	)

	return service.NewRebalanceService(
		portfolioService,
		washSaleService,
		rulesService,
	)
}

func NewTestIndexService(t *testing.T, db *sql.DB, brokerClient broker.Broker) *service.IndexService {
	t.Helper()

	return service.NewIndexService(repository.NewIndexRepository(db), brokerClient)
}

func NewTestExecutionService(t *testing.T, db *sql.DB, brokerClient broker.Broker, tradeQueue *service.TradeQueueService) *service.ExecutionService {
	t.Helper()

	harvestRepo := repository.NewHarvestQueueRepository(db)
	ledgerRepo := repository.NewLossLedgerRepository(db)

	return service.NewExecutionService(
		brokerClient,
		NewTestWashSaleService(t, db),
		harvestRepo,
		ledgerRepo,
		tradeQueue,
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, "paper")
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a unique ticker symbol for testing.
//
// Example usage:
//
//	ticker := testutil.MakeTicker("AAPL")
//	// Returns: "AAPL1A2B"
func MakeTicker(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
