package service

import (
	"database/sql"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/database"
)

// SystemService handles system-related operations
type SystemService struct {
	db            *sql.DB
	brokerBackend string
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, brokerBackend string) *SystemService {
	return &SystemService{
		db:            db,
		brokerBackend: brokerBackend,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// BrokerBackend reports which broker backend the server was started with.
func (s *SystemService) BrokerBackend() string {
	return s.brokerBackend
}
