package repository

import (
	"database/sql"
	"fmt"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// LossLedgerRepository provides data access methods for the
// loss_ledger_years table, keyed by tax year.
type LossLedgerRepository struct {
	db *sql.DB
}

// NewLossLedgerRepository creates a new LossLedgerRepository with the provided database connection.
func NewLossLedgerRepository(db *sql.DB) *LossLedgerRepository {
	return &LossLedgerRepository{db: db}
}

// GetYear retrieves the ledger entry for one tax year.
func (r *LossLedgerRepository) GetYear(year int) (model.LossLedgerYear, error) {
	query := `
		SELECT year, short_term_losses, long_term_losses, used_against_gains, carryforward
		FROM loss_ledger_years
		WHERE year = ?
	`

	row := r.db.QueryRow(query, year)
	ledger, err := scanLedgerYear(row.Scan)
	if err == sql.ErrNoRows {
		return model.LossLedgerYear{}, apperrors.ErrLedgerYearNotFound
	}
	if err != nil {
		return model.LossLedgerYear{}, err
	}

	return ledger, nil
}

// GetAll retrieves every ledger year, newest first.
func (r *LossLedgerRepository) GetAll() ([]model.LossLedgerYear, error) {
	query := `
		SELECT year, short_term_losses, long_term_losses, used_against_gains, carryforward
		FROM loss_ledger_years
		ORDER BY year DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query loss_ledger_years table: %w", err)
	}
	defer rows.Close()

	ledgers := []model.LossLedgerYear{}

	for rows.Next() {
		ledger, err := scanLedgerYear(rows.Scan)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, ledger)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loss_ledger_years table: %w", err)
	}

	return ledgers, nil
}

// Upsert writes the full ledger entry for a year, inserting or replacing.
// Ledger mutation is additive read-modify-write at the service layer; the
// repository always persists the whole row.
func (r *LossLedgerRepository) Upsert(ledger model.LossLedgerYear) error {
	query := `
		INSERT INTO loss_ledger_years
			(year, short_term_losses, long_term_losses, used_against_gains, carryforward)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET
			short_term_losses = excluded.short_term_losses,
			long_term_losses = excluded.long_term_losses,
			used_against_gains = excluded.used_against_gains,
			carryforward = excluded.carryforward
	`

	_, err := r.db.Exec(query,
		ledger.Year,
		ledger.ShortTermLosses.String(),
		ledger.LongTermLosses.String(),
		ledger.UsedAgainstGains.String(),
		ledger.Carryforward.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert loss ledger year: %w", err)
	}

	return nil
}

func scanLedgerYear(scan func(dest ...any) error) (model.LossLedgerYear, error) {
	var ledger model.LossLedgerYear
	var shortStr, longStr, usedStr, carryStr string

	err := scan(
		&ledger.Year,
		&shortStr,
		&longStr,
		&usedStr,
		&carryStr,
	)
	if err == sql.ErrNoRows {
		return model.LossLedgerYear{}, err
	}
	if err != nil {
		return model.LossLedgerYear{}, fmt.Errorf("failed to scan loss_ledger_years results: %w", err)
	}

	if ledger.ShortTermLosses, err = ParseDecimal(shortStr); err != nil {
		return model.LossLedgerYear{}, err
	}
	if ledger.LongTermLosses, err = ParseDecimal(longStr); err != nil {
		return model.LossLedgerYear{}, err
	}
	if ledger.UsedAgainstGains, err = ParseDecimal(usedStr); err != nil {
		return model.LossLedgerYear{}, err
	}
	if ledger.Carryforward, err = ParseDecimal(carryStr); err != nil {
		return model.LossLedgerYear{}, err
	}

	return ledger, nil
}
