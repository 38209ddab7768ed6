package repository

import (
	"database/sql"
	"fmt"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// RulesRepository provides data access methods for the harvest_rules table.
// The table holds a single row; rules are replaced wholesale on update.
type RulesRepository struct {
	db *sql.DB
}

// NewRulesRepository creates a new RulesRepository with the provided database connection.
func NewRulesRepository(db *sql.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

// Get retrieves the stored rules. Returns apperrors.ErrRulesNotFound when
// no row has been saved yet; callers fall back to defaults.
func (r *RulesRepository) Get() (model.RulesConfig, error) {
	query := `
		SELECT min_loss_usd, min_loss_pct, min_tax_benefit, tax_rate, min_holding_days, max_harvest_pct, wash_sale_window_days
		FROM harvest_rules
		WHERE id = 1
	`

	var rules model.RulesConfig
	var minLossStr, minLossPctStr, minBenefitStr, taxRateStr, maxHarvestStr string

	err := r.db.QueryRow(query).Scan(
		&minLossStr,
		&minLossPctStr,
		&minBenefitStr,
		&taxRateStr,
		&rules.MinHoldingDays,
		&maxHarvestStr,
		&rules.WashSaleWindowDays,
	)
	if err == sql.ErrNoRows {
		return model.RulesConfig{}, apperrors.ErrRulesNotFound
	}
	if err != nil {
		return model.RulesConfig{}, fmt.Errorf("failed to scan harvest_rules results: %w", err)
	}

	if rules.MinLossUSD, err = ParseDecimal(minLossStr); err != nil {
		return model.RulesConfig{}, err
	}
	if rules.MinLossPct, err = ParseDecimal(minLossPctStr); err != nil {
		return model.RulesConfig{}, err
	}
	if rules.MinTaxBenefit, err = ParseDecimal(minBenefitStr); err != nil {
		return model.RulesConfig{}, err
	}
	if rules.TaxRate, err = ParseDecimal(taxRateStr); err != nil {
		return model.RulesConfig{}, err
	}
	if rules.MaxHarvestPct, err = ParseDecimal(maxHarvestStr); err != nil {
		return model.RulesConfig{}, err
	}

	return rules, nil
}

// Save writes the rules row, inserting or replacing.
func (r *RulesRepository) Save(rules model.RulesConfig) error {
	query := `
		INSERT INTO harvest_rules
			(id, min_loss_usd, min_loss_pct, min_tax_benefit, tax_rate, min_holding_days, max_harvest_pct, wash_sale_window_days)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			min_loss_usd = excluded.min_loss_usd,
			min_loss_pct = excluded.min_loss_pct,
			min_tax_benefit = excluded.min_tax_benefit,
			tax_rate = excluded.tax_rate,
			min_holding_days = excluded.min_holding_days,
			max_harvest_pct = excluded.max_harvest_pct,
			wash_sale_window_days = excluded.wash_sale_window_days
	`

	_, err := r.db.Exec(query,
		rules.MinLossUSD.String(),
		rules.MinLossPct.String(),
		rules.MinTaxBenefit.String(),
		rules.TaxRate.String(),
		rules.MinHoldingDays,
		rules.MaxHarvestPct.String(),
		rules.WashSaleWindowDays,
	)
	if err != nil {
		return fmt.Errorf("failed to save harvest rules: %w", err)
	}

	return nil
}
