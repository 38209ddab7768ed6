package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// WashSaleRepository provides data access methods for the
// wash_sale_restrictions table. Dates are stored as YYYY-MM-DD strings,
// money and share quantities as exact decimal strings.
type WashSaleRepository struct {
	db *sql.DB
}

// NewWashSaleRepository creates a new WashSaleRepository with the provided database connection.
func NewWashSaleRepository(db *sql.DB) *WashSaleRepository {
	return &WashSaleRepository{db: db}
}

// Insert persists a new restriction.
func (r *WashSaleRepository) Insert(restriction model.WashSaleRestriction) error {
	query := `
		INSERT INTO wash_sale_restrictions
			(id, ticker, shares_sold, sale_price, sale_date, restriction_end, rebuy_status, rebuy_date, rebuy_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		restriction.ID,
		restriction.Ticker,
		restriction.SharesSold.String(),
		restriction.SalePrice.String(),
		restriction.SaleDate.Format("2006-01-02"),
		restriction.RestrictionEnd.Format("2006-01-02"),
		string(restriction.RebuyStatus),
		nullableDate(restriction.RebuyDate),
		nullableDecimal(restriction.RebuyPrice),
	)
	if err != nil {
		return fmt.Errorf("failed to insert wash sale restriction: %w", err)
	}

	return nil
}

// Update rewrites the mutable rebuy fields of an existing restriction.
func (r *WashSaleRepository) Update(restriction model.WashSaleRestriction) error {
	query := `
		UPDATE wash_sale_restrictions
		SET rebuy_status = ?, rebuy_date = ?, rebuy_price = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(restriction.RebuyStatus),
		nullableDate(restriction.RebuyDate),
		nullableDecimal(restriction.RebuyPrice),
		restriction.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wash sale restriction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrRestrictionNotFound
	}

	return nil
}

// GetByID retrieves one restriction by its ID.
func (r *WashSaleRepository) GetByID(id string) (model.WashSaleRestriction, error) {
	query := `
		SELECT id, ticker, shares_sold, sale_price, sale_date, restriction_end, rebuy_status, rebuy_date, rebuy_price
		FROM wash_sale_restrictions
		WHERE id = ?
	`

	row := r.db.QueryRow(query, id)
	restriction, err := scanRestriction(row.Scan)
	if err == sql.ErrNoRows {
		return model.WashSaleRestriction{}, apperrors.ErrRestrictionNotFound
	}
	if err != nil {
		return model.WashSaleRestriction{}, err
	}

	return restriction, nil
}

// GetAll retrieves every restriction, ordered by restriction end date.
func (r *WashSaleRepository) GetAll() ([]model.WashSaleRestriction, error) {
	query := `
		SELECT id, ticker, shares_sold, sale_price, sale_date, restriction_end, rebuy_status, rebuy_date, rebuy_price
		FROM wash_sale_restrictions
		ORDER BY restriction_end ASC
	`

	return r.queryRestrictions(query)
}

// GetByTicker retrieves all restrictions recorded for a ticker, newest sale first.
func (r *WashSaleRepository) GetByTicker(ticker string) ([]model.WashSaleRestriction, error) {
	query := `
		SELECT id, ticker, shares_sold, sale_price, sale_date, restriction_end, rebuy_status, rebuy_date, rebuy_price
		FROM wash_sale_restrictions
		WHERE ticker = ?
		ORDER BY sale_date DESC
	`

	return r.queryRestrictions(query, ticker)
}

// DeleteResolvedBefore removes completed/skipped restrictions whose sale
// date precedes the cutoff. Pending restrictions are never touched, so
// active-state queries are unaffected. Returns the number of rows removed.
func (r *WashSaleRepository) DeleteResolvedBefore(cutoff time.Time) (int, error) {
	query := `
		DELETE FROM wash_sale_restrictions
		WHERE rebuy_status IN (?, ?)
		AND sale_date < ?
	`

	result, err := r.db.Exec(query,
		string(model.RebuyStatusCompleted),
		string(model.RebuyStatusSkipped),
		cutoff.Format("2006-01-02"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolved restrictions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return int(affected), nil
}

func (r *WashSaleRepository) queryRestrictions(query string, args ...any) ([]model.WashSaleRestriction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wash_sale_restrictions table: %w", err)
	}
	defer rows.Close()

	restrictions := []model.WashSaleRestriction{}

	for rows.Next() {
		restriction, err := scanRestriction(rows.Scan)
		if err != nil {
			return nil, err
		}
		restrictions = append(restrictions, restriction)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wash_sale_restrictions table: %w", err)
	}

	return restrictions, nil
}

func scanRestriction(scan func(dest ...any) error) (model.WashSaleRestriction, error) {
	var restriction model.WashSaleRestriction
	var rebuyStatusStr, sharesSoldStr, salePriceStr, saleDateStr, restrictionEndStr string
	var rebuyDateStr, rebuyPriceStr sql.NullString

	err := scan(
		&restriction.ID,
		&restriction.Ticker,
		&sharesSoldStr,
		&salePriceStr,
		&saleDateStr,
		&restrictionEndStr,
		&rebuyStatusStr,
		&rebuyDateStr,
		&rebuyPriceStr,
	)
	if err == sql.ErrNoRows {
		return model.WashSaleRestriction{}, err
	}
	if err != nil {
		return model.WashSaleRestriction{}, fmt.Errorf("failed to scan wash_sale_restrictions results: %w", err)
	}

	restriction.RebuyStatus = model.RebuyStatus(rebuyStatusStr)

	if restriction.SharesSold, err = ParseDecimal(sharesSoldStr); err != nil {
		return model.WashSaleRestriction{}, err
	}
	if restriction.SalePrice, err = ParseDecimal(salePriceStr); err != nil {
		return model.WashSaleRestriction{}, err
	}
	if restriction.SaleDate, err = ParseTime(saleDateStr); err != nil {
		return model.WashSaleRestriction{}, err
	}
	if restriction.RestrictionEnd, err = ParseTime(restrictionEndStr); err != nil {
		return model.WashSaleRestriction{}, err
	}

	if rebuyDateStr.Valid {
		rebuyDate, err := ParseTime(rebuyDateStr.String)
		if err != nil {
			return model.WashSaleRestriction{}, err
		}
		restriction.RebuyDate = &rebuyDate
	}
	if rebuyPriceStr.Valid {
		rebuyPrice, err := ParseDecimal(rebuyPriceStr.String)
		if err != nil {
			return model.WashSaleRestriction{}, err
		}
		restriction.RebuyPrice = &rebuyPrice
	}

	return restriction, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
