package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/apperrors"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// HarvestQueueRepository provides data access methods for the
// harvest_queue_items table.
type HarvestQueueRepository struct {
	db *sql.DB
}

// NewHarvestQueueRepository creates a new HarvestQueueRepository with the provided database connection.
func NewHarvestQueueRepository(db *sql.DB) *HarvestQueueRepository {
	return &HarvestQueueRepository{db: db}
}

// Insert persists a new queue item.
func (r *HarvestQueueRepository) Insert(item model.HarvestQueueItem) error {
	query := `
		INSERT INTO harvest_queue_items
			(id, ticker, shares, current_price, cost_basis, unrealized_loss, estimated_tax_benefit, status, created_at, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		item.ID,
		item.Ticker,
		item.Shares.String(),
		item.CurrentPrice.String(),
		item.CostBasis.String(),
		item.UnrealizedLoss.String(),
		item.EstimatedTaxBenefit.String(),
		string(item.Status),
		item.CreatedAt.UTC().Format(time.RFC3339),
		nullableTimestamp(item.ExecutedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert harvest queue item: %w", err)
	}

	return nil
}

// Update rewrites the mutable lifecycle fields of an existing queue item.
func (r *HarvestQueueRepository) Update(item model.HarvestQueueItem) error {
	query := `
		UPDATE harvest_queue_items
		SET status = ?, executed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(item.Status),
		nullableTimestamp(item.ExecutedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update harvest queue item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrQueueItemNotFound
	}

	return nil
}

// GetByID retrieves one queue item by its ID.
func (r *HarvestQueueRepository) GetByID(id string) (model.HarvestQueueItem, error) {
	query := `
		SELECT id, ticker, shares, current_price, cost_basis, unrealized_loss, estimated_tax_benefit, status, created_at, executed_at
		FROM harvest_queue_items
		WHERE id = ?
	`

	row := r.db.QueryRow(query, id)
	item, err := scanQueueItem(row.Scan)
	if err == sql.ErrNoRows {
		return model.HarvestQueueItem{}, apperrors.ErrQueueItemNotFound
	}
	if err != nil {
		return model.HarvestQueueItem{}, err
	}

	return item, nil
}

// GetAll retrieves every queue item, oldest first so that per-ticker merges
// let the most recent item win.
func (r *HarvestQueueRepository) GetAll() ([]model.HarvestQueueItem, error) {
	query := `
		SELECT id, ticker, shares, current_price, cost_basis, unrealized_loss, estimated_tax_benefit, status, created_at, executed_at
		FROM harvest_queue_items
		ORDER BY created_at ASC
	`

	return r.queryItems(query)
}

// GetByStatus retrieves queue items in the given lifecycle state, oldest first.
func (r *HarvestQueueRepository) GetByStatus(status model.HarvestStatus) ([]model.HarvestQueueItem, error) {
	query := `
		SELECT id, ticker, shares, current_price, cost_basis, unrealized_loss, estimated_tax_benefit, status, created_at, executed_at
		FROM harvest_queue_items
		WHERE status = ?
		ORDER BY created_at ASC
	`

	return r.queryItems(query, string(status))
}

// CountByStatus returns the number of queue items in the given state.
func (r *HarvestQueueRepository) CountByStatus(status model.HarvestStatus) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM harvest_queue_items WHERE status = ?`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count harvest queue items: %w", err)
	}
	return count, nil
}

// DeletePendingBefore removes pending items created before the cutoff
// instant. Their prices are stale; a fresh scan regenerates them. Returns
// the number of rows removed.
func (r *HarvestQueueRepository) DeletePendingBefore(cutoff time.Time) (int, error) {
	query := `
		DELETE FROM harvest_queue_items
		WHERE status = ?
		AND created_at < ?
	`

	result, err := r.db.Exec(query,
		string(model.HarvestStatusPending),
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale harvest queue items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return int(affected), nil
}

func (r *HarvestQueueRepository) queryItems(query string, args ...any) ([]model.HarvestQueueItem, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest_queue_items table: %w", err)
	}
	defer rows.Close()

	items := []model.HarvestQueueItem{}

	for rows.Next() {
		item, err := scanQueueItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating harvest_queue_items table: %w", err)
	}

	return items, nil
}

func scanQueueItem(scan func(dest ...any) error) (model.HarvestQueueItem, error) {
	var item model.HarvestQueueItem
	var statusStr, sharesStr, priceStr, costBasisStr, lossStr, benefitStr, createdAtStr string
	var executedAtStr sql.NullString

	err := scan(
		&item.ID,
		&item.Ticker,
		&sharesStr,
		&priceStr,
		&costBasisStr,
		&lossStr,
		&benefitStr,
		&statusStr,
		&createdAtStr,
		&executedAtStr,
	)
	if err == sql.ErrNoRows {
		return model.HarvestQueueItem{}, err
	}
	if err != nil {
		return model.HarvestQueueItem{}, fmt.Errorf("failed to scan harvest_queue_items results: %w", err)
	}

	item.Status = model.HarvestStatus(statusStr)

	if item.Shares, err = ParseDecimal(sharesStr); err != nil {
		return model.HarvestQueueItem{}, err
	}
	if item.CurrentPrice, err = ParseDecimal(priceStr); err != nil {
		return model.HarvestQueueItem{}, err
	}
	if item.CostBasis, err = ParseDecimal(costBasisStr); err != nil {
		return model.HarvestQueueItem{}, err
	}
	if item.UnrealizedLoss, err = ParseDecimal(lossStr); err != nil {
		return model.HarvestQueueItem{}, err
	}
	if item.EstimatedTaxBenefit, err = ParseDecimal(benefitStr); err != nil {
		return model.HarvestQueueItem{}, err
	}
	if item.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.HarvestQueueItem{}, err
	}

	if executedAtStr.Valid {
		executedAt, err := ParseTime(executedAtStr.String)
		if err != nil {
			return model.HarvestQueueItem{}, err
		}
		item.ExecutedAt = &executedAt
	}

	return item, nil
}

func nullableTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
