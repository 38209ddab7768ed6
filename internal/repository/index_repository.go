package repository

import (
	"database/sql"
	"fmt"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/model"
)

// IndexRepository provides data access methods for the index_constituents
// table holding the tracked index and its target weights.
type IndexRepository struct {
	db *sql.DB
}

// NewIndexRepository creates a new IndexRepository with the provided database connection.
func NewIndexRepository(db *sql.DB) *IndexRepository {
	return &IndexRepository{db: db}
}

// GetAll retrieves every constituent ordered by target weight, heaviest first.
func (r *IndexRepository) GetAll() ([]model.IndexConstituent, error) {
	query := `
		SELECT symbol, name, weight, sector
		FROM index_constituents
		ORDER BY CAST(weight AS REAL) DESC, symbol ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query index_constituents table: %w", err)
	}
	defer rows.Close()

	constituents := []model.IndexConstituent{}

	for rows.Next() {
		var constituent model.IndexConstituent
		var weightStr string

		err := rows.Scan(
			&constituent.Symbol,
			&constituent.Name,
			&weightStr,
			&constituent.Sector,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index_constituents results: %w", err)
		}

		if constituent.Weight, err = ParseDecimal(weightStr); err != nil {
			return nil, err
		}

		constituents = append(constituents, constituent)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index_constituents table: %w", err)
	}

	return constituents, nil
}

// ReplaceAll swaps the whole constituent set in one transaction. The index
// definition is replaced wholesale, never patched row-by-row.
func (r *IndexRepository) ReplaceAll(constituents []model.IndexConstituent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM index_constituents`); err != nil {
		return fmt.Errorf("failed to clear index_constituents table: %w", err)
	}

	insertQuery := `
		INSERT INTO index_constituents (symbol, name, weight, sector)
		VALUES (?, ?, ?, ?)
	`

	for _, constituent := range constituents {
		_, err := tx.Exec(insertQuery,
			constituent.Symbol,
			constituent.Name,
			constituent.Weight.String(),
			constituent.Sector,
		)
		if err != nil {
			return fmt.Errorf("failed to insert index constituent %s: %w", constituent.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index constituents: %w", err)
	}

	return nil
}
