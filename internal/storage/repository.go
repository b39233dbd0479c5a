package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guttosm/debpulse/internal/domain/models"
	pq "github.com/lib/pq"
)

// PricesRepository defines contract for DB operations.
type PricesRepository interface {
	ReplacePricesForDate(date time.Time, rows []models.PriceRow) error
	UpsertIngestionLog(run models.IngestionRun) error
	GetPricesByDate(date time.Time) ([]models.PriceRow, error)
	ListIngestionRuns(limit int) ([]models.IngestionRun, error)
}

type pricesRepository struct {
	db *sql.DB
}

func NewPricesRepository(db *sql.DB) PricesRepository {
	return &pricesRepository{db: db}
}

// ReplacePricesForDate deletes the rows stored for date and bulk loads rows
// in a single transaction, so re-running a day never duplicates it in the DB.
func (r *pricesRepository) ReplacePricesForDate(date time.Time, rows []models.PriceRow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM debenture_prices WHERE file_date = $1`, date); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn("debenture_prices", "file_date", "row_index", "fields"))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, row := range rows {
		fields, err := json.Marshal(row.Fields)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("marshal row %d: %w", row.RowIndex, err)
		}
		if _, err := stmt.Exec(date, row.RowIndex, string(fields)); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpsertIngestionLog records (or updates) an ingestion entry for a given day.
func (r *pricesRepository) UpsertIngestionLog(run models.IngestionRun) error {
	_, err := r.db.Exec(`
		INSERT INTO ingestion_log (file_date, filename, row_count, run_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_date)
		DO UPDATE SET filename = EXCLUDED.filename,
					  row_count = EXCLUDED.row_count,
					  run_id = EXCLUDED.run_id,
					  ingested_at = NOW()
	`, run.FileDate, run.Filename, run.RowCount, run.RunID)
	return err
}

// GetPricesByDate returns the stored rows of one file date in file order.
// An empty slice means nothing was ingested for that day.
func (r *pricesRepository) GetPricesByDate(date time.Time) ([]models.PriceRow, error) {
	rows, err := r.db.Query(`
		SELECT file_date, row_index, fields
		FROM debenture_prices
		WHERE file_date = $1
		ORDER BY row_index
	`, date)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.PriceRow{}
	for rows.Next() {
		var (
			p   models.PriceRow
			raw []byte
		)
		if err := rows.Scan(&p.FileDate, &p.RowIndex, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &p.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of row %d: %w", p.RowIndex, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListIngestionRuns returns the most recent ingestion log entries, newest file date first.
func (r *pricesRepository) ListIngestionRuns(limit int) ([]models.IngestionRun, error) {
	rows, err := r.db.Query(`
		SELECT file_date, filename, row_count, run_id, ingested_at
		FROM ingestion_log
		ORDER BY file_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.IngestionRun{}
	for rows.Next() {
		var run models.IngestionRun
		if err := rows.Scan(&run.FileDate, &run.Filename, &run.RowCount, &run.RunID, &run.IngestedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
