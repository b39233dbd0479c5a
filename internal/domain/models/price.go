package models

import "time"

// PriceRow is one consolidated row of a daily debenture price file.
//
// Fields:
//   - FileDate: business day the source file refers to.
//   - RowIndex: position of the row inside its source file (0-based).
//   - Fields: column name → raw cell value, including the Data column.
type PriceRow struct {
	FileDate time.Time         `json:"file_date"`
	RowIndex int               `json:"row_index"`
	Fields   map[string]string `json:"fields"`
}

// IngestionRun records one file persisted by a batch run.
type IngestionRun struct {
	FileDate   time.Time `json:"file_date"`
	Filename   string    `json:"filename" example:"20250919.txt"`
	RowCount   int       `json:"row_count" example:"412"`
	RunID      string    `json:"run_id" example:"6f1c7f55-6a3e-4c1d-9a8f-0b8d7c1e2a10"`
	IngestedAt time.Time `json:"ingested_at"`
}
