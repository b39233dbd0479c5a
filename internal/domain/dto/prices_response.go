package dto

import "github.com/guttosm/debpulse/internal/domain/models"

// PricesResponse represents the JSON structure returned by
// GET /api/v1/prices.
type PricesResponse struct {
	Data  string              `json:"data" example:"20250919"` // File date requested (YYYYMMDD)
	Count int                 `json:"count" example:"412"`     // Number of rows returned
	Rows  []map[string]string `json:"rows"`                    // Column → value, in file order
}

// NewPricesResponse flattens stored rows into the API shape.
func NewPricesResponse(date string, rows []models.PriceRow) PricesResponse {
	out := PricesResponse{Data: date, Count: len(rows), Rows: make([]map[string]string, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, r.Fields)
	}
	return out
}

// RunsResponse represents the JSON structure returned by GET /api/v1/runs.
type RunsResponse struct {
	Count int                   `json:"count" example:"5"`
	Runs  []models.IngestionRun `json:"runs"`
}
