package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/guttosm/debpulse/internal/domain/models"
)

func TestErrorResponse_Error(t *testing.T) {
	e := ErrorResponse{Message: "oops"}
	if e.Error() != "oops" {
		t.Fatalf("want 'oops' got %q", e.Error())
	}
	e2 := ErrorResponse{Message: "oops", ErrorDetails: "bad"}
	if e2.Error() != "oops: bad" {
		t.Fatalf("want 'oops: bad' got %q", e2.Error())
	}
}

func TestNewErrorResponse(t *testing.T) {
	e := NewErrorResponse("msg", nil)
	if e.Message != "msg" || e.ErrorDetails != "" {
		t.Fatalf("unexpected %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Fatalf("timestamp not set")
	}

	e2 := NewErrorResponse("msg", errors.New("boom"))
	if e2.ErrorDetails != "boom" || e2.Message != "msg" {
		t.Fatalf("unexpected %+v", e2)
	}
}

func TestNewPricesResponse(t *testing.T) {
	rows := []models.PriceRow{
		{RowIndex: 0, Fields: map[string]string{"Código": "AALM12"}},
		{RowIndex: 1, Fields: map[string]string{"Código": "BRKM15"}},
	}
	out := NewPricesResponse("20250919", rows)
	if out.Data != "20250919" || out.Count != 2 || out.Rows[1]["Código"] != "BRKM15" {
		t.Fatalf("unexpected %+v", out)
	}

	empty := NewPricesResponse("20250919", nil)
	if empty.Rows == nil || empty.Count != 0 {
		t.Fatalf("empty response should carry an empty slice: %+v", empty)
	}
}
