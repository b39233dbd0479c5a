package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/debpulse/internal/domain/dto"
	"github.com/guttosm/debpulse/internal/middleware"
	"github.com/guttosm/debpulse/internal/service"
)

const (
	dateLayout        = "20060102"
	defaultRunsLimit  = 20
	errMsgInvalidDate = "invalid data format, expected YYYYMMDD"
)

var errDateRequired = errors.New("data is required")

// Handler serves read access to the persisted debenture prices.
type Handler struct {
	svc service.PricesService
}

// NewHandler constructs a Handler backed by svc.
func NewHandler(svc service.PricesService) *Handler {
	return &Handler{svc: svc}
}

// GetPrices handles GET /api/v1/prices.
//
// The data parameter is the file date, the same value carried in the Data
// column of the consolidated CSV.
//
// GetPrices godoc
// @Summary      Get daily prices for a file date
// @Description  Returns every row persisted for the given ANBIMA daily price file
// @Tags         prices
// @Produce      json
// @Param        data  query     string  true  "File date in YYYYMMDD" example(20250919)
// @Success      200   {object}  dto.PricesResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse   "Not Found"
// @Failure      500   {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("data"))
	if raw == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "data is required", errDateRequired)
		return
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errMsgInvalidDate, err)
		return
	}

	rows, err := h.svc.GetPrices(c.Request.Context(), date)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to fetch prices", err)
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("no prices found for "+raw, nil))
		return
	}

	c.JSON(http.StatusOK, dto.NewPricesResponse(raw, rows))
}

// ListRuns handles GET /api/v1/runs.
//
// ListRuns godoc
// @Summary      List ingestion runs
// @Description  Returns the most recent ingestion log entries, newest file date first
// @Tags         runs
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (1-100)" default(20)
// @Success      200    {object}  dto.RunsResponse   "Success"
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid limit, expected integer", err)
			return
		}
		limit = n
	}

	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to list runs", err)
		return
	}

	c.JSON(http.StatusOK, dto.RunsResponse{Count: len(runs), Runs: runs})
}
