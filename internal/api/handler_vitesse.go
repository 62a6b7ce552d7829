package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/store"
)

// CreateSpeed handles POST /api/vitesse.
func (h *Handler) CreateSpeed(c *gin.Context) {
	var req createSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}
	if req.Speed == nil {
		respondError(c, apperr.Validationf("speed is required"))
		return
	}
	if *req.Speed < 0 {
		respondError(c, apperr.Validationf("speed must be >= 0"))
		return
	}
	note, err := sampleNote(req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	sample := model.SpeedSample{
		RecordedAt: sampleTime(req.RecordedAt),
		Speed:      *req.Speed,
		Note:       note,
	}
	if err := h.store.CreateSpeed(c.Request.Context(), &sample); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sample)
}

// ListSpeed handles GET /api/vitesse.
func (h *Handler) ListSpeed(c *gin.Context) {
	f := analyticsFilter(c)
	if err := f.Validate(); err != nil {
		respondError(c, err)
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	samples, total, err := h.store.ListSpeed(c.Request.Context(), store.SampleRange{From: f.From, To: f.To}, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": samples,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// SpeedDailySeries handles GET /api/vitesse/daily.
func (h *Handler) SpeedDailySeries(c *gin.Context) {
	rows, err := h.aggregator.SpeedDailySeries(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// SpeedSummary handles GET /api/vitesse/summary.
func (h *Handler) SpeedSummary(c *gin.Context) {
	summary, err := h.aggregator.SpeedStats(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
