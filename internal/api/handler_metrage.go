package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
)

type createSampleRequest struct {
	RecordedAt *time.Time `json:"recordedAt"`
	Meters     *float64   `json:"meters"`
	Speed      *float64   `json:"speed"`
	Note       *string    `json:"note"`
}

func sampleNote(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	note := strings.TrimSpace(*raw)
	if note == "" {
		return nil, nil
	}
	if len([]rune(note)) > 40 {
		return nil, apperr.Validationf("note must be <= 40 characters")
	}
	return &note, nil
}

func sampleTime(raw *time.Time) time.Time {
	if raw != nil {
		return *raw
	}
	return time.Now()
}

// CreateMeterage handles POST /api/metrage.
func (h *Handler) CreateMeterage(c *gin.Context) {
	var req createSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}
	if req.Meters == nil {
		respondError(c, apperr.Validationf("meters is required"))
		return
	}
	if *req.Meters < 0 {
		respondError(c, apperr.Validationf("meters must be >= 0"))
		return
	}
	note, err := sampleNote(req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	entry := model.MeterageEntry{
		RecordedAt: sampleTime(req.RecordedAt),
		Meters:     *req.Meters,
		Note:       note,
	}
	if err := h.store.CreateMeterage(c.Request.Context(), &entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// MeterageDailySeries handles GET /api/metrage/daily.
func (h *Handler) MeterageDailySeries(c *gin.Context) {
	rows, err := h.aggregator.MeterageDailySeries(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// MeterageTotal handles GET /api/metrage/total.
func (h *Handler) MeterageTotal(c *gin.Context) {
	total, err := h.aggregator.MeterageSum(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, total)
}
