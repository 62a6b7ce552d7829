package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"line-monitor-backend/internal/analytics"
)

func analyticsFilter(c *gin.Context) analytics.Filter {
	return analytics.Filter{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Equipe: queryInt(c, "equipe", 0),
	}
}

// DowntimeByCause handles GET /api/stops/analytics/downtime.
func (h *Handler) DowntimeByCause(c *gin.Context) {
	rows, err := h.aggregator.DowntimeByCause(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// DailySummary handles GET /api/stops/analytics/daily.
func (h *Handler) DailySummary(c *gin.Context) {
	rows, err := h.aggregator.DailySummary(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
