package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"line-monitor-backend/internal/analytics"
	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/classify"
	"line-monitor-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	classifier *classify.Classifier
	aggregator *analytics.Aggregator
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, classifier *classify.Classifier, aggregator *analytics.Aggregator, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:      s,
		classifier: classifier,
		aggregator: aggregator,
		webpush:    webpushOptions,
	}
}

// respondError maps an application error to its HTTP status.
// Configuration faults are operational problems, so they are logged at
// error level for alerting while validation noise stays at debug.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	switch {
	case apperr.IsConfiguration(err):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("configuration fault")
	case status >= 500:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	default:
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
