package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/analytics"
	"line-monitor-backend/internal/classify"
	"line-monitor-backend/internal/mw"
	"line-monitor-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, classifier *classify.Classifier, aggregator *analytics.Aggregator, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, classifier, aggregator, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/causes", handler.CreateCause)
		api.GET("/causes", handler.ListCauses)
		api.GET("/causes/:id", handler.GetCause)
		api.PATCH("/causes/:id", handler.UpdateCause)

		api.POST("/stops", handler.CreateStop)
		api.GET("/stops", handler.ListStops)
		api.GET("/stops/analytics/downtime", caching, handler.DowntimeByCause)
		api.GET("/stops/analytics/daily", caching, handler.DailySummary)
		api.GET("/stops/:id", handler.GetStop)
		api.PATCH("/stops/:id", handler.UpdateStop)

		api.POST("/metrage", handler.CreateMeterage)
		api.GET("/metrage/daily", caching, handler.MeterageDailySeries)
		api.GET("/metrage/total", caching, handler.MeterageTotal)

		api.POST("/vitesse", handler.CreateSpeed)
		api.GET("/vitesse", handler.ListSpeed)
		api.GET("/vitesse/daily", caching, handler.SpeedDailySeries)
		api.GET("/vitesse/summary", caching, handler.SpeedSummary)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
