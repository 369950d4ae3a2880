package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/claimsflow/backend/docs"
	"github.com/claimsflow/backend/internal/ai"
	"github.com/claimsflow/backend/internal/config"
	"github.com/claimsflow/backend/internal/db"
	"github.com/claimsflow/backend/internal/http/handlers"
	"github.com/claimsflow/backend/internal/http/middleware"
	"github.com/claimsflow/backend/internal/service"
	"github.com/claimsflow/backend/internal/video"
)

func Router(cfg config.Config, store *db.Store, adapter ai.Adapter, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxVideoSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	validate := validator.New()
	suggestions := &service.SuggestionsService{
		Store:  store,
		Claims: store,
		AI:     adapter,
		Logger: logger,
	}
	claims := &service.ClaimsService{
		Store: store,
		AI:    adapter,
		Video: video.Validator{
			MaxBytes:    cfg.MaxVideoSizeMB << 20,
			MaxDuration: time.Duration(cfg.MaxVideoSeconds) * time.Second,
		},
		Generator: suggestions,
		Logger:    logger,
	}

	h := &handlers.Handler{
		Claims:        claims,
		Suggestions:   suggestions,
		DB:            store,
		Validator:     validate,
		Logger:        logger,
		MaxVideoBytes: cfg.MaxVideoSizeMB << 20,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.APIKey(cfg.APIKey))
	{
		api.POST("/claims", h.CreateClaim)
		api.GET("/claims", h.ListClaims)
		api.GET("/claims/recent", h.RecentClaims)
		api.GET("/claims/with-video-analysis", h.ClaimsWithVideoAnalysis)
		api.GET("/claims/:id", h.GetClaim)
		api.PATCH("/claims/:id", h.UpdateClaim)
		api.DELETE("/claims/:id", h.DeleteClaim)
		api.POST("/claims/:id/video", h.UploadVideo)
		api.POST("/claims/:id/suggestions", h.GenerateSuggestions)
		api.GET("/claims/:id/suggestions", h.ListClaimSuggestions)

		api.GET("/suggestions/pending", h.PendingSuggestions)
		api.GET("/suggestions/high-confidence", h.HighConfidenceSuggestions)
		api.GET("/suggestions/metrics", h.SuggestionMetrics)
		api.GET("/suggestions/:id", h.GetSuggestion)
		api.POST("/suggestions/:id/review", h.ReviewSuggestion)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
