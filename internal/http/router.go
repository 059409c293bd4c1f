package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/countrymasks/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
//
// allowedOrigins is a comma-separated CORS origin list; empty allows all origins.
func SetupRouter(lookupUC *usecase.LookupUseCase, allowedOrigins string) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(lookupUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/dataset", handler.GetDataset)
	v1.GET("/countries", handler.GetCountries)
	v1.GET("/countries/:code", handler.GetCountry)
	v1.GET("/masks/lookup", handler.GetLookup)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
