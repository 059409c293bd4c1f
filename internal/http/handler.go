package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/countrymasks/internal/usecase"
)

// Handler handles HTTP requests for country mask lookups.
type Handler struct {
	lookupUC *usecase.LookupUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(lookupUC *usecase.LookupUseCase) *Handler {
	return &Handler{
		lookupUC: lookupUC,
	}
}

// GetLookup handles GET /v1/masks/lookup.
func (h *Handler) GetLookup(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon parameters are required"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	result, err := h.lookupUC.Lookup(lat, lon)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidCoordinate) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCountries handles GET /v1/countries.
func (h *Handler) GetCountries(c *gin.Context) {
	countries := h.lookupUC.Countries()
	c.JSON(http.StatusOK, gin.H{
		"countries": countries,
		"count":     len(countries),
	})
}

// GetCountry handles GET /v1/countries/:code.
func (h *Handler) GetCountry(c *gin.Context) {
	info, err := h.lookupUC.Country(c.Param("code"))
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetDataset handles GET /v1/dataset.
func (h *Handler) GetDataset(c *gin.Context) {
	c.JSON(http.StatusOK, h.lookupUC.Dataset())
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
