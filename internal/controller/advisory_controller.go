package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fertilizer-advisory/internal/service"

	"github.com/gin-gonic/gin"
)

// AdvisoryController handles fertilizer advisory HTTP requests
type AdvisoryController struct {
	advisoryService service.AdvisoryService
	logger          *slog.Logger
}

// NewAdvisoryController creates a new advisory controller
func NewAdvisoryController(advisoryService service.AdvisoryService, logger *slog.Logger) *AdvisoryController {
	return &AdvisoryController{
		advisoryService: advisoryService,
		logger:          logger,
	}
}

// RegisterRoutes mounts the advisory endpoints on a /v1 group
func (c *AdvisoryController) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/health", c.Health)
	v1.POST("/farmers", c.RegisterFarmer)

	recommendations := v1.Group("/recommendations")
	{
		recommendations.POST("", c.CreateRecommendation)
		recommendations.GET("/history", c.GetHistory)
	}

	v1.GET("/crops", c.ListCrops)
	v1.GET("/districts", c.ListDistricts)
	v1.GET("/mandals", c.ListMandals)
	v1.GET("/weather", c.GetWeather)
}

// Health handles GET /v1/health
func (c *AdvisoryController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RegisterFarmer handles POST /v1/farmers
func (c *AdvisoryController) RegisterFarmer(ctx *gin.Context) {
	var input service.FarmerRegistration
	if err := ctx.ShouldBindJSON(&input); err != nil {
		c.badRequest(ctx, "invalid registration body", err)
		return
	}

	farmer, err := c.advisoryService.RegisterFarmer(input)
	if err != nil {
		c.respondError(ctx, "failed to register farmer", err, "mobile", input.Mobile)
		return
	}

	c.logger.Info("farmer registered",
		"farmer_id", farmer.ID,
		"district", farmer.District,
	)
	ctx.JSON(http.StatusCreated, farmer)
}

// CreateRecommendation handles POST /v1/recommendations?farmer_mobile=
func (c *AdvisoryController) CreateRecommendation(ctx *gin.Context) {
	startTime := time.Now()

	mobile := ctx.Query("farmer_mobile")
	if mobile == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required parameter",
			"message": "farmer_mobile is required",
		})
		return
	}

	var input service.RecommendationInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		c.badRequest(ctx, "invalid recommendation body", err)
		return
	}

	rec, err := c.advisoryService.Recommend(ctx.Request.Context(), mobile, input)
	if err != nil {
		c.respondError(ctx, "failed to build recommendation", err,
			"crop", input.CropName,
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		return
	}

	c.logger.Info("recommendation request completed",
		"crop", rec.CropKey,
		"stage", rec.CurrentStage,
		"fertilizers", len(rec.Fertilizers),
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, rec)
}

// GetHistory handles GET /v1/recommendations/history?farmer_mobile=
func (c *AdvisoryController) GetHistory(ctx *gin.Context) {
	mobile := ctx.Query("farmer_mobile")
	if mobile == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required parameter",
			"message": "farmer_mobile is required",
		})
		return
	}

	history, err := c.advisoryService.History(mobile)
	if err != nil {
		c.respondError(ctx, "failed to load history", err)
		return
	}
	ctx.JSON(http.StatusOK, history)
}

// ListCrops handles GET /v1/crops
func (c *AdvisoryController) ListCrops(ctx *gin.Context) {
	crops, err := c.advisoryService.Crops()
	if err != nil {
		c.respondError(ctx, "failed to list crops", err)
		return
	}
	ctx.JSON(http.StatusOK, crops)
}

// ListDistricts handles GET /v1/districts
func (c *AdvisoryController) ListDistricts(ctx *gin.Context) {
	districts, err := c.advisoryService.Districts()
	if err != nil {
		c.respondError(ctx, "failed to list districts", err)
		return
	}
	ctx.JSON(http.StatusOK, named(districts))
}

// ListMandals handles GET /v1/mandals?district=
func (c *AdvisoryController) ListMandals(ctx *gin.Context) {
	district := ctx.Query("district")
	mandals, err := c.advisoryService.Mandals(district)
	if err != nil {
		c.respondError(ctx, "failed to list mandals", err, "district", district)
		return
	}
	ctx.JSON(http.StatusOK, named(mandals))
}

// GetWeather handles GET /v1/weather?district=&mandal=
func (c *AdvisoryController) GetWeather(ctx *gin.Context) {
	district := ctx.Query("district")
	mandal := ctx.Query("mandal")

	snapshot, err := c.advisoryService.CurrentWeather(ctx.Request.Context(), district, mandal)
	if err != nil {
		c.respondError(ctx, "failed to fetch weather", err, "district", district, "mandal", mandal)
		return
	}
	ctx.JSON(http.StatusOK, snapshot)
}

func (c *AdvisoryController) badRequest(ctx *gin.Context, msg string, err error) {
	c.logger.Warn(msg, "error", err.Error())
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"message": err.Error(),
	})
}

// respondError maps service errors to HTTP responses
func (c *AdvisoryController) respondError(ctx *gin.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err.Error())

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.logger.Warn(msg, attrs...)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid input",
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrFarmerNotFound):
		c.logger.Warn(msg, attrs...)
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Farmer not found",
			"message": "No farmer is registered with this mobile number",
		})
	case errors.Is(err, service.ErrFarmerExists):
		c.logger.Warn(msg, attrs...)
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "Farmer already registered",
			"message": "A farmer with this mobile number already exists",
		})
	default:
		c.logger.Error(msg, attrs...)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to process request",
		})
	}
}

type nameInfo struct {
	Name string `json:"name"`
}

func named(values []string) []nameInfo {
	result := make([]nameInfo, 0, len(values))
	for _, v := range values {
		result = append(result, nameInfo{Name: v})
	}
	return result
}
