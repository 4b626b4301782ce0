package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// RatingsHandler serves the aggregate rating
type RatingsHandler struct {
	ratings domain.RatingService
	logger  *zap.Logger
}

// NewRatingsHandler creates a new ratings handler
func NewRatingsHandler(ratings domain.RatingService, logger *zap.Logger) *RatingsHandler {
	return &RatingsHandler{
		ratings: ratings,
		logger:  logger,
	}
}

// Average handles GET /api/v1/ratings/average?download_type=
func (h *RatingsHandler) Average(c *gin.Context) {
	platform := domain.Platform(c.DefaultQuery("download_type", string(domain.PlatformOverall)))
	if platform != domain.PlatformOverall && !domain.ValidatePlatform(platform) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown download type."})
		return
	}

	avg, err := h.ratings.GetAverageRating(c.Request.Context(), platform)
	if err != nil {
		h.logger.Warn("Failed to load average rating",
			zap.String("download_type", string(platform)),
			zap.Error(err))
		c.JSON(statusFor(err), ErrorResponse{Error: domain.UserMessage(err, "")})
		return
	}

	c.JSON(http.StatusOK, avg)
}
