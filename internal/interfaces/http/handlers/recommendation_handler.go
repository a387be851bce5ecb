package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/recommendation"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// RecommendationHandler serves composite recommendation requests.
type RecommendationHandler struct {
	svc    recommendation.Service
	logger logging.Logger
}

// NewRecommendationHandler creates the handler.
func NewRecommendationHandler(svc recommendation.Service, logger logging.Logger) *RecommendationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RecommendationHandler{svc: svc, logger: logger.Named("recommendation-handler")}
}

// RegisterRoutes mounts the recommendation endpoints.
func (h *RecommendationHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/recommendations", h.Recommend)
}

// Recommend handles POST /api/v1/recommendations.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var input recommendation.Input
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.svc.Recommend(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
