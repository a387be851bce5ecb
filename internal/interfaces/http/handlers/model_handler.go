package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/model"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// ModelHandler serves training runs and model metadata.
type ModelHandler struct {
	svc    model.Service
	logger logging.Logger
}

// NewModelHandler creates the handler.
func NewModelHandler(svc model.Service, logger logging.Logger) *ModelHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ModelHandler{svc: svc, logger: logger.Named("model-handler")}
}

// RegisterRoutes mounts the model endpoints.
func (h *ModelHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/train", h.Train)
	api.GET("/model", h.Info)
}

// Train handles POST /api/v1/train.  Training is synchronous: the corpus is
// small enough that a run finishes well within the request deadline.
func (h *ModelHandler) Train(c *gin.Context) {
	input := &model.TrainInput{}
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, input) {
			return
		}
	}

	result, err := h.svc.Train(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Info handles GET /api/v1/model.
func (h *ModelHandler) Info(c *gin.Context) {
	info, err := h.svc.Info(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
