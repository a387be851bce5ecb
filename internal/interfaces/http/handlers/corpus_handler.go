package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/ingest"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// CorpusHandler serves article ingestion and the aggregated knowledge base.
type CorpusHandler struct {
	svc    ingest.Service
	logger logging.Logger
}

// NewCorpusHandler creates the handler.
func NewCorpusHandler(svc ingest.Service, logger logging.Logger) *CorpusHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CorpusHandler{svc: svc, logger: logger.Named("corpus-handler")}
}

// RegisterRoutes mounts the corpus endpoints.
func (h *CorpusHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/corpus/articles", h.IngestArticle)
	api.GET("/corpus/stats", h.Stats)
	api.GET("/knowledge", h.Knowledge)
}

// IngestArticle handles POST /api/v1/corpus/articles.
func (h *CorpusHandler) IngestArticle(c *gin.Context) {
	var input ingest.ArticleInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.svc.IngestArticle(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Stats handles GET /api/v1/corpus/stats.
func (h *CorpusHandler) Stats(c *gin.Context) {
	stats, err := h.svc.CorpusStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Knowledge handles GET /api/v1/knowledge.
func (h *CorpusHandler) Knowledge(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.KnowledgeBase())
}
