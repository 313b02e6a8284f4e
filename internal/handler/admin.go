package handler

import (
	"quiz-corpus/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes corpus maintenance operations
type AdminHandler struct {
	ingestion service.CorpusIngestionService
}

func NewAdminHandler(ingestion service.CorpusIngestionService) *AdminHandler {
	return &AdminHandler{ingestion: ingestion}
}

// IngestCorpus godoc
// @Summary Bootstrap the corpus
// @Description Parses the configured sources and writes them when the corpus is empty, or always with force=true
// @Tags admin
// @Produce json
// @Param force query bool false "Replace a non-empty corpus"
// @Success 200 {object} service.IngestionReport
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security AdminToken
// @Router /admin/corpus/ingest [post]
func (h *AdminHandler) IngestCorpus(c *fiber.Ctx) error {
	opts := service.BootstrapOptions{Force: c.QueryBool("force", false)}
	report, err := h.ingestion.Bootstrap(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(report)
}
