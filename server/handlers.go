package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/sweetpotato0/lorem-mcp/errors"
	"github.com/sweetpotato0/lorem-mcp/pkg/metrics"
	"github.com/sweetpotato0/lorem-mcp/pkg/telemetry"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ParagraphsResponse is the body of a successful GET /lorem/{count}.
type ParagraphsResponse struct {
	Paragraphs []string `json:"paragraphs"`
}

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

func (s *Server) paragraphs(c *gin.Context) {
	raw := c.Param("count")
	count, err := strconv.Atoi(raw)
	if err != nil {
		metrics.ObserveGeneration(metrics.SurfaceREST, 0, err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "unprocessable entity",
			Detail: fmt.Sprintf("count must be an integer, got %q", raw),
		})
		return
	}

	_, span := telemetry.Start(c.Request.Context(), "rest.lorem", attribute.Int("lorem.paragraph_count", count))

	paragraphs, err := s.generator.Paragraphs(count)
	telemetry.End(span, err)
	metrics.ObserveGeneration(metrics.SurfaceREST, count, err)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ParagraphsResponse{Paragraphs: paragraphs})
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  apperrors.ErrInvalidInput.Error(),
			Detail: err.Error(),
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:  "internal error",
			Detail: http.StatusText(http.StatusInternalServerError),
		})
	}
}
