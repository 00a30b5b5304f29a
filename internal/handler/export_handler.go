package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/service"
	"github.com/noah-isme/sma-widget-api/pkg/response"
)

type examExporter interface {
	ExportUpcomingExams(ctx context.Context, format string) (*service.ExportFile, error)
}

// ExportHandler streams exam timetable downloads.
type ExportHandler struct {
	service examExporter
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service examExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Exams godoc
// @Summary Download upcoming exams
// @Tags Exams
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exams/export [get]
func (h *ExportHandler) Exams(c *gin.Context) {
	file, err := h.service.ExportUpcomingExams(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
