package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"markline/backend/internal/service"
	"markline/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves the Excel reports.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// AggregationReport downloads an order's aggregation tree as xlsx.
// GET /api/v1/orders/:id/report
func (h *ExportHandler) AggregationReport(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAggregations(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// CorrectionReport downloads the correction-mode accounting as xlsx.
// GET /api/v1/orders/:id/correction-report
func (h *ExportHandler) CorrectionReport(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCorrection(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

func writeXLSX(c *gin.Context, data []byte, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, data)
}
