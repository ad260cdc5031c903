package handlers

import (
	"log"
	"net/http"
	"time"

	"census-backend/internal/services"
)

// ExportHandler streams the CSV projection of all households.
type ExportHandler struct {
	Export *services.ExportService
}

func NewExportHandler(export *services.ExportService) *ExportHandler {
	return &ExportHandler{Export: export}
}

// Download writes the full export as an attachment.
// GET /api/export
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := "enumeration_" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.Export.WriteCSV(w); err != nil {
		// Headers may already be out; log rather than rewrite the response
		log.Printf("[Export] Failed mid-stream: %v", err)
	}
}
