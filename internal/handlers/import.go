package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnmap-backend/internal/apierr"
	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/services"
)

type ImportHandler struct {
	log           *logger.Logger
	importService services.ImportService
}

func NewImportHandler(log *logger.Logger, importService services.ImportService) *ImportHandler {
	return &ImportHandler{
		log:           log.With("handler", "ImportHandler"),
		importService: importService,
	}
}

// ImportNodes accepts either a JSON array of parsed records, a JSON object
// with a "csv" field holding raw CSV text, or a text/csv (or text/plain)
// body of raw CSV.
func (h *ImportHandler) ImportNodes(c *gin.Context) {
	roadmapID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var records []services.ImportRecord
	contentType := c.ContentType()
	if contentType == "text/csv" || contentType == "text/plain" {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		records = services.ParseCSVRows(string(body))
	} else {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		trimmed := strings.TrimSpace(string(raw))
		if strings.HasPrefix(trimmed, "[") {
			if err := bindJSON(trimmed, &records); err != nil {
				RespondError(c, http.StatusBadRequest, "validation", err)
				return
			}
		} else {
			var req struct {
				CSV string `json:"csv"`
			}
			if err := bindJSON(trimmed, &req); err != nil {
				RespondError(c, http.StatusBadRequest, "validation", err)
				return
			}
			records = services.ParseCSVRows(req.CSV)
		}
	}

	result, err := h.importService.ImportNodes(c.Request.Context(), roadmapID, records)
	if err != nil {
		h.log.Error("ImportNodes failed", "error", err, "roadmap_id", roadmapID)
		status, code := apierr.Status(err)
		RespondError(c, status, code, err)
		return
	}
	RespondCreated(c, result)
}

func bindJSON(body string, out interface{}) error {
	return json.Unmarshal([]byte(body), out)
}
