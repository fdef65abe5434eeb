package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learnmap-backend/internal/apierr"
	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/services"
)

type NodeHandler struct {
	log         *logger.Logger
	nodeService services.NodeService
}

func NewNodeHandler(log *logger.Logger, nodeService services.NodeService) *NodeHandler {
	return &NodeHandler{
		log:         log.With("handler", "NodeHandler"),
		nodeService: nodeService,
	}
}

func (h *NodeHandler) ListNodes(c *gin.Context) {
	roadmapID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	nodes, err := h.nodeService.ListNodes(c.Request.Context(), roadmapID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, nodes)
}

func (h *NodeHandler) GetTree(c *gin.Context) {
	roadmapID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tree, err := h.nodeService.GetTree(c.Request.Context(), roadmapID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, tree)
}

func (h *NodeHandler) GetLevels(c *gin.Context) {
	roadmapID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	levels, err := h.nodeService.GetLevels(c.Request.Context(), roadmapID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, levels)
}

func (h *NodeHandler) CreateNode(c *gin.Context) {
	roadmapID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.NodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	node, err := h.nodeService.CreateNode(c.Request.Context(), roadmapID, input)
	if err != nil {
		h.log.Error("CreateNode failed", "error", err, "roadmap_id", roadmapID)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, node)
}

// updateNodeRequest keeps parent_id as raw JSON so a PATCH can tell apart
// "parent_id absent", "parent_id": null, and "parent_id": "<uuid>".
type updateNodeRequest struct {
	Title        *string         `json:"title"`
	Type         *string         `json:"type"`
	Topic        *string         `json:"topic"`
	ResourceURL  *string         `json:"resource_url"`
	TimeEstimate *int            `json:"time_estimate"`
	Status       *string         `json:"status"`
	Content      *string         `json:"content"`
	Order        *int            `json:"order"`
	ParentID     json.RawMessage `json:"parent_id"`
}

func (r updateNodeRequest) toPatch() (services.NodePatch, error) {
	patch := services.NodePatch{
		Title:        r.Title,
		Type:         r.Type,
		Topic:        r.Topic,
		ResourceURL:  r.ResourceURL,
		TimeEstimate: r.TimeEstimate,
		Status:       r.Status,
		Content:      r.Content,
		Order:        r.Order,
	}
	if len(r.ParentID) == 0 {
		return patch, nil
	}
	patch.ParentIDSet = true
	if bytes.Equal(bytes.TrimSpace(r.ParentID), []byte("null")) {
		return patch, nil
	}
	var parentID uuid.UUID
	if err := json.Unmarshal(r.ParentID, &parentID); err != nil {
		return patch, err
	}
	patch.ParentID = &parentID
	return patch, nil
}

func (h *NodeHandler) UpdateNode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	node, err := h.nodeService.UpdateNode(c.Request.Context(), id, patch)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, node)
}

func (h *NodeHandler) DeleteNode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.nodeService.DeleteNode(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NodeHandler) Reorder(c *gin.Context) {
	roadmapID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Updates []services.ReorderUpdate `json:"updates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	updated, err := h.nodeService.BatchReorder(c.Request.Context(), roadmapID, req.Updates)
	if err != nil {
		// Partial application is possible: report what was applied alongside
		// the failure so the caller can reconcile.
		status, code := apierr.Status(err)
		c.JSON(status, gin.H{
			"error":   gin.H{"message": err.Error(), "code": code},
			"applied": updated,
		})
		return
	}
	RespondOK(c, updated)
}
