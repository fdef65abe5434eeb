package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/services"
)

type RoadmapHandler struct {
	log            *logger.Logger
	roadmapService services.RoadmapService
}

func NewRoadmapHandler(log *logger.Logger, roadmapService services.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{
		log:            log.With("handler", "RoadmapHandler"),
		roadmapService: roadmapService,
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *RoadmapHandler) ListRoadmaps(c *gin.Context) {
	roadmaps, err := h.roadmapService.ListRoadmaps(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("ListRoadmaps failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, roadmaps)
}

func (h *RoadmapHandler) GetRoadmap(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roadmap, err := h.roadmapService.GetRoadmap(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, roadmap)
}

func (h *RoadmapHandler) CreateRoadmap(c *gin.Context) {
	var input services.CreateRoadmapInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	roadmap, err := h.roadmapService.CreateRoadmap(c.Request.Context(), input)
	if err != nil {
		h.log.Error("CreateRoadmap failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, roadmap)
}

func (h *RoadmapHandler) UpdateRoadmap(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var patch services.RoadmapPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	roadmap, err := h.roadmapService.UpdateRoadmap(c.Request.Context(), id, patch)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, roadmap)
}

func (h *RoadmapHandler) DeleteRoadmap(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.roadmapService.DeleteRoadmap(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoadmapHandler) GetProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	progress, err := h.roadmapService.GetProgress(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, progress)
}
