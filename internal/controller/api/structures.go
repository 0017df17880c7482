package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// ListStructures handles GET /api/schools/:schoolId/structures
func (h *Handler) ListStructures(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	list, err := h.registry.List(c.Request.Context(), schoolID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		// [] instead of null
		list = []model.StructureSummary{}
	}
	c.JSON(http.StatusOK, list)
}

// CreateStructure handles POST /api/schools/:schoolId/structures
func (h *Handler) CreateStructure(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	var input model.StructureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.registry.Create(c.Request.Context(), schoolID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// GetStructure handles GET /api/schools/:schoolId/structures/:structureId
func (h *Handler) GetStructure(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}
	id, ok := pathUUID(c, "structureId")
	if !ok {
		return
	}

	s, err := h.registry.Get(c.Request.Context(), schoolID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateStructure handles PUT /api/schools/:schoolId/structures/:structureId
func (h *Handler) UpdateStructure(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}
	id, ok := pathUUID(c, "structureId")
	if !ok {
		return
	}

	var input model.StructureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.registry.Update(c.Request.Context(), schoolID, id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// prune dropped days and periods now so re-adding them later cannot bring old cells back
	if _, err := h.coordinator.ReconcileStructure(c.Request.Context(), id); err != nil {
		h.logger.Warn("Failed to prune timetables after structure update",
			zap.String("structure_id", id.String()),
			zap.Error(err))
	}
	c.JSON(http.StatusOK, s)
}

// DeleteStructure handles DELETE /api/schools/:schoolId/structures/:structureId.
// Without ?confirm=true only the impact is reported.
func (h *Handler) DeleteStructure(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}
	id, ok := pathUUID(c, "structureId")
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	impact, err := h.registry.Delete(c.Request.Context(), schoolID, id, confirmed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, impact)
}

// ReconcileStructure handles POST /api/schools/:schoolId/structures/:structureId/reconcile
func (h *Handler) ReconcileStructure(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}
	id, ok := pathUUID(c, "structureId")
	if !ok {
		return
	}

	// the structure must belong to the school
	if _, err := h.registry.Get(c.Request.Context(), schoolID, id); err != nil {
		h.respondError(c, err)
		return
	}

	pruned, err := h.coordinator.ReconcileStructure(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"structureId": id, "prunedCells": pruned})
}
