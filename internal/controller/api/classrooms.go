package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/export"
	"github.com/Freeeeeet/school_timetable/internal/model"
)

type assignStructureRequest struct {
	StructureID *uuid.UUID `json:"structureId"`
}

type setSlotRequest struct {
	Subject   string `json:"subject"`
	TeacherID string `json:"teacherId"`
}

type classroomResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	StructureID *uuid.UUID `json:"structureId"`
}

// ListClassrooms handles GET /api/schools/:schoolId/classrooms
func (h *Handler) ListClassrooms(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	list, err := h.coordinator.Classrooms(c.Request.Context(), schoolID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]classroomResponse, 0, len(list))
	for _, cl := range list {
		out = append(out, classroomResponse{ID: cl.ID, Name: cl.Name, StructureID: cl.TimetableStructureID})
	}
	c.JSON(http.StatusOK, out)
}

// AssignStructure handles PUT /api/schools/:schoolId/classrooms/:classroomId/structure.
// {"structureId": null} detaches the classroom.
func (h *Handler) AssignStructure(c *gin.Context) {
	view, ok := h.schoolClassroom(c)
	if !ok {
		return
	}

	var req assignStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sched, err := h.coordinator.AssignStructure(c.Request.Context(), view.Classroom.ID, req.StructureID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// GetSchedule handles GET /api/schools/:schoolId/classrooms/:classroomId/schedule
func (h *Handler) GetSchedule(c *gin.Context) {
	view, ok := h.schoolClassroom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view.Schedule)
}

// SetSlot handles PUT /api/schools/:schoolId/classrooms/:classroomId/schedule/:day/:periodId
func (h *Handler) SetSlot(c *gin.Context) {
	view, ok := h.schoolClassroom(c)
	if !ok {
		return
	}

	var req setSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sched, err := h.coordinator.SetSlot(c.Request.Context(), view.Classroom.ID,
		model.DayName(c.Param("day")), c.Param("periodId"), req.Subject, req.TeacherID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// ClearSlot handles DELETE /api/schools/:schoolId/classrooms/:classroomId/schedule/:day/:periodId
func (h *Handler) ClearSlot(c *gin.Context) {
	view, ok := h.schoolClassroom(c)
	if !ok {
		return
	}

	sched, err := h.coordinator.ClearSlot(c.Request.Context(), view.Classroom.ID,
		model.DayName(c.Param("day")), c.Param("periodId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// ExportXLSX handles GET /api/schools/:schoolId/classrooms/:classroomId/schedule.xlsx
func (h *Handler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.RenderXLSX)
}

// ExportPNG handles GET /api/schools/:schoolId/classrooms/:classroomId/schedule.png
func (h *Handler) ExportPNG(c *gin.Context) {
	h.export(c, "png", "image/png", export.RenderPNG)
}

func (h *Handler) export(c *gin.Context, ext, contentType string, render func(*export.Timetable) ([]byte, error)) {
	view, ok := h.schoolClassroom(c)
	if !ok {
		return
	}

	teachers, err := h.coordinator.AssignableTeachers(c.Request.Context(), view.Classroom.SchoolID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := render(&export.Timetable{
		Title:        view.Classroom.Name,
		Structure:    view.Structure,
		Schedule:     view.Schedule,
		TeacherNames: export.TeacherNames(teachers),
	})
	if err != nil {
		h.respondError(c, fmt.Errorf("render %s: %w", ext, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="timetable-%s.%s"`, view.Classroom.ID, ext))
	c.Data(http.StatusOK, contentType, data)
}
