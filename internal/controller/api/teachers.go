package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// CheckAvailability handles GET /api/schools/:schoolId/availability?teacherId=&day=&periodId=&excludeClassroomId=
func (h *Handler) CheckAvailability(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	teacherID := c.Query("teacherId")
	day := model.DayName(c.Query("day"))
	periodID := c.Query("periodId")

	fields := gin.H{}
	if teacherID == "" {
		fields["teacherId"] = "this field is required"
	}
	if !day.IsValid() {
		fields["day"] = "must be a day name"
	}
	if periodID == "" {
		fields["periodId"] = "this field is required"
	}

	var exclude uuid.UUID
	if raw := c.Query("excludeClassroomId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields["excludeClassroomId"] = "must be a uuid"
		}
		exclude = id
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid availability query", "fields": fields})
		return
	}

	avail, err := h.coordinator.CheckAvailability(c.Request.Context(), schoolID, teacherID, day, periodID, exclude)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

// ListTeachers handles GET /api/schools/:schoolId/teachers
func (h *Handler) ListTeachers(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	teachers, err := h.coordinator.AssignableTeachers(c.Request.Context(), schoolID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if teachers == nil {
		teachers = []*model.Teacher{}
	}
	c.JSON(http.StatusOK, teachers)
}

// TeacherTimetable handles GET /api/schools/:schoolId/teachers/:teacherId/timetable
func (h *Handler) TeacherTimetable(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	slots, err := h.coordinator.TeacherTimetable(c.Request.Context(), schoolID, c.Param("teacherId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if slots == nil {
		slots = []model.TeacherSlot{}
	}
	c.JSON(http.StatusOK, slots)
}

// SuggestSubject handles GET /api/schools/:schoolId/teachers/:teacherId/suggested-subject
func (h *Handler) SuggestSubject(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	subject, err := h.coordinator.SuggestSubject(c.Request.Context(), schoolID, c.Param("teacherId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject})
}

// ListSubjects handles GET /api/schools/:schoolId/subjects
func (h *Handler) ListSubjects(c *gin.Context) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return
	}

	subjects, err := h.coordinator.AssignableSubjects(c.Request.Context(), schoolID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if subjects == nil {
		subjects = []*model.Subject{}
	}
	c.JSON(http.StatusOK, subjects)
}
