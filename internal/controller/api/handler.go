package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

// Handler holds the services behind the admin API.
type Handler struct {
	registry    *service.StructureRegistry
	coordinator *service.AssignmentCoordinator
	logger      *zap.Logger
}

func NewHandler(registry *service.StructureRegistry, coordinator *service.AssignmentCoordinator, logger *zap.Logger) *Handler {
	return &Handler{
		registry:    registry,
		coordinator: coordinator,
		logger:      logger,
	}
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// pathUUID parses a uuid path parameter. On failure the 400 response is already written.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid " + name,
			"fields": gin.H{name: "must be a uuid"},
		})
		return uuid.Nil, false
	}
	return id, true
}

// schoolClassroom loads the classroom view and hides classrooms of other schools.
func (h *Handler) schoolClassroom(c *gin.Context) (*service.ScheduleView, bool) {
	schoolID, ok := pathUUID(c, "schoolId")
	if !ok {
		return nil, false
	}
	classroomID, ok := pathUUID(c, "classroomId")
	if !ok {
		return nil, false
	}

	view, err := h.coordinator.View(c.Request.Context(), classroomID)
	if err == nil && view.Classroom.SchoolID != schoolID {
		err = model.NewNotFound("classroom", classroomID)
	}
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return view, true
}
