package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// respondError maps service errors onto status codes and a JSON body.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		verr *model.ValidationError
		cerr *model.ConflictError
		nerr *model.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  verr.Error(),
			"fields": verr.FieldMap(),
		})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, gin.H{
			"error":                    cerr.Error(),
			"conflictingClassroomId":   cerr.ConflictingClassroomID,
			"conflictingClassroomName": cerr.ConflictingClassroomName,
		})
	case errors.As(err, &nerr):
		c.JSON(http.StatusNotFound, gin.H{"error": nerr.Error()})
	case errors.Is(err, model.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "slot is being edited, try again"})
	case model.IsPersistence(err):
		h.logger.Error("Storage failure",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, change not applied"})
	default:
		h.logger.Error("Unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
}
