package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the admin API engine.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)

		school := api.Group("/schools/:schoolId")
		{
			school.GET("/structures", h.ListStructures)
			school.POST("/structures", h.CreateStructure)
			school.GET("/structures/:structureId", h.GetStructure)
			school.PUT("/structures/:structureId", h.UpdateStructure)
			school.DELETE("/structures/:structureId", h.DeleteStructure)
			school.POST("/structures/:structureId/reconcile", h.ReconcileStructure)

			school.GET("/classrooms", h.ListClassrooms)
			school.PUT("/classrooms/:classroomId/structure", h.AssignStructure)
			school.GET("/classrooms/:classroomId/schedule", h.GetSchedule)
			school.GET("/classrooms/:classroomId/schedule.xlsx", h.ExportXLSX)
			school.GET("/classrooms/:classroomId/schedule.png", h.ExportPNG)
			school.PUT("/classrooms/:classroomId/schedule/:day/:periodId", h.SetSlot)
			school.DELETE("/classrooms/:classroomId/schedule/:day/:periodId", h.ClearSlot)

			school.GET("/availability", h.CheckAvailability)
			school.GET("/teachers", h.ListTeachers)
			school.GET("/teachers/:teacherId/timetable", h.TeacherTimetable)
			school.GET("/teachers/:teacherId/suggested-subject", h.SuggestSubject)
			school.GET("/subjects", h.ListSubjects)
		}
	}

	return router
}
