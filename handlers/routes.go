package handlers

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every API route registered
func NewRouter(h *APIHandler, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)

	api := router.Group("/api")
	{
		api.GET("/school", h.GetSchool)

		api.GET("/teachers", h.GetAllTeachers)
		api.POST("/teachers", h.AddTeacher)
		api.GET("/teachers/:id", h.GetTeacherByID)
		api.DELETE("/teachers/:id", h.DeleteTeacher)

		api.GET("/classes", h.GetAllClasses)
		api.POST("/classes", h.AddClass)
		api.GET("/classes/:id", h.GetClassByID)
		api.DELETE("/classes/:id", h.DeleteClass)
		api.POST("/classes/:id/subjects", h.AddClassSubjects)
		api.DELETE("/classes/:id/subjects/:subjectId", h.RemoveClassSubject)

		api.GET("/schedules", h.GetAllSchedules)
		api.POST("/schedules", h.AddSchedule)
		api.GET("/schedules/:id", h.GetScheduleByID)
		api.DELETE("/schedules/:id", h.DeleteSchedule)

		api.GET("/subjects", h.GetAllSubjects)
		api.POST("/subjects", h.AddSubject)
		api.GET("/subjects/:id", h.GetSubjectByID)
		api.DELETE("/subjects/:id", h.DeleteSubject)

		api.POST("/import", h.ImportWorkbook)
		api.GET("/export", h.ExportWorkbook)

		api.GET("/ping", PingHandler)
	}
	return router
}
