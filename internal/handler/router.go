package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
)

// Handlers groups the handlers mounted under the API prefix.
type Handlers struct {
	Catalog   *CatalogHandler
	Timetable *TimetableHandler
	Generator *TimetableGeneratorHandler
}

// RegisterRoutes mounts the API on group. auth runs before every route.
func RegisterRoutes(group *gin.RouterGroup, auth gin.HandlerFunc, h Handlers) {
	admin := string(models.RoleAdmin)
	faculty := string(models.RoleFaculty)
	student := string(models.RoleStudent)
	anyRole := middleware.RBAC(admin, faculty, student)

	group.Use(auth)

	catalog := group.Group("/catalog", anyRole)
	catalog.GET("/time-slots", h.Catalog.TimeSlots)
	catalog.GET("/classrooms", h.Catalog.Classrooms)
	catalog.GET("/subjects", h.Catalog.Subjects)
	catalog.GET("/classes", h.Catalog.Classes)
	catalog.GET("/faculty", h.Catalog.Faculty)
	group.POST("/catalog/refresh", middleware.RBAC(admin), h.Catalog.Refresh)

	timetable := group.Group("/timetable")
	timetable.GET("/classes/:id", anyRole, h.Timetable.ClassTimetable)
	timetable.GET("/classes/:id/export", anyRole, h.Timetable.Export)
	timetable.GET("/faculty/:id", middleware.RBAC(admin, middleware.Self), h.Timetable.FacultyTimetable)
	timetable.GET("/students/:id", middleware.RBAC(admin, middleware.Self), h.Timetable.StudentTimetable)
	timetable.POST("/entries", middleware.RBAC(admin), h.Timetable.CreateEntry)
	timetable.PUT("/entries/:id", middleware.RBAC(admin), h.Timetable.UpdateEntry)
	timetable.DELETE("/entries/:id", middleware.RBAC(admin), h.Timetable.DeleteEntry)
	timetable.POST("/conflicts/check", middleware.RBAC(admin, faculty), h.Timetable.CheckConflicts)

	timetable.POST("/generate", middleware.RBAC(admin), h.Generator.Generate)
	timetable.POST("/generate/async", middleware.RBAC(admin), h.Generator.GenerateAsync)
	timetable.GET("/runs/:id", middleware.RBAC(admin), h.Generator.GetRun)
	timetable.POST("/runs/:id/save", middleware.RBAC(admin), h.Generator.Save)
}
