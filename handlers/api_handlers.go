package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"school-registry-go/db"
	"school-registry-go/models"
	"school-registry-go/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Service *service.SchoolService
	log     *slog.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(svc *service.SchoolService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{Service: svc, log: logger.With("component", "api")}
}

// parseIDParam reads a uint32 path parameter, answering 400 when it is not one
func parseIDParam(c *gin.Context, name string) (uint32, bool) {
	raw := c.Param(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": " + raw})
		return 0, false
	}
	return uint32(n), true
}

// persistFailed answers 500 for a mutation that was applied in memory but not stored
func (h *APIHandler) persistFailed(c *gin.Context, op string, err error) {
	h.log.Error(op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist change"})
}

// --- School ---

// GetSchool handles GET /api/school
func (h *APIHandler) GetSchool(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Snapshot())
}

// --- Teacher Handlers ---

type createTeacherRequest struct {
	Name      string           `json:"name" binding:"required"`
	SubjectID models.SubjectID `json:"subject_id"`
}

// GetAllTeachers handles GET /api/teachers
func (h *APIHandler) GetAllTeachers(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Teachers())
}

// GetTeacherByID handles GET /api/teachers/:id
func (h *APIHandler) GetTeacherByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	teacher, found := h.Service.Teacher(models.TeacherID(id))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Teacher not found"})
		return
	}
	c.JSON(http.StatusOK, teacher)
}

// AddTeacher handles POST /api/teachers
func (h *APIHandler) AddTeacher(c *gin.Context) {
	var req createTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	teacher, err := h.Service.CreateTeacher(c.Request.Context(), req.Name, req.SubjectID)
	if err != nil {
		h.persistFailed(c, "add teacher", err)
		return
	}
	c.JSON(http.StatusCreated, teacher)
}

// DeleteTeacher handles DELETE /api/teachers/:id
func (h *APIHandler) DeleteTeacher(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.Service.RemoveTeacher(c.Request.Context(), models.TeacherID(id))
	if err != nil {
		h.persistFailed(c, "remove teacher", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Teacher not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Class Handlers ---

type createClassRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	SubjectIDs  []models.SubjectID `json:"subject_ids"`
}

type classSubjectsRequest struct {
	SubjectIDs []models.SubjectID `json:"subject_ids" binding:"required"`
}

// GetAllClasses handles GET /api/classes
func (h *APIHandler) GetAllClasses(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Classes())
}

// GetClassByID handles GET /api/classes/:id
func (h *APIHandler) GetClassByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	class, found := h.Service.Class(models.ClassID(id))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}
	c.JSON(http.StatusOK, class)
}

// AddClass handles POST /api/classes
func (h *APIHandler) AddClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	class, err := h.Service.CreateClass(c.Request.Context(), req.Name, req.Description, req.SubjectIDs...)
	if err != nil {
		h.persistFailed(c, "add class", err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

// DeleteClass handles DELETE /api/classes/:id. Schedules of the class are kept.
func (h *APIHandler) DeleteClass(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.Service.RemoveClass(c.Request.Context(), models.ClassID(id))
	if err != nil {
		h.persistFailed(c, "remove class", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// AddClassSubjects handles POST /api/classes/:id/subjects
func (h *APIHandler) AddClassSubjects(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req classSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	class, err := h.Service.AddClassSubjects(c.Request.Context(), models.ClassID(id), req.SubjectIDs...)
	h.respondClassEdit(c, class, err)
}

// RemoveClassSubject handles DELETE /api/classes/:id/subjects/:subjectId
func (h *APIHandler) RemoveClassSubject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	subjectID, ok := parseIDParam(c, "subjectId")
	if !ok {
		return
	}
	class, err := h.Service.RemoveClassSubject(c.Request.Context(), models.ClassID(id), models.SubjectID(subjectID))
	h.respondClassEdit(c, class, err)
}

func (h *APIHandler) respondClassEdit(c *gin.Context, class *models.Class, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
	case err != nil:
		h.persistFailed(c, "edit class subjects", err)
	default:
		c.JSON(http.StatusOK, class)
	}
}

// --- Schedule Handlers ---

type createScheduleRequest struct {
	Name    string         `json:"name" binding:"required"`
	ClassID models.ClassID `json:"class_id"`
}

// GetAllSchedules handles GET /api/schedules
func (h *APIHandler) GetAllSchedules(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Schedules())
}

// GetScheduleByID handles GET /api/schedules/:id
func (h *APIHandler) GetScheduleByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	schedule, found := h.Service.Schedule(models.ScheduleID(id))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// AddSchedule handles POST /api/schedules
func (h *APIHandler) AddSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	schedule, err := h.Service.CreateSchedule(c.Request.Context(), req.Name, req.ClassID)
	if err != nil {
		h.persistFailed(c, "add schedule", err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// DeleteSchedule handles DELETE /api/schedules/:id
func (h *APIHandler) DeleteSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.Service.RemoveSchedule(c.Request.Context(), models.ScheduleID(id))
	if err != nil {
		h.persistFailed(c, "remove schedule", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Subject Handlers ---

type createSubjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetAllSubjects handles GET /api/subjects
func (h *APIHandler) GetAllSubjects(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Subjects())
}

// GetSubjectByID handles GET /api/subjects/:id
func (h *APIHandler) GetSubjectByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	subject, found := h.Service.Subject(models.SubjectID(id))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}
	c.JSON(http.StatusOK, subject)
}

// AddSubject handles POST /api/subjects
func (h *APIHandler) AddSubject(c *gin.Context) {
	var req createSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	subject, err := h.Service.CreateSubject(c.Request.Context(), req.Name)
	if err != nil {
		h.persistFailed(c, "add subject", err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

// DeleteSubject handles DELETE /api/subjects/:id. Teachers and classes keep their references.
func (h *APIHandler) DeleteSubject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.Service.RemoveSubject(c.Request.Context(), models.SubjectID(id))
	if err != nil {
		h.persistFailed(c, "remove subject", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Import / Export ---

// ImportWorkbook handles POST /api/import (multipart form field "file")
func (h *APIHandler) ImportWorkbook(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.log.Info("received workbook upload", "filename", header.Filename, "size", header.Size)

	var report db.ImportReport
	err = h.Service.Batch(c.Request.Context(), func(school *models.School) error {
		var ierr error
		report, ierr = db.ImportWorkbook(file, school, h.log)
		return ierr
	})
	if errors.Is(err, service.ErrPersist) {
		h.persistFailed(c, "import workbook", err)
		return
	}
	if err != nil {
		h.log.Warn("import workbook", "filename", header.Filename, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import workbook: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Import successful",
		"report":  report,
	})
}

// ExportWorkbook handles GET /api/export
func (h *APIHandler) ExportWorkbook(c *gin.Context) {
	var buf bytes.Buffer
	if err := db.ExportWorkbook(&buf, h.Service.Snapshot()); err != nil {
		h.log.Error("export workbook", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export workbook"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="school.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
