package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

// PortalHandler serves the dashboard read models.
type PortalHandler struct {
	portal *service.PortalService
}

// NewPortalHandler constructs PortalHandler.
func NewPortalHandler(portal *service.PortalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

// Profile godoc
// @Summary Student profile
// @Description An empty id yields the guest profile
// @Tags Portal
// @Produce json
// @Param id query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /portal/profile [get]
func (h *PortalHandler) Profile(c *gin.Context) {
	profile, err := h.portal.Profile(c.Request.Context(), studentScope(c, c.Query("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// AcademicHistory godoc
// @Summary Academic history with cumulative GPA
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/academic-history [get]
func (h *PortalHandler) AcademicHistory(c *gin.Context) {
	response.OK(c, h.portal.AcademicHistory())
}

// Enrollment godoc
// @Summary Enrollment records
// @Tags Portal
// @Produce json
// @Param semester query string false "Semester, defaults to All Semesters"
// @Param search query string false "Course code or title"
// @Success 200 {object} response.Envelope
// @Router /portal/enrollment [get]
func (h *PortalHandler) Enrollment(c *gin.Context) {
	response.OK(c, h.portal.Enrollment(c.Query("semester"), c.Query("search")))
}

// RegistrationCourses godoc
// @Summary Registration catalog
// @Tags Portal
// @Produce json
// @Param search query string false "Course code, title or instructor"
// @Success 200 {object} response.Envelope
// @Router /portal/registration/courses [get]
func (h *PortalHandler) RegistrationCourses(c *gin.Context) {
	response.OK(c, h.portal.RegistrationCatalog(c.Query("search")))
}

// BuildSchedule godoc
// @Summary Draft a schedule
// @Tags Portal
// @Accept json
// @Produce json
// @Param payload body models.ScheduleRequest true "Course codes in pick order"
// @Success 200 {object} response.Envelope
// @Router /portal/registration/schedule [post]
func (h *PortalHandler) BuildSchedule(c *gin.Context) {
	var req models.ScheduleRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	result, err := h.portal.BuildSchedule(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Payments godoc
// @Summary Account summary and transactions
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/payments [get]
func (h *PortalHandler) Payments(c *gin.Context) {
	response.OK(c, h.portal.Payments())
}

// SubmitPayment godoc
// @Summary Simulate a payment
// @Tags Portal
// @Accept json
// @Produce json
// @Param payload body models.PaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /portal/payments [post]
func (h *PortalHandler) SubmitPayment(c *gin.Context) {
	var req models.PaymentRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	receipt, err := h.portal.SubmitPayment(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// Clearance godoc
// @Summary Clearance checklist
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/clearance [get]
func (h *PortalHandler) Clearance(c *gin.Context) {
	response.OK(c, h.portal.Clearance())
}

// Dormitory godoc
// @Summary Housing assignment and rules
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/dormitory [get]
func (h *PortalHandler) Dormitory(c *gin.Context) {
	response.OK(c, h.portal.Dormitory())
}

// Events godoc
// @Summary Campus events grouped by month
// @Tags Portal
// @Produce json
// @Param search query string false "Title, category or location"
// @Success 200 {object} response.Envelope
// @Router /portal/events [get]
func (h *PortalHandler) Events(c *gin.Context) {
	response.OK(c, h.portal.Events(c.Query("search")))
}

// Curriculum godoc
// @Summary Degree curriculum by year
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/curriculum [get]
func (h *PortalHandler) Curriculum(c *gin.Context) {
	response.OK(c, h.portal.Curriculum())
}

// CourseAudit godoc
// @Summary Degree audit
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/course-audit [get]
func (h *PortalHandler) CourseAudit(c *gin.Context) {
	response.OK(c, h.portal.CourseAudit())
}

// AdminHub godoc
// @Summary Admin portal directory
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/hub [get]
func (h *PortalHandler) AdminHub(c *gin.Context) {
	response.OK(c, h.portal.AdminHub())
}
