package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

// RequestHandler exposes the student self-service forms. A signed-in
// student always files under their own id.
type RequestHandler struct {
	requests *service.RequestService
}

// NewRequestHandler constructs RequestHandler.
func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// AddDropOptions godoc
// @Summary Add/drop courses and current schedule
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/requests/add-drop/options [get]
func (h *RequestHandler) AddDropOptions(c *gin.Context) {
	response.OK(c, h.requests.AddDropOptions())
}

// SubmitAddDrop godoc
// @Summary Request to add or drop a course
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body models.AddDropRequest true "Add/drop request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /portal/requests/add-drop [post]
func (h *RequestHandler) SubmitAddDrop(c *gin.Context) {
	var req models.AddDropRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	req.StudentID = studentScope(c, req.StudentID)
	h.respond(c)(h.requests.SubmitAddDrop(c.Request.Context(), req))
}

// WithdrawalTerm godoc
// @Summary Current term and withdrawal deadline
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/requests/withdrawal/term [get]
func (h *RequestHandler) WithdrawalTerm(c *gin.Context) {
	response.OK(c, h.requests.WithdrawalTerm())
}

// SubmitWithdrawal godoc
// @Summary Withdraw from the current term
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body models.WithdrawalRequest true "Withdrawal request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /portal/requests/withdrawal [post]
func (h *RequestHandler) SubmitWithdrawal(c *gin.Context) {
	var req models.WithdrawalRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	req.StudentID = studentScope(c, req.StudentID)
	h.respond(c)(h.requests.SubmitWithdrawal(c.Request.Context(), req))
}

// SubmitComplaint godoc
// @Summary File a complaint
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body models.ComplaintRequest true "Complaint"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /portal/requests/complaint [post]
func (h *RequestHandler) SubmitComplaint(c *gin.Context) {
	var req models.ComplaintRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	req.StudentID = studentScope(c, req.StudentID)
	h.respond(c)(h.requests.SubmitComplaint(c.Request.Context(), req))
}

// DegreeRequirements godoc
// @Summary Requirements a course exception may target
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/requests/course-exception/requirements [get]
func (h *RequestHandler) DegreeRequirements(c *gin.Context) {
	response.OK(c, h.requests.DegreeRequirements())
}

// SubmitCourseException godoc
// @Summary Request a course substitution or waiver
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body models.CourseExceptionRequest true "Course exception"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /portal/requests/course-exception [post]
func (h *RequestHandler) SubmitCourseException(c *gin.Context) {
	var req models.CourseExceptionRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	req.StudentID = studentScope(c, req.StudentID)
	h.respond(c)(h.requests.SubmitCourseException(c.Request.Context(), req))
}

// List godoc
// @Summary Submitted requests, newest first
// @Tags Requests
// @Produce json
// @Param student_id query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /portal/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	requests, err := h.requests.ListByStudent(c.Request.Context(), studentScope(c, c.Query("student_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, requests)
}

func (h *RequestHandler) respond(c *gin.Context) func(*models.PortalRequest, error) {
	return func(req *models.PortalRequest, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, req)
	}
}
