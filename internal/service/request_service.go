package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/fixtures"
)

const (
	actionAdd  = "add"
	actionDrop = "drop"

	scheduleRegistered = "Registered"
)

var referencePrefixes = map[models.RequestType]string{
	models.RequestAddDrop:         "AD",
	models.RequestWithdrawal:      "WD",
	models.RequestComplaint:       "CP",
	models.RequestCourseException: "CE",
}

type portalRequestRepository interface {
	Create(ctx context.Context, req *models.PortalRequest) error
	ListByStudent(ctx context.Context, studentID string) ([]models.PortalRequest, error)
}

// RequestService validates and records student self-service forms.
type RequestService struct {
	repo      portalRequestRepository
	content   *fixtures.Portal
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRequestService constructs the request service.
func NewRequestService(repo portalRequestRepository, content *fixtures.Portal, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if content == nil {
		content = fixtures.MustLoadPortal()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{repo: repo, content: content, validator: validate, logger: logger, now: time.Now}
}

// AddDropOptions returns the courses open for adding and the current schedule.
func (s *RequestService) AddDropOptions() models.AddDropOptions {
	opts := models.AddDropOptions{
		Available: make([]models.AddDropCourse, 0, len(s.content.AddDrop.Available)),
		Schedule:  append([]models.ScheduleEntry(nil), s.content.AddDrop.Schedule...),
	}
	for _, c := range s.content.AddDrop.Available {
		c.Full = c.Enrolled >= c.Capacity
		opts.Available = append(opts.Available, c)
	}
	return opts
}

// SubmitAddDrop records an add or drop request. Adding a full course needs a
// course exception instead.
func (s *RequestService) SubmitAddDrop(ctx context.Context, req models.AddDropRequest) (*models.PortalRequest, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "action, course code and reason are required")
	}
	code := strings.ToUpper(strings.TrimSpace(req.CourseCode))
	payload := models.Payload{"action": req.Action, "course_code": code, "reason": strings.TrimSpace(req.Reason)}

	switch req.Action {
	case actionAdd:
		course, ok := s.findAvailable(code)
		if !ok {
			return nil, appErrors.Validation(nil, "course is not offered during add/drop")
		}
		if course.Full {
			return nil, appErrors.Validation(nil, "course is full - exception required")
		}
		payload["course_title"] = course.Title
		payload["credits"] = course.Credits
	case actionDrop:
		entry, ok := s.findScheduled(code)
		if !ok || entry.Status != scheduleRegistered {
			return nil, appErrors.Validation(nil, "course is not on the registered schedule")
		}
		payload["course_title"] = entry.Title
		payload["credits"] = entry.Credits
	}
	return s.record(ctx, models.RequestAddDrop, req.StudentID, payload)
}

func (s *RequestService) findAvailable(code string) (models.AddDropCourse, bool) {
	for _, c := range s.AddDropOptions().Available {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return models.AddDropCourse{}, false
}

func (s *RequestService) findScheduled(code string) (models.ScheduleEntry, bool) {
	for _, e := range s.content.AddDrop.Schedule {
		if strings.EqualFold(e.Code, code) {
			return e, true
		}
	}
	return models.ScheduleEntry{}, false
}

// WithdrawalTerm returns the term a withdrawal applies to and its deadline.
func (s *RequestService) WithdrawalTerm() models.WithdrawalTerm {
	return s.content.Withdrawal
}

// SubmitWithdrawal records a term withdrawal. The deadline day itself is
// still accepted.
func (s *RequestService) SubmitWithdrawal(ctx context.Context, req models.WithdrawalRequest) (*models.PortalRequest, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "a reason is required")
	}
	if !req.Acknowledged {
		return nil, appErrors.Validation(nil, "the withdrawal policy must be acknowledged")
	}
	term := s.content.Withdrawal
	deadline, err := time.Parse("2006-01-02", term.Deadline)
	if err != nil {
		return nil, appErrors.Internal(err, "invalid withdrawal deadline")
	}
	if s.now().UTC().After(deadline.Add(24 * time.Hour)) {
		return nil, appErrors.Validation(nil, "the withdrawal deadline for "+term.Term+" has passed")
	}
	payload := models.Payload{"term": term.Term, "reason": strings.TrimSpace(req.Reason), "acknowledged": true}
	return s.record(ctx, models.RequestWithdrawal, req.StudentID, payload)
}

// SubmitComplaint records a complaint. Anonymous complaints are stored
// without the student id.
func (s *RequestService) SubmitComplaint(ctx context.Context, req models.ComplaintRequest) (*models.PortalRequest, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "type, subject (max 100 characters) and details are required")
	}
	studentID := req.StudentID
	if req.Anonymous {
		studentID = ""
	}
	payload := models.Payload{
		"complaint_type": req.Type,
		"subject":        strings.TrimSpace(req.Subject),
		"details":        strings.TrimSpace(req.Details),
		"anonymous":      req.Anonymous,
	}
	return s.record(ctx, models.RequestComplaint, studentID, payload)
}

// DegreeRequirements lists the requirements a course exception may target.
func (s *RequestService) DegreeRequirements() []models.DegreeRequirement {
	return append([]models.DegreeRequirement(nil), s.content.DegreeRequirements...)
}

// SubmitCourseException records a request to substitute or waive a degree
// requirement.
func (s *RequestService) SubmitCourseException(ctx context.Context, req models.CourseExceptionRequest) (*models.PortalRequest, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "requirement and justification are required")
	}
	var requirement *models.DegreeRequirement
	for i := range s.content.DegreeRequirements {
		if s.content.DegreeRequirements[i].ID == req.Requirement {
			requirement = &s.content.DegreeRequirements[i]
			break
		}
	}
	if requirement == nil {
		return nil, appErrors.Validation(nil, "unknown degree requirement")
	}
	payload := models.Payload{
		"requirement":       requirement.ID,
		"requirement_label": requirement.Label,
		"justification":     strings.TrimSpace(req.Justification),
	}
	if proposed := strings.TrimSpace(req.ProposedCourse); proposed != "" {
		payload["proposed_course"] = proposed
	}
	return s.record(ctx, models.RequestCourseException, req.StudentID, payload)
}

// ListByStudent returns a student's submissions, newest first.
func (s *RequestService) ListByStudent(ctx context.Context, studentID string) ([]models.PortalRequest, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Validation(nil, "student_id is required")
	}
	requests, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	return requests, nil
}

func (s *RequestService) record(ctx context.Context, kind models.RequestType, studentID string, payload models.Payload) (*models.PortalRequest, error) {
	req := &models.PortalRequest{
		Reference: referencePrefixes[kind] + "-" + shortReference(),
		Type:      kind,
		Status:    models.RequestSubmitted,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	if id := strings.TrimSpace(studentID); id != "" {
		req.StudentID = &id
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, appErrors.Internal(err, "failed to record request")
	}
	s.logger.Info("portal request submitted", zap.String("type", string(kind)), zap.String("reference", req.Reference))
	return req, nil
}
