package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/fixtures"
)

// AllSemesters is the enrollment filter value that disables the semester filter.
const AllSemesters = "All Semesters"

const profileCacheKey = "students:profile:%s"

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// PortalService serves the dashboard read models. Everything except the
// profile is derived from the embedded portal fixtures.
type PortalService struct {
	content   *fixtures.Portal
	students  studentReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPortalService constructs the portal service.
func NewPortalService(content *fixtures.Portal, students studentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PortalService {
	if content == nil {
		content = fixtures.MustLoadPortal()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{content: content, students: students, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Profile maps a student to the dashboard card. An empty id yields the guest
// profile.
func (s *PortalService) Profile(ctx context.Context, id string) (*models.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		guest := s.content.GuestProfile
		return &guest, nil
	}

	key := fmt.Sprintf(profileCacheKey, id)
	var cached models.Profile
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	profile := &models.Profile{
		ID:       student.ID,
		Name:     student.Name,
		Program:  student.Department,
		Major:    student.Department,
		Advisor:  s.content.Advisor,
		JoinDate: student.CreatedAt.Format("2006-01-02"),
		Status:   string(student.Status),
		Credits:  student.Credits,
	}
	if student.Email != nil {
		profile.Email = *student.Email
	}
	if student.CourseName != nil {
		profile.CourseName = *student.CourseName
	}
	s.cache.Set(ctx, key, profile, 0)
	return profile, nil
}

// AcademicHistory returns the transcript with cumulative totals.
func (s *PortalService) AcademicHistory() models.AcademicHistory {
	history := models.AcademicHistory{Semesters: append([]models.Semester(nil), s.content.History...)}
	for _, sem := range history.Semesters {
		history.TotalCreditsAttempted += sem.CreditsAttempted
		history.TotalCreditsEarned += sem.CreditsEarned
		history.TotalQualityPoints += sem.QualityPoints
	}
	history.TotalQualityPoints = math.Round(history.TotalQualityPoints*100) / 100
	history.CumulativeGPA = cumulativeGPA(history.TotalQualityPoints, history.TotalCreditsAttempted)
	return history
}

func cumulativeGPA(points float64, credits int) string {
	if credits == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", points/float64(credits))
}

// Enrollment returns the enrollment page. The summary always covers every
// record; semester and search only narrow the record list.
func (s *PortalService) Enrollment(semester, search string) models.Enrollment {
	out := models.Enrollment{Semesters: []string{AllSemesters}, Records: []models.EnrollmentRecord{}}
	seen := map[string]bool{}
	needle := strings.ToLower(strings.TrimSpace(search))
	semester = strings.TrimSpace(semester)

	for _, rec := range s.content.Enrollment {
		out.Summary.TotalCredits += rec.Credits
		switch rec.Status {
		case "Completed":
			out.Summary.Completed++
		case "In Progress":
			out.Summary.InProgress++
		}
		if !seen[rec.Semester] {
			seen[rec.Semester] = true
			out.Semesters = append(out.Semesters, rec.Semester)
		}

		if semester != "" && semester != AllSemesters && rec.Semester != semester {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(rec.Code), needle) && !strings.Contains(strings.ToLower(rec.Title), needle) {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// RegistrationCatalog annotates the catalog with prerequisite and capacity
// checks against the completed course list.
func (s *PortalService) RegistrationCatalog(search string) []models.RegistrationCourse {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.RegistrationCourse, 0, len(s.content.Catalog))
	for _, course := range s.content.Catalog {
		if needle != "" && !strings.Contains(strings.ToLower(course.Code), needle) && !strings.Contains(strings.ToLower(course.Title), needle) {
			continue
		}
		out = append(out, s.annotate(course))
	}
	return out
}

func (s *PortalService) annotate(course models.CatalogCourse) models.RegistrationCourse {
	missing := s.missingPrerequisites(course.Prerequisites)
	full := course.Seats <= 0
	return models.RegistrationCourse{
		CatalogCourse:        course,
		MissingPrerequisites: missing,
		Full:                 full,
		CanRegister:          !full && len(missing) == 0,
	}
}

func (s *PortalService) missingPrerequisites(prereqs []string) []string {
	completed := make(map[string]bool, len(s.content.CompletedCourses))
	for _, code := range s.content.CompletedCourses {
		completed[code] = true
	}
	missing := []string{}
	for _, p := range prereqs {
		if !completed[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// BuildSchedule adds the requested courses in order and explains every
// rejection.
func (s *PortalService) BuildSchedule(req models.ScheduleRequest) (*models.ScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "at least one course code is required")
	}
	catalog := make(map[string]models.CatalogCourse, len(s.content.Catalog))
	for _, c := range s.content.Catalog {
		catalog[strings.ToUpper(c.Code)] = c
	}

	result := &models.ScheduleResult{Accepted: []models.CatalogCourse{}, Rejected: []models.RejectedCourse{}}
	added := map[string]bool{}
	for _, raw := range req.Codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		course, ok := catalog[code]
		switch {
		case !ok:
			result.Rejected = append(result.Rejected, models.RejectedCourse{Code: raw, Reason: "course not offered"})
			continue
		case added[code]:
			result.Rejected = append(result.Rejected, models.RejectedCourse{Code: course.Code, Reason: "course already in schedule"})
			continue
		}
		annotated := s.annotate(course)
		if len(annotated.MissingPrerequisites) > 0 {
			result.Rejected = append(result.Rejected, models.RejectedCourse{
				Code:   course.Code,
				Reason: "missing prerequisites: " + strings.Join(annotated.MissingPrerequisites, ", "),
			})
			continue
		}
		if annotated.Full {
			result.Rejected = append(result.Rejected, models.RejectedCourse{Code: course.Code, Reason: "course is full"})
			continue
		}
		added[code] = true
		result.Accepted = append(result.Accepted, course)
		result.TotalCredits += course.Credits
	}
	return result, nil
}

// Payments returns the account summary and ledger.
func (s *PortalService) Payments() models.Payments {
	p := s.content.Payments
	return models.Payments{
		Summary:      p.Summary,
		Transactions: append([]models.Transaction(nil), p.Transactions...),
		Methods:      append([]string(nil), p.Methods...),
	}
}

// SubmitPayment validates a simulated payment against the outstanding
// balance and returns a receipt. Nothing is stored.
func (s *PortalService) SubmitPayment(req models.PaymentRequest) (*models.PaymentReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "amount must be greater than zero and a method is required")
	}
	if !containsString(s.content.Payments.Methods, req.Method) {
		return nil, appErrors.Validation(nil, "unsupported payment method")
	}
	balance := s.content.Payments.Summary.Balance
	if req.Amount > balance {
		return nil, appErrors.Validation(nil, fmt.Sprintf("amount exceeds outstanding balance of %.2f", balance))
	}
	return &models.PaymentReceipt{
		Reference:        "PAY-" + shortReference(),
		Amount:           req.Amount,
		Method:           req.Method,
		RemainingBalance: math.Round((balance-req.Amount)*100) / 100,
		ProcessedAt:      s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Clearance returns the checklist with its derived flags.
func (s *PortalService) Clearance() models.Clearance {
	out := models.Clearance{Items: append([]models.ClearanceItem(nil), s.content.Clearance...)}
	for _, item := range out.Items {
		switch item.Status {
		case models.ClearanceCleared:
			out.Cleared++
		case models.ClearanceHold:
			out.Holds++
		default:
			out.Pending++
		}
	}
	out.HasHold = out.Holds > 0
	out.Complete = len(out.Items) > 0 && out.Cleared == len(out.Items)
	return out
}

// Dormitory returns the housing assignment and rules.
func (s *PortalService) Dormitory() models.Dormitory {
	return s.content.Dormitory
}

// Events filters the calendar and groups it by month in calendar order.
func (s *PortalService) Events(search string) []models.EventGroup {
	needle := strings.ToLower(strings.TrimSpace(search))
	groups := []models.EventGroup{}
	index := map[string]int{}
	for _, ev := range s.content.Events {
		if needle != "" &&
			!strings.Contains(strings.ToLower(ev.Title), needle) &&
			!strings.Contains(strings.ToLower(ev.Category), needle) &&
			!strings.Contains(strings.ToLower(ev.Location), needle) {
			continue
		}
		i, ok := index[ev.Month]
		if !ok {
			i = len(groups)
			index[ev.Month] = i
			groups = append(groups, models.EventGroup{Month: ev.Month})
		}
		groups[i].Events = append(groups[i].Events, ev)
	}
	return groups
}

// Curriculum returns the program outline.
func (s *PortalService) Curriculum() []models.CurriculumYear {
	return append([]models.CurriculumYear(nil), s.content.Curriculum...)
}

// CourseAudit returns the requirement sections with per-status counts.
func (s *PortalService) CourseAudit() models.CourseAudit {
	audit := models.CourseAudit{
		Sections: append([]models.AuditSection(nil), s.content.CourseAudit...),
		Counts: map[string]int{
			models.AuditCompleted:  0,
			models.AuditInProgress: 0,
			models.AuditRequired:   0,
			models.AuditWaived:     0,
		},
	}
	for _, section := range audit.Sections {
		for _, c := range section.Courses {
			audit.Counts[c.Status]++
		}
	}
	return audit
}

// AdminHub lists the admin portals.
func (s *PortalService) AdminHub() []models.AdminPortal {
	return append([]models.AdminPortal(nil), s.content.AdminPortals...)
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func shortReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
