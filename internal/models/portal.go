package models

// Profile is the dashboard landing card for a student.
type Profile struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Program    string `json:"program" yaml:"program"`
	Major      string `json:"major" yaml:"major"`
	Advisor    string `json:"advisor" yaml:"advisor"`
	JoinDate   string `json:"join_date" yaml:"join_date"`
	Status     string `json:"status" yaml:"status"`
	Credits    int    `json:"credits" yaml:"credits"`
	CourseName string `json:"course_name,omitempty" yaml:"-"`
}

// HistoryCourse is one graded course in a past semester.
type HistoryCourse struct {
	Code    string `json:"code" yaml:"code"`
	Title   string `json:"title" yaml:"title"`
	Credits int    `json:"credits" yaml:"credits"`
	Grade   string `json:"grade" yaml:"grade"`
}

// Semester is a closed term on the transcript.
type Semester struct {
	Term             string          `json:"term" yaml:"term"`
	GPA              float64         `json:"gpa" yaml:"gpa"`
	QualityPoints    float64         `json:"quality_points" yaml:"quality_points"`
	CreditsAttempted int             `json:"credits_attempted" yaml:"credits_attempted"`
	CreditsEarned    int             `json:"credits_earned" yaml:"credits_earned"`
	Courses          []HistoryCourse `json:"courses" yaml:"courses"`
}

// AcademicHistory is the transcript with cumulative totals.
type AcademicHistory struct {
	Semesters             []Semester `json:"semesters"`
	TotalCreditsAttempted int        `json:"total_credits_attempted"`
	TotalCreditsEarned    int        `json:"total_credits_earned"`
	TotalQualityPoints    float64    `json:"total_quality_points"`
	CumulativeGPA         string     `json:"cumulative_gpa"`
}

// EnrollmentRecord is one course on the enrollment page.
type EnrollmentRecord struct {
	Code     string `json:"code" yaml:"code"`
	Title    string `json:"title" yaml:"title"`
	Semester string `json:"semester" yaml:"semester"`
	Credits  int    `json:"credits" yaml:"credits"`
	Status   string `json:"status" yaml:"status"`
	Grade    string `json:"grade,omitempty" yaml:"grade"`
}

// EnrollmentSummary is computed over every record, ignoring filters.
type EnrollmentSummary struct {
	TotalCredits int `json:"total_credits"`
	Completed    int `json:"completed"`
	InProgress   int `json:"in_progress"`
}

// Enrollment is the enrollment page.
type Enrollment struct {
	Summary   EnrollmentSummary  `json:"summary"`
	Semesters []string           `json:"semesters"`
	Records   []EnrollmentRecord `json:"records"`
}

// CatalogCourse is a course open for registration.
type CatalogCourse struct {
	Code          string   `json:"code" yaml:"code"`
	Title         string   `json:"title" yaml:"title"`
	Credits       int      `json:"credits" yaml:"credits"`
	Seats         int      `json:"seats" yaml:"seats"`
	Schedule      string   `json:"schedule" yaml:"schedule"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
}

// RegistrationCourse is a catalog entry annotated for the current student.
type RegistrationCourse struct {
	CatalogCourse
	MissingPrerequisites []string `json:"missing_prerequisites"`
	Full                 bool     `json:"full"`
	CanRegister          bool     `json:"can_register"`
}

// ScheduleRequest lists course codes in the order they were picked.
type ScheduleRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

// RejectedCourse explains why a code was left out of a schedule.
type RejectedCourse struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ScheduleResult is a draft schedule built from a ScheduleRequest.
type ScheduleResult struct {
	Accepted     []CatalogCourse  `json:"accepted"`
	Rejected     []RejectedCourse `json:"rejected"`
	TotalCredits int              `json:"total_credits"`
}

// PaymentSummary is the student account balance.
type PaymentSummary struct {
	TotalFees float64 `json:"total_fees" yaml:"total_fees"`
	Paid      float64 `json:"paid" yaml:"paid"`
	Balance   float64 `json:"balance" yaml:"balance"`
	DueDate   string  `json:"due_date" yaml:"due_date"`
}

// Transaction is one ledger line. Fees are negative.
type Transaction struct {
	ID          string  `json:"id" yaml:"id"`
	Date        string  `json:"date" yaml:"date"`
	Description string  `json:"description" yaml:"description"`
	Amount      float64 `json:"amount" yaml:"amount"`
	Type        string  `json:"type" yaml:"type"`
	Status      string  `json:"status" yaml:"status"`
}

// Payments is the payments page.
type Payments struct {
	Summary      PaymentSummary `json:"summary"`
	Transactions []Transaction  `json:"transactions"`
	Methods      []string       `json:"methods"`
}

// PaymentRequest is a simulated payment.
type PaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
}

// PaymentReceipt acknowledges a simulated payment.
type PaymentReceipt struct {
	Reference        string  `json:"reference"`
	Amount           float64 `json:"amount"`
	Method           string  `json:"method"`
	RemainingBalance float64 `json:"remaining_balance"`
	ProcessedAt      string  `json:"processed_at"`
}

// Clearance item states.
const (
	ClearanceCleared = "Cleared"
	ClearancePending = "Pending"
	ClearanceHold    = "Hold"
)

// ClearanceItem is one office on the graduation clearance checklist.
type ClearanceItem struct {
	ID         int    `json:"id" yaml:"id"`
	Department string `json:"department" yaml:"department"`
	Status     string `json:"status" yaml:"status"`
	Detail     string `json:"detail" yaml:"detail"`
	Contact    string `json:"contact" yaml:"contact"`
}

// Clearance is the checklist with derived flags.
type Clearance struct {
	Items    []ClearanceItem `json:"items"`
	Cleared  int             `json:"cleared"`
	Pending  int             `json:"pending"`
	Holds    int             `json:"holds"`
	HasHold  bool            `json:"has_hold"`
	Complete bool            `json:"complete"`
}

// DormAssignment is the housing placement card.
type DormAssignment struct {
	Dorm       string `json:"dorm" yaml:"dorm"`
	Block      string `json:"block" yaml:"block"`
	Room       string `json:"room" yaml:"room"`
	Bed        string `json:"bed" yaml:"bed"`
	RA         string `json:"resident_advisor" yaml:"resident_advisor"`
	MoveInDate string `json:"move_in_date" yaml:"move_in_date"`
	Status     string `json:"status" yaml:"status"`
}

// Dormitory is the housing page.
type Dormitory struct {
	Assignment DormAssignment `json:"assignment" yaml:"assignment"`
	Rules      []string       `json:"rules" yaml:"rules"`
}

// Event is a campus calendar entry.
type Event struct {
	Month    string `json:"month" yaml:"month"`
	Day      int    `json:"day" yaml:"day"`
	Category string `json:"category" yaml:"category"`
	Title    string `json:"title" yaml:"title"`
	Location string `json:"location" yaml:"location"`
}

// EventGroup is the events of one month.
type EventGroup struct {
	Month  string  `json:"month"`
	Events []Event `json:"events"`
}

// CurriculumYear is one year of the program outline.
type CurriculumYear struct {
	Year        int      `json:"year" yaml:"year"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Semesters   []string `json:"semesters" yaml:"semesters"`
}

// Course audit statuses.
const (
	AuditCompleted  = "Completed"
	AuditInProgress = "In Progress"
	AuditRequired   = "Required"
	AuditWaived     = "Waived"
)

// AuditCourse is one requirement line in the course audit.
type AuditCourse struct {
	Code    string `json:"code" yaml:"code"`
	Title   string `json:"title" yaml:"title"`
	Credits int    `json:"credits" yaml:"credits"`
	Status  string `json:"status" yaml:"status"`
}

// AuditSection groups requirement lines by program year.
type AuditSection struct {
	Key         string        `json:"key" yaml:"key"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Courses     []AuditCourse `json:"courses" yaml:"courses"`
}

// CourseAudit is the degree audit page.
type CourseAudit struct {
	Sections []AuditSection `json:"sections"`
	Counts   map[string]int `json:"counts"`
}

// AdminPortal is a tile on the admin hub.
type AdminPortal struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description" yaml:"description"`
}

// AddDropCourse is a course that can be added during the add/drop period.
type AddDropCourse struct {
	Code          string   `json:"code" yaml:"code"`
	Title         string   `json:"title" yaml:"title"`
	Credits       int      `json:"credits" yaml:"credits"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
	Enrolled      int      `json:"enrolled" yaml:"enrolled"`
	Capacity      int      `json:"capacity" yaml:"capacity"`
	Full          bool     `json:"full" yaml:"-"`
}

// ScheduleEntry is a course on the student's current schedule.
type ScheduleEntry struct {
	Code    string `json:"code" yaml:"code"`
	Title   string `json:"title" yaml:"title"`
	Credits int    `json:"credits" yaml:"credits"`
	Status  string `json:"status" yaml:"status"`
}

// AddDropOptions backs the add/drop form.
type AddDropOptions struct {
	Available []AddDropCourse `json:"available"`
	Schedule  []ScheduleEntry `json:"schedule"`
}

// WithdrawalTerm is the term a withdrawal applies to.
type WithdrawalTerm struct {
	Term     string `json:"term" yaml:"term"`
	Deadline string `json:"deadline" yaml:"deadline"`
}

// DegreeRequirement is a requirement that may be excepted.
type DegreeRequirement struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}
