package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// RequestType names the student self-service forms.
type RequestType string

const (
	RequestAddDrop         RequestType = "ADD_DROP"
	RequestWithdrawal      RequestType = "WITHDRAWAL"
	RequestComplaint       RequestType = "COMPLAINT"
	RequestCourseException RequestType = "COURSE_EXCEPTION"
)

// RequestSubmitted is the only state a request reaches; processing happens
// outside the portal.
const RequestSubmitted = "SUBMITTED"

// Payload is a free-form JSONB document.
type Payload map[string]interface{}

// Value marshals the payload to JSON.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan decodes a JSON payload.
func (p *Payload) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// PortalRequest is a persisted form submission.
type PortalRequest struct {
	ID        string      `db:"id" json:"id" gorm:"primaryKey;type:uuid"`
	Reference string      `db:"reference" json:"reference" gorm:"size:16;uniqueIndex;not null"`
	StudentID *string     `db:"student_id" json:"student_id,omitempty" gorm:"size:16;index"`
	Type      RequestType `db:"type" json:"type" gorm:"size:24;not null"`
	Status    string      `db:"status" json:"status" gorm:"size:16;not null"`
	Payload   Payload     `db:"payload" json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// AddDropRequest asks to add or drop one course.
type AddDropRequest struct {
	StudentID  string `json:"student_id"`
	Action     string `json:"action" validate:"required,oneof=add drop"`
	CourseCode string `json:"course_code" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=1000"`
}

// WithdrawalRequest asks to withdraw from the current term.
type WithdrawalRequest struct {
	StudentID    string `json:"student_id"`
	Reason       string `json:"reason" validate:"required,max=2000"`
	Acknowledged bool   `json:"acknowledged"`
}

// ComplaintRequest files a complaint. Anonymous complaints drop the student id.
type ComplaintRequest struct {
	StudentID string `json:"student_id"`
	Type      string `json:"type" validate:"required,oneof=staff facility service harassment other"`
	Subject   string `json:"subject" validate:"required,max=100"`
	Details   string `json:"details" validate:"required,max=5000"`
	Anonymous bool   `json:"anonymous"`
}

// CourseExceptionRequest asks to substitute or waive a degree requirement.
type CourseExceptionRequest struct {
	StudentID      string `json:"student_id"`
	Requirement    string `json:"requirement" validate:"required"`
	ProposedCourse string `json:"proposed_course,omitempty" validate:"max=120"`
	Justification  string `json:"justification" validate:"required,max=5000"`
}

// Normalize trims the free-text fields of an add/drop request.
func (r *AddDropRequest) Normalize() {
	r.CourseCode = strings.TrimSpace(r.CourseCode)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *WithdrawalRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ComplaintRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Details = strings.TrimSpace(r.Details)
}

func (r *CourseExceptionRequest) Normalize() {
	r.Requirement = strings.TrimSpace(r.Requirement)
	r.ProposedCourse = strings.TrimSpace(r.ProposedCourse)
	r.Justification = strings.TrimSpace(r.Justification)
}
