package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportType enumerates the documents the export worker can build.
type ExportType string

const (
	ExportRoster     ExportType = "roster"
	ExportTranscript ExportType = "transcript"
)

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportQueued     ExportStatus = "QUEUED"
	ExportProcessing ExportStatus = "PROCESSING"
	ExportFinished   ExportStatus = "FINISHED"
	ExportFailed     ExportStatus = "FAILED"
)

// ExportJob is the persisted state of one asynchronous export.
type ExportJob struct {
	ID           string       `db:"id" json:"id" gorm:"primaryKey;type:uuid"`
	Type         ExportType   `db:"type" json:"type" gorm:"size:16;not null"`
	Params       ExportParams `db:"params" json:"params" gorm:"type:jsonb;not null"`
	Status       ExportStatus `db:"status" json:"status" gorm:"size:16;not null;index"`
	Progress     int          `db:"progress" json:"progress"`
	Attempts     int          `db:"attempts" json:"attempts"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
}

// ExportParams stores the request options as JSONB.
type ExportParams struct {
	Format    string  `json:"format"`
	CourseID  *string `json:"course_id,omitempty"`
	StudentID *string `json:"student_id,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ExportParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportParams) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// ExportRequest is the payload for POST /exports.
type ExportRequest struct {
	Type      ExportType `json:"type" validate:"required,oneof=roster transcript"`
	Format    string     `json:"format" validate:"required,oneof=csv pdf"`
	CourseID  *string    `json:"course_id,omitempty"`
	StudentID *string    `json:"student_id,omitempty" validate:"required_if=Type transcript"`
}

// Normalize trims the subject ids and drops blank ones, so a transcript
// with a whitespace student_id fails required_if.
func (r *ExportRequest) Normalize() {
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	r.CourseID = trimmedOrNil(r.CourseID)
	r.StudentID = trimmedOrNil(r.StudentID)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ExportJobUpdate carries the fields a status transition changes; nil
// fields are left untouched.
type ExportJobUpdate struct {
	Status       *ExportStatus
	Progress     *int
	Attempts     *int
	ResultURL    *string
	FinishedAt   *time.Time
	ErrorMessage *string
}

func scanJSON(value interface{}, dst interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %T", value, dst)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %T: %w", dst, err)
	}
	return nil
}
