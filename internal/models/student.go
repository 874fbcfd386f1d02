package models

import (
	"strings"
	"time"
)

// StudentStatus is the registration state of a student.
type StudentStatus string

const (
	StudentRegistered StudentStatus = "Registered"
	StudentPending    StudentStatus = "Pending"
	StudentOnHold     StudentStatus = "On Hold"
)

// FirstStudentID seeds the numeric student id sequence.
const FirstStudentID = 1001

// Student is a learner record. IDs are numeric strings allocated from a
// sequence so they double as login usernames.
type Student struct {
	ID           string        `db:"id" json:"id" gorm:"primaryKey;size:16"`
	Name         string        `db:"name" json:"name" gorm:"size:120;not null"`
	Email        *string       `db:"email" json:"email,omitempty" gorm:"size:255"`
	Department   string        `db:"department" json:"department" gorm:"size:120;not null"`
	Status       StudentStatus `db:"status" json:"status" gorm:"size:16;not null;default:Pending"`
	Credits      int           `db:"credits" json:"credits" gorm:"not null;default:0"`
	PasswordHash string        `db:"password_hash" json:"-" gorm:"not null"`
	CourseID     *string       `db:"course_id" json:"course_id,omitempty" gorm:"type:uuid;index"`
	CourseName   *string       `db:"course_name" json:"course_name,omitempty" gorm:"-"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    *StudentStatus
	CourseID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentRequest is the payload for POST and PUT /students. ID is only
// checked against the path on update.
type StudentRequest struct {
	ID         string        `json:"id,omitempty"`
	Name       string        `json:"name" validate:"required,max=120"`
	Email      *string       `json:"email,omitempty" validate:"omitempty,email"`
	Department string        `json:"department" validate:"required,max=120"`
	Status     StudentStatus `json:"status" validate:"omitempty,oneof=Registered Pending 'On Hold'"`
	Credits    int           `json:"credits" validate:"gte=0,lte=30"`
	Password   string        `json:"password,omitempty" validate:"omitempty,min=4"`
	CourseID   *string       `json:"course_id,omitempty"`
}

// Normalize trims text fields so whitespace-only values fail validation.
func (r *StudentRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Department = strings.TrimSpace(r.Department)
}

// CreatedStudent wraps a new student with the generated password, which is
// only ever returned once.
type CreatedStudent struct {
	*Student
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// StudentStats aggregates the roster by status.
type StudentStats struct {
	Total        int                   `db:"total" json:"total"`
	ByStatus     map[StudentStatus]int `json:"by_status"`
	TotalCredits int                   `db:"total_credits" json:"total_credits"`
}
