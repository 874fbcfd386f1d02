package models

import (
	"strings"
	"time"
)

// Course groups students. Deleting a course detaches its students.
type Course struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"size:160;not null"`
	Students  []Student `json:"students" gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseRequest is the payload for POST and PUT /courses.
type CourseRequest struct {
	Name string `json:"name" validate:"required,max=160"`
}

// Normalize trims the course name.
func (r *CourseRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}
