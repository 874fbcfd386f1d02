// Package fixtures holds the embedded sample data behind the portal pages and
// the initial roster.
package fixtures

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/student-portal-api/internal/models"
)

//go:embed portal.yaml
var portalYAML []byte

//go:embed seed.yaml
var seedYAML []byte

// Portal is the static content of the dashboard pages.
type Portal struct {
	Advisor            string                     `yaml:"advisor"`
	GuestProfile       models.Profile             `yaml:"guest_profile"`
	History            []models.Semester          `yaml:"history"`
	Enrollment         []models.EnrollmentRecord  `yaml:"enrollment"`
	Catalog            []models.CatalogCourse     `yaml:"catalog"`
	CompletedCourses   []string                   `yaml:"completed_courses"`
	AddDrop            AddDrop                    `yaml:"add_drop"`
	Payments           PaymentsData               `yaml:"payments"`
	Clearance          []models.ClearanceItem     `yaml:"clearance"`
	Dormitory          models.Dormitory           `yaml:"dormitory"`
	Events             []models.Event             `yaml:"events"`
	Curriculum         []models.CurriculumYear    `yaml:"curriculum"`
	CourseAudit        []models.AuditSection      `yaml:"course_audit"`
	AdminPortals       []models.AdminPortal       `yaml:"admin_portals"`
	ComplaintTypes     []string                   `yaml:"complaint_types"`
	DegreeRequirements []models.DegreeRequirement `yaml:"degree_requirements"`
	Withdrawal         models.WithdrawalTerm      `yaml:"withdrawal"`
}

// AddDrop is the add/drop period offering.
type AddDrop struct {
	Available []models.AddDropCourse `yaml:"available"`
	Schedule  []models.ScheduleEntry `yaml:"schedule"`
}

// PaymentsData is the student account.
type PaymentsData struct {
	Summary      models.PaymentSummary `yaml:"summary"`
	Transactions []models.Transaction  `yaml:"transactions"`
	Methods      []string              `yaml:"methods"`
}

// Seed is the initial content of the stores.
type Seed struct {
	Admins   []SeedAdmin   `yaml:"admins"`
	Courses  []string      `yaml:"courses"`
	Students []SeedStudent `yaml:"students"`
}

// SeedAdmin is an admin account with a plaintext password to be hashed.
type SeedAdmin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// SeedStudent is a student with a plaintext password and an optional course
// referenced by name.
type SeedStudent struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Department string `yaml:"department"`
	Status     string `yaml:"status"`
	Credits    int    `yaml:"credits"`
	Password   string `yaml:"password"`
	Course     string `yaml:"course"`
}

// LoadPortal decodes the embedded portal content.
func LoadPortal() (*Portal, error) {
	var p Portal
	if err := yaml.Unmarshal(portalYAML, &p); err != nil {
		return nil, fmt.Errorf("decode portal fixtures: %w", err)
	}
	return &p, nil
}

// LoadSeed decodes the embedded seed roster.
func LoadSeed() (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(seedYAML, &s); err != nil {
		return nil, fmt.Errorf("decode seed fixtures: %w", err)
	}
	return &s, nil
}

// MustLoadPortal is LoadPortal for tests and wiring where the embedded file
// is known to be valid.
func MustLoadPortal() *Portal {
	p, err := LoadPortal()
	if err != nil {
		panic(err)
	}
	return p
}
