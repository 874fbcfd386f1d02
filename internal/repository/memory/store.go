// Package memory implements the repository contracts on in-process maps. It
// backs STORAGE_DRIVER=memory and the router tests.
package memory

import (
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// Store holds every entity behind one lock so cross-entity operations, such
// as detaching students from a deleted course, stay atomic.
type Store struct {
	mu          sync.RWMutex
	students    map[string]models.Student
	users       map[string]models.User
	courses     map[string]models.Course
	requests    []models.PortalRequest
	exportJobs  map[string]models.ExportJob
	nextStudent int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		students:    map[string]models.Student{},
		users:       map[string]models.User{},
		courses:     map[string]models.Course{},
		exportJobs:  map[string]models.ExportJob{},
		nextStudent: models.FirstStudentID,
	}
}

// Students returns the student repository view.
func (s *Store) Students() *StudentRepository { return &StudentRepository{s: s} }

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Courses returns the course repository view.
func (s *Store) Courses() *CourseRepository { return &CourseRepository{s: s} }

// Requests returns the portal request repository view.
func (s *Store) Requests() *PortalRequestRepository { return &PortalRequestRepository{s: s} }

// ExportJobs returns the export job repository view.
func (s *Store) ExportJobs() *ExportJobRepository { return &ExportJobRepository{s: s} }

var errNotFound = sql.ErrNoRows

func page(total, pageNum, size int) (int, int) {
	pageNum, size = models.NormalizePage(pageNum, size)
	start := (pageNum - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func sortSlice[T any](items []T, desc bool, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
