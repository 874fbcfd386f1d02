package memory

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// StudentRepository is the in-memory student store.
type StudentRepository struct {
	s *Store
}

func (r *StudentRepository) withCourse(st models.Student) models.Student {
	st.CourseName = nil
	if st.CourseID != nil {
		if c, ok := r.s.courses[*st.CourseID]; ok {
			name := c.Name
			st.CourseName = &name
		}
	}
	return st
}

func studentLess(field string) func(a, b models.Student) bool {
	switch field {
	case "name":
		return func(a, b models.Student) bool { return a.Name < b.Name }
	case "department":
		return func(a, b models.Student) bool { return a.Department < b.Department }
	case "credits":
		return func(a, b models.Student) bool { return a.Credits < b.Credits }
	case "created_at":
		return func(a, b models.Student) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return func(a, b models.Student) bool { return numericLess(a.ID, b.ID) }
	}
}

func numericLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func (r *StudentRepository) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		if filter.Status != nil && st.Status != *filter.Status {
			continue
		}
		if filter.CourseID != "" && (st.CourseID == nil || *st.CourseID != filter.CourseID) {
			continue
		}
		if needle != "" && !contains(st.Name, needle) && !contains(st.ID, needle) && !contains(st.Department, needle) {
			continue
		}
		matched = append(matched, r.withCourse(st))
	}
	sortSlice(matched, strings.EqualFold(filter.SortOrder, "desc"), studentLess(filter.SortBy))

	start, end := page(len(matched), filter.Page, filter.PageSize)
	return matched[start:end], len(matched), nil
}

func (r *StudentRepository) All(_ context.Context) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		out = append(out, r.withCourse(st))
	}
	sortSlice(out, false, studentLess("id"))
	return out, nil
}

func (r *StudentRepository) FindByID(_ context.Context, id string) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, errNotFound
	}
	st = r.withCourse(st)
	return &st, nil
}

// NextID hands out ids above every id seen so far; deleted ids are not reused.
func (r *StudentRepository) NextID(_ context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := r.s.nextStudent
	r.s.nextStudent++
	return strconv.Itoa(id), nil
}

func (r *StudentRepository) Create(_ context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if n, err := strconv.Atoi(student.ID); err == nil && n >= r.s.nextStudent {
		r.s.nextStudent = n + 1
	}
	stored := *student
	stored.CourseName = nil
	r.s.students[student.ID] = stored
	return nil
}

func (r *StudentRepository) Update(_ context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.students[student.ID]
	if !ok {
		return errNotFound
	}
	student.CreatedAt = existing.CreatedAt
	student.UpdatedAt = time.Now().UTC()
	stored := *student
	stored.CourseName = nil
	r.s.students[student.ID] = stored
	return nil
}

func (r *StudentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[id]; !ok {
		return errNotFound
	}
	delete(r.s.students, id)
	return nil
}

func (r *StudentRepository) Stats(_ context.Context) (*models.StudentStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := &models.StudentStats{ByStatus: map[models.StudentStatus]int{}}
	for _, st := range r.s.students {
		stats.Total++
		stats.TotalCredits += st.Credits
		stats.ByStatus[st.Status]++
	}
	return stats, nil
}
