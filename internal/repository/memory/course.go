package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// CourseRepository is the in-memory course store.
type CourseRepository struct {
	s *Store
}

func (r *CourseRepository) hydrate(c models.Course) models.Course {
	c.Students = []models.Student{}
	for _, st := range r.s.students {
		if st.CourseID != nil && *st.CourseID == c.ID {
			c.Students = append(c.Students, st)
		}
	}
	sortSlice(c.Students, false, studentLess("id"))
	return c
}

func (r *CourseRepository) List(_ context.Context) ([]models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		out = append(out, r.hydrate(c))
	}
	sortSlice(out, false, func(a, b models.Course) bool { return a.Name < b.Name })
	return out, nil
}

func (r *CourseRepository) FindByID(_ context.Context, id string) (*models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, errNotFound
	}
	c = r.hydrate(c)
	return &c, nil
}

func (r *CourseRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.courses[id]
	return ok, nil
}

func (r *CourseRepository) FindByName(_ context.Context, name string) (*models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.courses {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, errNotFound
}

func (r *CourseRepository) Create(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt, course.UpdatedAt = now, now
	stored := *course
	stored.Students = nil
	r.s.courses[course.ID] = stored
	return nil
}

func (r *CourseRepository) Update(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.courses[course.ID]
	if !ok {
		return errNotFound
	}
	existing.Name = course.Name
	existing.UpdatedAt = time.Now().UTC()
	r.s.courses[course.ID] = existing
	return nil
}

// Delete removes the course and clears course_id on its students.
func (r *CourseRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[id]; !ok {
		return errNotFound
	}
	for sid, st := range r.s.students {
		if st.CourseID != nil && *st.CourseID == id {
			st.CourseID = nil
			r.s.students[sid] = st
		}
	}
	delete(r.s.courses, id)
	return nil
}
