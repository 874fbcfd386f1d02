package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/pkg/fixtures"
)

type seedUserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type seedCourseStore interface {
	FindByName(ctx context.Context, name string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
}

type seedStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type sequenceSyncer interface {
	SyncSequence(ctx context.Context) error
}

// SeedResult counts the rows a seed run inserted.
type SeedResult struct {
	Admins   int
	Courses  int
	Students int
}

// Seeder loads the initial roster. Rows that already exist are left alone,
// so running it twice is harmless.
type Seeder struct {
	users    seedUserStore
	courses  seedCourseStore
	students seedStudentStore
	cost     int
	logger   *zap.Logger
}

// NewSeeder constructs a seeder. cost is the bcrypt cost; zero uses the
// library default.
func NewSeeder(users seedUserStore, courses seedCourseStore, students seedStudentStore, cost int, logger *zap.Logger) *Seeder {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, courses: courses, students: students, cost: cost, logger: logger}
}

// Run inserts the admins, courses and students of seed.
func (s *Seeder) Run(ctx context.Context, seed *fixtures.Seed) (SeedResult, error) {
	var res SeedResult
	if seed == nil {
		return res, nil
	}

	for _, admin := range seed.Admins {
		email := strings.ToLower(strings.TrimSpace(admin.Email))
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			continue
		} else if !repository.IsNotFound(err) {
			return res, fmt.Errorf("look up admin %s: %w", email, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), s.cost)
		if err != nil {
			return res, fmt.Errorf("hash admin password: %w", err)
		}
		user := &models.User{Name: admin.Name, Email: email, Role: models.RoleAdmin, PasswordHash: string(hash)}
		if err := s.users.Create(ctx, user); err != nil {
			return res, fmt.Errorf("create admin %s: %w", email, err)
		}
		res.Admins++
	}

	courseIDs := make(map[string]string, len(seed.Courses))
	for _, name := range seed.Courses {
		existing, err := s.courses.FindByName(ctx, name)
		switch {
		case err == nil:
			courseIDs[name] = existing.ID
			continue
		case !repository.IsNotFound(err):
			return res, fmt.Errorf("look up course %s: %w", name, err)
		}
		course := &models.Course{Name: name}
		if err := s.courses.Create(ctx, course); err != nil {
			return res, fmt.Errorf("create course %s: %w", name, err)
		}
		courseIDs[name] = course.ID
		res.Courses++
	}

	for _, st := range seed.Students {
		if _, err := s.students.FindByID(ctx, st.ID); err == nil {
			continue
		} else if !repository.IsNotFound(err) {
			return res, fmt.Errorf("look up student %s: %w", st.ID, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(st.Password), s.cost)
		if err != nil {
			return res, fmt.Errorf("hash student password: %w", err)
		}
		status := models.StudentStatus(st.Status)
		if status == "" {
			status = models.StudentPending
		}
		student := &models.Student{
			ID:           st.ID,
			Name:         st.Name,
			Department:   st.Department,
			Status:       status,
			Credits:      st.Credits,
			PasswordHash: string(hash),
		}
		if id, ok := courseIDs[st.Course]; ok {
			student.CourseID = &id
		}
		if err := s.students.Create(ctx, student); err != nil {
			return res, fmt.Errorf("create student %s: %w", st.ID, err)
		}
		res.Students++
	}

	if syncer, ok := s.students.(sequenceSyncer); ok {
		if err := syncer.SyncSequence(ctx); err != nil {
			return res, err
		}
	}
	s.logger.Info("seed applied", zap.Int("admins", res.Admins), zap.Int("courses", res.Courses), zap.Int("students", res.Students))
	return res, nil
}
