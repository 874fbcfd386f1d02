package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

const (
	studentStatsCacheKey  = "students:stats"
	studentCachePattern   = "students:*"
	temporaryPasswordSize = 8
	passwordAlphabet      = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	NextID(ctx context.Context) (string, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.StudentStats, error)
}

type courseChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	courses   courseChecker
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(repo studentRepository, courses courseChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student with its course name.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student under the next id of the sequence. When no
// password is supplied a temporary one is generated and returned once.
func (s *StudentService) Create(ctx context.Context, req models.StudentRequest) (*models.CreatedStudent, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	courseID, err := s.resolveCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	password := req.Password
	var temporary string
	if password == "" {
		if temporary, err = generatePassword(temporaryPasswordSize); err != nil {
			return nil, appErrors.Internal(err, "failed to generate password")
		}
		password = temporary
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to allocate student id")
	}
	status := req.Status
	if status == "" {
		status = models.StudentPending
	}
	student := &models.Student{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Department:   strings.TrimSpace(req.Department),
		Status:       status,
		Credits:      req.Credits,
		PasswordHash: string(hash),
		CourseID:     courseID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to create student")
	}
	s.cache.Invalidate(ctx, studentCachePattern)
	s.logger.Info("student created", zap.String("student_id", id), zap.Bool("temporary_password", temporary != ""))

	created, err := s.Get(ctx, id)
	if err != nil {
		created = student
	}
	return &models.CreatedStudent{Student: created, TemporaryPassword: temporary}, nil
}

// Update replaces the mutable fields of a student. The password hash is only
// replaced when a new password is supplied.
func (s *StudentService) Update(ctx context.Context, id string, req models.StudentRequest) (*models.Student, error) {
	req.Normalize()
	if req.ID != "" && req.ID != id {
		return nil, appErrors.Validation(nil, "student id mismatch")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	courseID, err := s.resolveCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	student.Name = strings.TrimSpace(req.Name)
	student.Email = normalizeEmail(req.Email)
	student.Department = strings.TrimSpace(req.Department)
	if req.Status != "" {
		student.Status = req.Status
	}
	student.Credits = req.Credits
	student.CourseID = courseID
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		student.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, student); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to update student")
	}
	s.cache.Invalidate(ctx, studentCachePattern)
	return s.Get(ctx, id)
}

// Delete removes a student and returns the record as it was.
func (s *StudentService) Delete(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to delete student")
	}
	s.cache.Invalidate(ctx, studentCachePattern)
	return student, nil
}

// Stats returns roster counts, served from cache when available. The bool
// reports a cache hit.
func (s *StudentService) Stats(ctx context.Context) (*models.StudentStats, bool, error) {
	var cached models.StudentStats
	if s.cache.Get(ctx, studentStatsCacheKey, &cached) {
		return &cached, true, nil
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to compute student stats")
	}
	s.cache.Set(ctx, studentStatsCacheKey, stats, 0)
	return stats, false, nil
}

func (s *StudentService) resolveCourse(ctx context.Context, id *string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	if s.courses == nil {
		return nil, appErrors.Internal(errors.New("course lookup not configured"), "failed to validate course")
	}
	courseID := strings.TrimSpace(*id)
	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to validate course")
	}
	if !exists {
		return nil, appErrors.Validation(nil, "course does not exist")
	}
	return &courseID, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*email))
	if v == "" {
		return nil
	}
	return &v
}

func generatePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
