package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// CourseRepository persists courses through GORM so the has-many student
// relation can be preloaded.
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func withStudents(db *gorm.DB) *gorm.DB {
	return db.Preload("Students", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	})
}

// List returns every course with its students.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := withStudents(r.db.WithContext(ctx)).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course with its students or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sql.ErrNoRows
	}
	var course models.Course
	if err := withStudents(r.db.WithContext(ctx)).Where("id = ?", id).Take(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Exists reports whether a course with id exists.
func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check course: %w", err)
	}
	return count > 0, nil
}

// FindByName returns the course with an exact name or sql.ErrNoRows.
func (r *CourseRepository) FindByName(ctx context.Context, name string) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find course by name: %w", err)
	}
	return &course, nil
}

// Create inserts a course. Students on the value are not written.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Omit("Students").Create(course).Error; err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update renames a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	res := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).
		Updates(map[string]interface{}{"name": course.Name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update course: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete detaches the course's students and removes the course in one
// transaction.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Student{}).Where("course_id = ?", id).Update("course_id", nil).Error; err != nil {
			return fmt.Errorf("detach students: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Course{})
		if res.Error != nil {
			return fmt.Errorf("delete course: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}
