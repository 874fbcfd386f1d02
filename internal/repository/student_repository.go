package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const studentColumns = `s.id, s.name, s.email, s.department, s.status, s.credits, s.password_hash, s.course_id, c.name AS course_name, s.created_at, s.updated_at`

const studentFrom = `FROM students s LEFT JOIN courses c ON c.id = s.course_id`

// StudentIDSequence allocates student ids.
const StudentIDSequence = "student_id_seq"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters together with their course name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var where whereBuilder
	if filter.Status != nil {
		where.add("s.status = ?", *filter.Status)
	}
	if filter.CourseID != "" {
		where.add("s.course_id = ?", filter.CourseID)
	}
	if filter.Search != "" {
		where.add("(LOWER(s.name) LIKE ? OR s.id LIKE ? OR LOWER(s.department) LIKE ?)", likeArg(filter.Search))
	}

	order := orderBy(map[string]string{
		"id":         "s.id::bigint",
		"name":       "s.name",
		"department": "s.department",
		"credits":    "s.credits",
		"created_at": "s.created_at",
	}, filter.SortBy, "id", filter.SortOrder, "ASC")
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s %s ORDER BY %s LIMIT %d OFFSET %d", studentColumns, studentFrom, where.clause(), order, limit, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s %s", studentFrom, where.clause()), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// All returns every student ordered by id.
func (r *StudentRepository) All(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	query := fmt.Sprintf("SELECT %s %s ORDER BY s.id::bigint", studentColumns, studentFrom)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by id. A missing row returns sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", studentColumns, studentFrom)
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// NextID allocates the next numeric student id from student_id_seq.
func (r *StudentRepository) NextID(ctx context.Context) (string, error) {
	var next int64
	if err := r.db.GetContext(ctx, &next, "SELECT nextval('student_id_seq')"); err != nil {
		return "", fmt.Errorf("next student id: %w", err)
	}
	return strconv.FormatInt(next, 10), nil
}

// SyncSequence moves student_id_seq past the highest stored id so rows
// inserted with explicit ids are never handed out again.
func (r *StudentRepository) SyncSequence(ctx context.Context) error {
	const query = `SELECT setval('student_id_seq', GREATEST((SELECT COALESCE(MAX(id::bigint), 0) FROM students), $1))`
	if _, err := r.db.ExecContext(ctx, query, models.FirstStudentID-1); err != nil {
		return fmt.Errorf("sync student id sequence: %w", err)
	}
	return nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, email, department, status, credits, password_hash, course_id, created_at, updated_at)
        VALUES (:id, :name, :email, :department, :status, :credits, :password_hash, :course_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, department = :department, status = :status, credits = :credits, password_hash = :password_hash, course_id = :course_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return affected(res, "update student")
}

// Delete removes a student permanently.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return affected(res, "delete student")
}

// Stats counts students per status and sums their credits.
func (r *StudentRepository) Stats(ctx context.Context) (*models.StudentStats, error) {
	var rows []struct {
		Status  models.StudentStatus `db:"status"`
		Count   int                  `db:"count"`
		Credits int                  `db:"credits"`
	}
	const query = `SELECT status, COUNT(*) AS count, COALESCE(SUM(credits), 0) AS credits FROM students GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("student stats: %w", err)
	}
	stats := &models.StudentStats{ByStatus: map[models.StudentStatus]int{}}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
		stats.TotalCredits += row.Credits
	}
	return stats, nil
}
