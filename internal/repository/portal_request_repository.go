package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// PortalRequestRepository stores student self-service submissions.
type PortalRequestRepository struct {
	db *sqlx.DB
}

// NewPortalRequestRepository constructs the repository.
func NewPortalRequestRepository(db *sqlx.DB) *PortalRequestRepository {
	return &PortalRequestRepository{db: db}
}

// Create inserts a submission.
func (r *PortalRequestRepository) Create(ctx context.Context, req *models.PortalRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO portal_requests (id, reference, student_id, type, status, payload, created_at)
VALUES (:id, :reference, :student_id, :type, :status, :payload, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create portal request: %w", err)
	}
	return nil
}

// ListByStudent returns a student's submissions newest first.
func (r *PortalRequestRepository) ListByStudent(ctx context.Context, studentID string) ([]models.PortalRequest, error) {
	const query = `SELECT id, reference, student_id, type, status, payload, created_at FROM portal_requests WHERE student_id = $1 ORDER BY created_at DESC`
	var out []models.PortalRequest
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("list portal requests: %w", err)
	}
	return out, nil
}
