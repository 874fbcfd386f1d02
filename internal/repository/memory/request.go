package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// PortalRequestRepository is the in-memory request log.
type PortalRequestRepository struct {
	s *Store
}

func (r *PortalRequestRepository) Create(_ context.Context, req *models.PortalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	r.s.requests = append(r.s.requests, *req)
	return nil
}

func (r *PortalRequestRepository) ListByStudent(_ context.Context, studentID string) ([]models.PortalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.PortalRequest{}
	for i := len(r.s.requests) - 1; i >= 0; i-- {
		req := r.s.requests[i]
		if req.StudentID != nil && *req.StudentID == studentID {
			out = append(out, req)
		}
	}
	return out, nil
}
