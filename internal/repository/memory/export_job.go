package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// ExportJobRepository is the in-memory export job table.
type ExportJobRepository struct {
	s *Store
}

func (r *ExportJobRepository) Create(_ context.Context, job *models.ExportJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.s.exportJobs[job.ID] = *job
	return nil
}

func (r *ExportJobRepository) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.exportJobs[id]
	if !ok {
		return nil, errNotFound
	}
	return &job, nil
}

func (r *ExportJobRepository) Update(_ context.Context, id string, upd models.ExportJobUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.exportJobs[id]
	if !ok {
		return errNotFound
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil {
		job.Progress = *upd.Progress
	}
	if upd.Attempts != nil {
		job.Attempts = *upd.Attempts
	}
	if upd.ResultURL != nil {
		v := *upd.ResultURL
		job.ResultURL = &v
	}
	if upd.FinishedAt != nil {
		v := *upd.FinishedAt
		job.FinishedAt = &v
	}
	if upd.ErrorMessage != nil {
		v := *upd.ErrorMessage
		job.ErrorMessage = &v
	}
	r.s.exportJobs[id] = job
	return nil
}

func (r *ExportJobRepository) ListUnfinished(_ context.Context, limit int) ([]models.ExportJob, error) {
	return r.filter(limit, func(j models.ExportJob) bool {
		return j.Status == models.ExportQueued || j.Status == models.ExportProcessing
	}, func(a, b models.ExportJob) bool { return a.CreatedAt.Before(b.CreatedAt) })
}

func (r *ExportJobRepository) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return r.filter(limit, func(j models.ExportJob) bool {
		return j.Status == models.ExportFinished && j.ResultURL != nil && *j.ResultURL != "" &&
			j.FinishedAt != nil && j.FinishedAt.Before(cutoff)
	}, func(a, b models.ExportJob) bool { return a.FinishedAt.Before(*b.FinishedAt) })
}

func (r *ExportJobRepository) filter(limit int, keep func(models.ExportJob) bool, less func(a, b models.ExportJob) bool) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.ExportJob
	for _, j := range r.s.exportJobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	sortSlice(out, false, less)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
