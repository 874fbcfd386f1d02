package service

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/jobs"
)

const (
	exportCleanupBatch = 100
	exportExpiredMsg   = "export expired"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, upd models.ExportJobUpdate) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportJobConfig governs recovery and cleanup.
type ExportJobConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved download.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService owns the export job lifecycle outside the worker.
type ExportJobService struct {
	repo      exportJobStore
	students  studentReader
	courses   courseChecker
	queue     jobDispatcher
	exporter  *ExportService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig
	now       func() time.Time
}

// NewExportJobService constructs the export job service.
func NewExportJobService(repo exportJobStore, students studentReader, courses courseChecker, queue jobDispatcher, exporter *ExportService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:      repo,
		students:  students,
		courses:   courses,
		queue:     queue,
		exporter:  exporter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create validates the request, stores a QUEUED job and hands it to the
// worker queue.
func (s *ExportJobService) Create(ctx context.Context, req models.ExportRequest, actorID string) (*models.ExportJob, error) {
	req.Normalize()
	if req.Type == models.ExportTranscript && req.StudentID == nil {
		return nil, appErrors.Validation(nil, "transcript exports require student_id")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid export request")
	}
	if err := s.checkSubjects(ctx, req); err != nil {
		return nil, err
	}
	job := &models.ExportJob{
		Type:      req.Type,
		Params:    models.ExportParams{Format: req.Format, CourseID: req.CourseID, StudentID: req.StudentID},
		Status:    models.ExportQueued,
		CreatedBy: actorID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: string(job.Type)}); err != nil {
		failed := models.ExportFailed
		msg := "failed to enqueue job"
		progress := 100
		finished := s.now().UTC()
		_ = s.repo.Update(ctx, job.ID, models.ExportJobUpdate{Status: &failed, Progress: &progress, ErrorMessage: &msg, FinishedAt: &finished})
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "export queue is not accepting jobs")
	}
	s.metrics.ExportQueued()
	s.logger.Info("export job queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.String("format", req.Format))
	return job, nil
}

func (s *ExportJobService) checkSubjects(ctx context.Context, req models.ExportRequest) error {
	if id := deref(req.StudentID); strings.TrimSpace(id) != "" && s.students != nil {
		if _, err := s.students.FindByID(ctx, id); err != nil {
			if repository.IsNotFound(err) {
				return appErrors.Validation(nil, "student does not exist")
			}
			return appErrors.Internal(err, "failed to validate student")
		}
	}
	if id := deref(req.CourseID); strings.TrimSpace(id) != "" && s.courses != nil {
		exists, err := s.courses.Exists(ctx, id)
		if err != nil {
			return appErrors.Internal(err, "failed to validate course")
		}
		if !exists {
			return appErrors.Validation(nil, "course does not exist")
		}
	}
	return nil
}

// Status returns the stored job.
func (s *ExportJobService) Status(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Internal(err, "failed to load export job")
	}
	return job, nil
}

// ResolveDownload validates a token against its job and opens the file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	grant, err := s.exporter.VerifyToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.Status(ctx, grant.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, "/"+token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match export")
	}
	if job.Status != models.ExportFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.Open(grant.File)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ExportDownload{
		File:        file,
		Filename:    path.Base(grant.File),
		ContentType: ContentType(grant.File),
		ExpiresAt:   grant.ExpiresAt,
	}, nil
}

// RecoverPending re-enqueues jobs left QUEUED or PROCESSING by a previous
// process.
func (s *ExportJobService) RecoverPending(ctx context.Context) int {
	pending, err := s.repo.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover export jobs", zap.Error(err))
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if job.Status == models.ExportProcessing {
			queued := models.ExportQueued
			reset := 0
			if err := s.repo.Update(ctx, job.ID, models.ExportJobUpdate{Status: &queued, Progress: &reset}); err != nil {
				s.logger.Warn("failed to reset export job", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
		}
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: string(job.Type), Attempt: job.Attempts}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		s.metrics.ExportQueued()
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("export jobs recovered", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup purges expired exports every CleanupInterval until ctx ends.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes files of jobs finished more than ResultTTL ago and
// clears their result URL, then sweeps orphaned files.
func (s *ExportJobService) CleanupExpired(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	removed := 0
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, exportCleanupBatch)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return removed
		}
		for _, job := range expired {
			if token := lastSegment(deref(job.ResultURL)); token != "" {
				if grant, err := s.exporter.VerifyToken(token, true); err == nil {
					if err := s.exporter.Delete(grant.File); err != nil {
						s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
					}
				}
			}
			empty := ""
			msg := exportExpiredMsg
			if err := s.repo.Update(ctx, job.ID, models.ExportJobUpdate{ResultURL: &empty, ErrorMessage: &msg}); err != nil {
				s.logger.Warn("export cleanup update failed", zap.String("job_id", job.ID), zap.Error(err))
				return removed
			}
			removed++
		}
		if len(expired) < exportCleanupBatch {
			break
		}
	}
	if _, err := s.exporter.Sweep(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export storage sweep failed", zap.Error(err))
	}
	return removed
}

func lastSegment(url string) string {
	if url == "" {
		return ""
	}
	return url[strings.LastIndexByte(url, '/')+1:]
}

// ExportWorker processes queued export jobs.
type ExportWorker struct {
	repo       exportJobStore
	exporter   exportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// NewExportWorker constructs a worker. maxRetries must match the queue's.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ExportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, maxRetries: maxRetries, now: time.Now}
}

// Handle moves a job QUEUED → PROCESSING → FINISHED. Failures put it back to
// QUEUED for the queue's retry, or FAILED on the last attempt.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.FindByID(ctx, job.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ExportFinished || record.Status == models.ExportFailed {
		return nil
	}
	started := w.now()

	processing := models.ExportProcessing
	progress := 10
	attempts := job.Attempt + 1
	if err := w.repo.Update(ctx, job.ID, models.ExportJobUpdate{Status: &processing, Progress: &progress, Attempts: &attempts}); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries || errors.Is(err, ErrExportSubject) {
			w.fail(ctx, record, msg, started)
			if errors.Is(err, ErrExportSubject) {
				return nil
			}
			return err
		}
		queued := models.ExportQueued
		reset := 0
		if updateErr := w.repo.Update(ctx, job.ID, models.ExportJobUpdate{Status: &queued, Progress: &reset, ErrorMessage: &msg}); updateErr != nil {
			w.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ExportFinished
	progress = 100
	now := w.now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, models.ExportJobUpdate{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.ExportFinished(record.Type, models.ExportFinished, w.now().Sub(started))
	w.logger.Info("export finished", zap.String("job_id", job.ID), zap.String("file", result.File))
	return nil
}

func (w *ExportWorker) fail(ctx context.Context, record *models.ExportJob, msg string, started time.Time) {
	failed := models.ExportFailed
	progress := 100
	now := w.now().UTC()
	if err := w.repo.Update(ctx, record.ID, models.ExportJobUpdate{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export failed", zap.String("job_id", record.ID), zap.Error(err))
	}
	w.metrics.ExportFinished(record.Type, models.ExportFailed, w.now().Sub(started))
}
