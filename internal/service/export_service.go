package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/pkg/export"
	"github.com/noah-isme/student-portal-api/pkg/storage"
)

// ErrExportSubject is returned when the student or course an export refers
// to does not exist. It is permanent and not worth retrying.
var ErrExportSubject = errors.New("export subject not found")

type rosterSource interface {
	All(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type transcriptSource interface {
	AcademicHistory() models.AcademicHistory
}

type fileStorage interface {
	Save(name string, data []byte) error
	Open(name string) (*os.File, error)
	Delete(name string) error
	Sweep(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ExportResult describes a rendered and stored export.
type ExportResult struct {
	File      string
	Token     string
	URL       string
	ExpiresAt time.Time
}

// ExportService builds roster and transcript datasets, renders them and
// stores the file behind a signed URL.
type ExportService struct {
	students   rosterSource
	transcript transcriptSource
	storage    fileStorage
	signer     *storage.Signer
	cfg        ExportConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(students rosterSource, transcript transcriptSource, store fileStorage, signer *storage.Signer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		students:   students,
		transcript: transcript,
		storage:    store,
		signer:     signer,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate renders the job's dataset and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, errors.New("export job is nil")
	}
	renderer, err := export.RendererFor(job.Params.Format)
	if err != nil {
		return nil, err
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	file := s.filename(job, renderer.Extension())
	if err := s.storage.Save(file, payload); err != nil {
		return nil, err
	}
	token, grant, err := s.signer.Sign(job.ID, file)
	if err != nil {
		_ = s.storage.Delete(file)
		return nil, err
	}
	return &ExportResult{
		File:      file,
		Token:     token,
		URL:       s.DownloadURL(token),
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// DownloadURL is the public path for a token.
func (s *ExportService) DownloadURL(token string) string {
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/export/" + token
}

// VerifyToken validates a download token.
func (s *ExportService) VerifyToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(file string) (*os.File, error) {
	return s.storage.Open(file)
}

// Delete removes a stored export.
func (s *ExportService) Delete(file string) error {
	return s.storage.Delete(file)
}

// Sweep removes stored files older than ttl. Zero uses the token lifetime.
func (s *ExportService) Sweep(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.signer.TTL()
	}
	return s.storage.Sweep(ttl)
}

// ContentType returns the MIME type for a stored export name.
func ContentType(file string) string {
	switch {
	case strings.HasSuffix(file, export.PDF{}.Extension()):
		return export.PDF{}.ContentType()
	case strings.HasSuffix(file, export.CSV{}.Extension()):
		return export.CSV{}.ContentType()
	default:
		return "application/octet-stream"
	}
}

func (s *ExportService) filename(job *models.ExportJob, ext string) string {
	subject := "all"
	switch {
	case job.Params.StudentID != nil:
		subject = sanitizeFilename(*job.Params.StudentID)
	case job.Params.CourseID != nil:
		subject = sanitizeFilename(*job.Params.CourseID)
	}
	stamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s/%s_%s_%s%s", job.ID, job.Type, subject, stamp, ext)
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	out := replacer.Replace(strings.TrimSpace(raw))
	if out == "" {
		return "na"
	}
	if len(out) > 64 {
		return out[:64]
	}
	return out
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ExportRoster:
		return s.rosterDataset(ctx, job.Params)
	case models.ExportTranscript:
		return s.transcriptDataset(ctx, job.Params)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) rosterDataset(ctx context.Context, params models.ExportParams) (export.Dataset, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load roster: %w", err)
	}
	title := "Student Roster"
	courseID := deref(params.CourseID)
	dataset := export.Dataset{Columns: []string{"ID", "Name", "Department", "Status", "Credits", "Course"}}
	for _, st := range students {
		if courseID != "" && deref(st.CourseID) != courseID {
			continue
		}
		if courseID != "" && st.CourseName != nil {
			title = "Student Roster - " + *st.CourseName
		}
		dataset.AddRow(st.ID, st.Name, st.Department, string(st.Status), strconv.Itoa(st.Credits), deref(st.CourseName))
	}
	dataset.Title = title
	return dataset, nil
}

func (s *ExportService) transcriptDataset(ctx context.Context, params models.ExportParams) (export.Dataset, error) {
	id := deref(params.StudentID)
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return export.Dataset{}, fmt.Errorf("student %s: %w", id, ErrExportSubject)
		}
		return export.Dataset{}, fmt.Errorf("load student: %w", err)
	}
	history := s.transcript.AcademicHistory()
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Transcript - %s (%s)", student.Name, student.ID),
		Columns: []string{"Term", "Code", "Title", "Credits", "Grade"},
	}
	for _, sem := range history.Semesters {
		for _, c := range sem.Courses {
			dataset.AddRow(sem.Term, c.Code, c.Title, strconv.Itoa(c.Credits), c.Grade)
		}
		dataset.AddRow(sem.Term, "", "Term GPA", strconv.Itoa(sem.CreditsEarned), fmt.Sprintf("%.2f", sem.GPA))
	}
	dataset.AddRow("Cumulative", "", "Cumulative GPA", strconv.Itoa(history.TotalCreditsEarned), history.CumulativeGPA)
	return dataset, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
