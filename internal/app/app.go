// Package app assembles configuration, storage, services and the HTTP
// router into a runnable server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/internal/repository/memory"
	"github.com/noah-isme/student-portal-api/internal/router"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/cache"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/database"
	"github.com/noah-isme/student-portal-api/pkg/fixtures"
	"github.com/noah-isme/student-portal-api/pkg/jobs"
	"github.com/noah-isme/student-portal-api/pkg/logger"
	"github.com/noah-isme/student-portal-api/pkg/storage"
)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	All(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	NextID(ctx context.Context) (string, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.StudentStats, error)
}

type userStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type courseStore interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByName(ctx context.Context, name string) (*models.Course, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type requestStore interface {
	Create(ctx context.Context, req *models.PortalRequest) error
	ListByStudent(ctx context.Context, studentID string) ([]models.PortalRequest, error)
}

type exportStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, upd models.ExportJobUpdate) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

// Stores is the set of repositories backing the services.
type Stores struct {
	Students studentStore
	Users    userStore
	Courses  courseStore
	Requests requestStore
	Exports  exportStore

	DB   *sqlx.DB
	Gorm *gorm.DB
}

// App is a wired server.
type App struct {
	Engine  *gin.Engine
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	stores      *Stores
	redis       redis.UniversalClient
	exportQueue *jobs.Queue
	exportJobs  *service.ExportJobService
	cancel      context.CancelFunc
}

// OpenStores connects the configured storage driver.
func OpenStores(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService) (*Stores, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		store := memory.NewStore()
		return &Stores{
			Students: store.Students(),
			Users:    store.Users(),
			Courses:  store.Courses(),
			Requests: store.Requests(),
			Exports:  store.ExportJobs(),
		}, nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	gdb, err := database.NewGorm(db.DB, logger.NewGormLogger(logr, cfg.Database.SlowThreshold))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := database.RegisterQueryObserver(gdb, metrics.ObserveDBQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register query observer: %w", err)
	}
	return &Stores{
		Students: repository.NewStudentRepository(db),
		Users:    repository.NewUserRepository(db),
		Courses:  repository.NewCourseRepository(gdb),
		Requests: repository.NewPortalRequestRepository(db),
		Exports:  repository.NewExportJobRepository(db),
		DB:       db,
		Gorm:     gdb,
	}, nil
}

// Close releases the database pool, if any.
func (s *Stores) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Seed loads the embedded roster into the stores.
func Seed(ctx context.Context, stores *Stores, cost int, logr *zap.Logger) (service.SeedResult, error) {
	seed, err := fixtures.LoadSeed()
	if err != nil {
		return service.SeedResult{}, fmt.Errorf("load seed: %w", err)
	}
	return service.NewSeeder(stores.Users, stores.Courses, stores.Students, cost, logr).Run(ctx, seed)
}

// New builds the application. Redis and export failures degrade the
// feature instead of failing startup.
func New(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*App, error) {
	if logr == nil {
		logr = zap.NewNop()
	}
	metrics := service.NewMetricsService()

	stores, err := OpenStores(cfg, logr, metrics)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logr, Metrics: metrics, stores: stores}

	if cfg.SeedOnStart {
		res, err := Seed(ctx, stores, 0, logr)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		logr.Info("seed applied", zap.Int("admins", res.Admins), zap.Int("courses", res.Courses), zap.Int("students", res.Students))
	}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, cache disabled", zap.Error(err))
		} else {
			a.redis = client
		}
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(a.redis), metrics, cfg.Cache.TTL, logr, a.redis != nil)

	portalContent, err := fixtures.LoadPortal()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load portal fixtures: %w", err)
	}

	validate := validator.New()
	authSvc := service.NewAuthService(stores.Users, stores.Students, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(stores.Users, validate, logr)
	studentSvc := service.NewStudentService(stores.Students, stores.Courses, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(stores.Courses, cacheSvc, validate, logr)
	portalSvc := service.NewPortalService(portalContent, stores.Students, cacheSvc, validate, logr)
	requestSvc := service.NewRequestService(stores.Requests, portalContent, validate, logr)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		jobSvc, queue, err := newExportPipeline(cfg, stores, portalSvc, metrics, validate, logr)
		if err != nil {
			logr.Warn("exports disabled", zap.Error(err))
		} else {
			a.exportJobs, a.exportQueue = jobSvc, queue
			exportHandler = handler.NewExportHandler(jobSvc)
		}
	}

	checks := map[string]handler.ReadinessCheck{}
	if stores.DB != nil {
		checks["postgres"] = stores.DB.PingContext
	}
	if a.redis != nil {
		client := a.redis
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	a.Engine = router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		EnforceAuth:    cfg.Auth.Enforce,
		Docs:           !cfg.IsProduction(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, metrics),
		Users:    handler.NewUserHandler(userSvc),
		Students: handler.NewStudentHandler(studentSvc),
		Courses:  handler.NewCourseHandler(courseSvc),
		Portal:   handler.NewPortalHandler(portalSvc),
		Requests: handler.NewRequestHandler(requestSvc),
		Exports:  exportHandler,
		Metrics:  handler.NewMetricsHandler(metrics, checks),
	}, authSvc, metrics, logr)

	return a, nil
}

func newExportPipeline(cfg *config.Config, stores *Stores, portal *service.PortalService, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(stores.Students, portal, files, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr)

	worker := service.NewExportWorker(stores.Exports, exporter, metrics, cfg.Exports.WorkerRetries, logr)
	queue := jobs.New("exports", worker.Handle, jobs.Options{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	jobSvc := service.NewExportJobService(stores.Exports, stores.Students, stores.Courses, queue, exporter, metrics, validate, logr, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	return jobSvc, queue, nil
}

// Start launches the export workers, re-enqueues unfinished jobs and starts
// the cleanup ticker.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	if a.exportQueue == nil {
		return
	}
	a.exportQueue.Start(ctx)
	a.exportJobs.RecoverPending(ctx)
	a.exportJobs.StartCleanup(ctx)
}

// Close drains the workers and releases connections.
func (a *App) Close() error {
	if a.exportQueue != nil {
		a.exportQueue.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", zap.Error(err))
		}
	}
	return a.stores.Close()
}
