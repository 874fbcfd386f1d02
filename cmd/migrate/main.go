package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/app"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", true, "load the embedded roster after migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.StorageDriver != config.StoragePostgres {
		log.Fatalf("migrate requires STORAGE_DRIVER=%s", config.StoragePostgres)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stores, err := app.OpenStores(cfg, logr, service.NewMetricsService())
	if err != nil {
		logr.Fatal("failed to open database", zap.Error(err))
	}
	defer stores.Close() //nolint:errcheck

	seq := fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH %d", repository.StudentIDSequence, models.FirstStudentID)
	if err := stores.Gorm.WithContext(ctx).Exec(seq).Error; err != nil {
		logr.Fatal("failed to create student id sequence", zap.Error(err))
	}
	if err := stores.Gorm.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Student{},
		&models.PortalRequest{},
		&models.ExportJob{},
	); err != nil {
		logr.Fatal("auto migrate failed", zap.Error(err))
	}
	logr.Info("schema migrated")

	if *seed {
		res, err := app.Seed(ctx, stores, 0, logr)
		if err != nil {
			logr.Fatal("seed failed", zap.Error(err))
		}
		logr.Info("seed applied", zap.Int("admins", res.Admins), zap.Int("courses", res.Courses), zap.Int("students", res.Students))
	}
}
