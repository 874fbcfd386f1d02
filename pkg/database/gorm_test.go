package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/pkg/config"
)

func TestNewGormReusesPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gdb, err := NewGorm(db, nil)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Same(t, db, sqlDB)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "student_portal", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=student_portal sslmode=disable", dsn)
}

func TestRegisterQueryObserverLabelsStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gdb, err := NewGorm(db, nil)
	require.NoError(t, err)

	var labels []string
	require.NoError(t, RegisterQueryObserver(gdb, func(label string, d time.Duration) {
		labels = append(labels, label)
	}))

	mock.ExpectQuery(`SELECT \* FROM "courses"`).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-1", "Physics"))

	var rows []struct {
		ID   string
		Name string
	}
	require.NoError(t, gdb.Table("courses").Find(&rows).Error)
	assert.Equal(t, []string{"courses.query"}, labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}
