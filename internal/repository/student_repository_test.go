package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var studentRowColumns = []string{"id", "name", "email", "department", "status", "credits", "password_hash", "course_id", "course_name", "created_at", "updated_at"}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("1001", "Abebe Kebede", nil, "Computer Science", "Registered", 18, "hash", "c1", "Computer Science", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " " + studentFrom + " WHERE s.status = $1 AND (LOWER(s.name) LIKE $2 OR s.id LIKE $2 OR LOWER(s.department) LIKE $2) ORDER BY s.name DESC LIMIT 20 OFFSET 20")).
		WithArgs("Registered", "%abebe%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) " + studentFrom + " WHERE s.status = $1")).
		WithArgs("Registered", "%abebe%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	status := models.StudentRegistered
	students, total, err := repo.List(context.Background(), models.StudentFilter{Status: &status, Search: " Abebe", Page: 2, SortBy: "name", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Computer Science", *students[0].CourseName)
	assert.Equal(t, 21, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListOrdersIDsNumerically(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("1001", "Abebe Kebede", nil, "Computer Science", "Registered", 18, "hash", nil, nil, now, now).
		AddRow("10000", "Sara Tesfaye", nil, "Economics", "Pending", 12, "hash", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " " + studentFrom + " WHERE 1=1 ORDER BY s.id::bigint ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) " + studentFrom + " WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	students, total, err := repo.List(context.Background(), models.StudentFilter{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students s LEFT JOIN courses c ON c.id = s.course_id WHERE s.id = \\$1").
		WithArgs("9999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "9999")
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryNextID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('student_id_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(1008))

	id, err := repo.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1008", id)
}

func TestStudentRepositorySyncSequence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT setval('student_id_seq'")).
		WithArgs(1000).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SyncSequence(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs("1008", "Hana", nil, "Physics", "Pending", 0, "hash", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{ID: "1008", Name: "Hana", Department: "Physics", Status: models.StudentPending, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Student{ID: "4040", Name: "x", Department: "y", Status: models.StudentOnHold})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("1001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "1001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "credits"}).
			AddRow("Registered", 2, 35).
			AddRow("Pending", 4, 27))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 62, stats.TotalCredits)
	assert.Equal(t, 2, stats.ByStatus[models.StudentRegistered])
}
