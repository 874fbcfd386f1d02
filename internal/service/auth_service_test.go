package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type mockAuthUsers struct {
	admins []models.User
	err    error
}

func (m *mockAuthUsers) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return m.admins, m.err
}

type mockAuthStudents struct {
	students []models.Student
	err      error
}

func (m *mockAuthStudents) All(ctx context.Context) ([]models.Student, error) {
	return m.students, m.err
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthUsers, *mockAuthStudents) {
	users := &mockAuthUsers{admins: []models.User{{ID: "u1", Name: "admin", Email: "admin@portal.edu", PasswordHash: hashed(t, "admin123"), Role: models.RoleAdmin}}}
	students := &mockAuthStudents{students: []models.Student{
		{ID: "1001", Name: "Abebe Kebede", PasswordHash: hashed(t, "pass1001")},
		{ID: "1002", Name: "Tigist Alemayehu", PasswordHash: hashed(t, "pass1002")},
	}}
	svc := NewAuthService(users, students, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "student-portal-api"})
	return svc, users, students
}

func TestAuthenticateAdmin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	for _, username := range []string{"admin", "ADMIN@portal.edu"} {
		res, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: username, Password: "admin123", Role: "student"})
		require.NoError(t, err)
		assert.Equal(t, "admin", res.Role)
		assert.Equal(t, "/admin/hub", res.Redirect)
		assert.Empty(t, res.RedirectID)

		claims, err := svc.ValidateToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, claims.Role)
		assert.Equal(t, "u1", claims.UserID)
	}
}

func TestAuthenticateStudent(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	res, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "1002", Password: "pass1002"})
	require.NoError(t, err)
	assert.Equal(t, "student", res.Role)
	assert.Equal(t, "1002", res.RedirectID)
	assert.Equal(t, "/dashboard/profile?id=1002", res.Redirect)
	assert.EqualValues(t, 3600, res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "1002", claims.UserID)
}

func TestAuthenticateRejectsUnknownPair(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "1001", Password: "pass1002", Role: "admin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "invalid username or password for admin role", appErr.Message)

	_, err = svc.Authenticate(context.Background(), models.LoginRequest{Username: "ghost", Password: "x"})
	assert.Equal(t, "invalid username or password for student role", appErrors.FromError(err).Message)
}

func TestAuthenticateStoreFailure(t *testing.T) {
	svc, _, students := newAuthFixture(t)
	students.err = errors.New("connection refused")

	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "1001", Password: "pass1001"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "could not connect to the credential store", appErr.Message)
}

func TestAuthenticateValidatesPayload(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "1001"})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Authenticate(context.Background(), models.LoginRequest{Username: "1001", Password: "x", Role: "teacher"})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	res, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "1001", Password: "pass1001"})
	require.NoError(t, err)

	other := NewAuthService(nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "student-portal-api"})
	_, err = other.ValidateToken(res.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}
