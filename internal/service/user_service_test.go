package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	listErr error
	deleted []string
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	m := &mockUserRepo{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var users []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.users, id)
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Name: "Registrar", Email: "Registrar@Portal.edu", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "registrar@portal.edu", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[user.ID].PasswordHash), []byte("secret1")))

	_, err = svc.Create(context.Background(), models.CreateUserRequest{Name: "Dup", Email: "registrar@portal.edu", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), models.CreateUserRequest{Name: "NoPass", Email: "x@portal.edu"})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestUserServiceUpdateKeepsPasswordUnlessProvided(t *testing.T) {
	repo := newMockUserRepo(
		models.User{ID: "u-1", Name: "Admin", Email: "admin@portal.edu", Role: models.RoleAdmin, PasswordHash: "old-hash"},
		models.User{ID: "u-2", Name: "Other", Email: "other@portal.edu", Role: models.RoleStudent},
	)
	svc := NewUserService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), "u-1", models.UpdateUserRequest{Name: "Head Admin", Email: "admin@portal.edu", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Head Admin", updated.Name)
	assert.Equal(t, "old-hash", repo.users["u-1"].PasswordHash)

	_, err = svc.Update(context.Background(), "u-1", models.UpdateUserRequest{Name: "Head Admin", Email: "admin@portal.edu", Role: models.RoleAdmin, Password: "newpass"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u-1"].PasswordHash), []byte("newpass")))

	_, err = svc.Update(context.Background(), "u-1", models.UpdateUserRequest{Name: "Head Admin", Email: "other@portal.edu", Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Update(context.Background(), "missing", models.UpdateUserRequest{Name: "x", Email: "x@portal.edu", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, "user not found", appErrors.FromError(err).Message)
}

func TestUserServiceDeleteReturnsUser(t *testing.T) {
	repo := newMockUserRepo(models.User{ID: "u-1", Name: "Admin", Email: "admin@portal.edu", Role: models.RoleAdmin})
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Delete(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Name)
	assert.Equal(t, []string{"u-1"}, repo.deleted)

	_, err = svc.Get(context.Background(), "u-1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUserServiceListPagination(t *testing.T) {
	repo := newMockUserRepo(models.User{ID: "u-1", Role: models.RoleAdmin}, models.User{ID: "u-2", Role: models.RoleStudent})
	svc := NewUserService(repo, nil, nil)

	role := models.RoleAdmin
	users, pagination, err := svc.List(context.Background(), models.UserFilter{Role: &role, Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 5, pagination.PageSize)

	_, pagination, err = svc.List(context.Background(), models.UserFilter{PageSize: models.MaxPageSize + 1})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPageSize, pagination.PageSize)

	repo.listErr = errors.New("boom")
	_, _, err = svc.List(context.Background(), models.UserFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
