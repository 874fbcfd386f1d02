package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// UserRepository is the in-memory user store.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, errNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, errNotFound
	}
	return &u, nil
}

func (r *UserRepository) ListByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.User
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sortSlice(out, false, func(a, b models.User) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return out, nil
}

func (r *UserRepository) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if needle != "" && !contains(u.Name, needle) && !contains(u.Email, needle) {
			continue
		}
		matched = append(matched, u)
	}

	less := func(a, b models.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch filter.SortBy {
	case "name":
		less = func(a, b models.User) bool { return a.Name < b.Name }
	case "email":
		less = func(a, b models.User) bool { return a.Email < b.Email }
	}
	sortSlice(matched, !strings.EqualFold(filter.SortOrder, "asc"), less)

	start, end := page(len(matched), filter.Page, filter.PageSize)
	return matched[start:end], len(matched), nil
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if !ok {
		return errNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return errNotFound
	}
	delete(r.s.users, id)
	return nil
}
