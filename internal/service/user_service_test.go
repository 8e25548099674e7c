package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type mockUserRepo struct {
	byID      map[string]*models.User
	byEmail   map[string]*models.User
	updated   []*models.User
	auditLogs []*models.AuditLog
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{byID: make(map[string]*models.User), byEmail: make(map[string]*models.User)}
	for _, user := range users {
		repo.byID[user.ID] = user
		repo.byEmail[user.Email] = user
	}
	return repo
}

func (m *mockUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, user := range m.byID {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.updated = append(m.updated, user)
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) Deactivate(_ context.Context, id string) error {
	if user, ok := m.byID[id]; ok {
		user.Active = false
	}
	return nil
}

func (m *mockUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func buildUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, nil, zap.NewNop())
}

func TestUserCreateHashesPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := buildUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "New.Admin@Example.com",
		FullName: "New Admin",
		Role:     models.RoleAdmin,
		Password: "secret123",
		Sections: []string{models.SectionOrders},
		Active:   true,
	}, "superadmin-1", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, "new.admin@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "taken@example.com"})
	svc := buildUserService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "taken@example.com",
		FullName: "Someone",
		Role:     models.RoleDealer,
		Password: "secret123",
	}, "superadmin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateSectionsAdminOnly(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "dealer@example.com", Role: models.RoleDealer})
	svc := buildUserService(repo)

	_, err := svc.UpdateSections(context.Background(), "u1", UpdateSectionsRequest{
		Sections: []string{models.SectionOrders},
	}, "superadmin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestUserUpdateSectionsReplacesGrants(t *testing.T) {
	repo := newMockUserRepo(&models.User{
		ID:       "u1",
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
		Sections: []string{models.SectionManagement},
	})
	svc := buildUserService(repo)

	user, err := svc.UpdateSections(context.Background(), "u1", UpdateSectionsRequest{
		Sections: []string{models.SectionBilling, models.SectionReports},
	}, "superadmin-1", models.LoginRequest{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{models.SectionBilling, models.SectionReports}, []string(user.Sections))
	require.Len(t, repo.auditLogs, 1)
	assert.NotEmpty(t, repo.auditLogs[0].OldValues)
}

func TestUserUpdateSectionsRejectsUnknownSection(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "admin@example.com", Role: models.RoleAdmin})
	svc := buildUserService(repo)

	_, err := svc.UpdateSections(context.Background(), "u1", UpdateSectionsRequest{
		Sections: []string{"payroll"},
	}, "superadmin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserDeleteDeactivates(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "admin@example.com", Role: models.RoleAdmin, Active: true, CreatedAt: time.Now()})
	svc := buildUserService(repo)

	require.NoError(t, svc.Delete(context.Background(), "u1", "superadmin-1", models.LoginRequest{}))
	assert.False(t, repo.byID["u1"].Active)
}
