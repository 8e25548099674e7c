package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type mockFactoryRepo struct {
	byID        map[string]*models.Factory
	codes       map[string]string
	deactivated []string
}

func newMockFactoryRepo(factories ...*models.Factory) *mockFactoryRepo {
	repo := &mockFactoryRepo{byID: make(map[string]*models.Factory), codes: make(map[string]string)}
	for _, factory := range factories {
		repo.byID[factory.ID] = factory
		repo.codes[strings.ToUpper(factory.Code)] = factory.ID
	}
	return repo
}

func (m *mockFactoryRepo) List(_ context.Context, _ models.FactoryFilter) ([]models.Factory, int, error) {
	var out []models.Factory
	for _, factory := range m.byID {
		out = append(out, *factory)
	}
	return out, len(out), nil
}

func (m *mockFactoryRepo) FindByID(_ context.Context, id string) (*models.Factory, error) {
	factory, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return factory, nil
}

func (m *mockFactoryRepo) CodeExists(_ context.Context, code, excludeID string) (bool, error) {
	id, ok := m.codes[strings.ToUpper(code)]
	return ok && id != excludeID, nil
}

func (m *mockFactoryRepo) Create(_ context.Context, factory *models.Factory) error {
	m.byID[factory.ID] = factory
	m.codes[strings.ToUpper(factory.Code)] = factory.ID
	return nil
}

func (m *mockFactoryRepo) Update(_ context.Context, factory *models.Factory) error {
	m.byID[factory.ID] = factory
	return nil
}

func (m *mockFactoryRepo) Deactivate(_ context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if factory, ok := m.byID[id]; ok {
		factory.Active = false
	}
	return nil
}

func buildFactoryService(repo *mockFactoryRepo) *FactoryService {
	return NewFactoryService(repo, nil, zap.NewNop())
}

func TestFactoryCreateUppercasesCode(t *testing.T) {
	repo := newMockFactoryRepo()
	svc := buildFactoryService(repo)

	factory, err := svc.Create(context.Background(), CreateFactoryRequest{
		Code:  " fac-blr ",
		Name:  "Bengaluru Plant",
		State: "Karnataka",
		City:  "Bengaluru",
	})
	require.NoError(t, err)

	assert.Equal(t, "FAC-BLR", factory.Code)
	assert.True(t, factory.Active)
}

func TestFactoryCreateDuplicateCode(t *testing.T) {
	repo := newMockFactoryRepo(&models.Factory{ID: "f1", Code: "FAC-BLR", Name: "Bengaluru Plant"})
	svc := buildFactoryService(repo)

	_, err := svc.Create(context.Background(), CreateFactoryRequest{
		Code:  "fac-blr",
		Name:  "Another Plant",
		State: "Karnataka",
		City:  "Bengaluru",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateCode.Code, appErrors.FromError(err).Code)
}

func TestFactoryCodeAvailable(t *testing.T) {
	repo := newMockFactoryRepo(&models.Factory{ID: "f1", Code: "FAC-BLR"})
	svc := buildFactoryService(repo)

	available, err := svc.CodeAvailable(context.Background(), "fac-pnq")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = svc.CodeAvailable(context.Background(), "fac-blr")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestFactoryCodeAvailableRequiresCode(t *testing.T) {
	svc := buildFactoryService(newMockFactoryRepo())

	_, err := svc.CodeAvailable(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFactoryUpdateKeepsCode(t *testing.T) {
	repo := newMockFactoryRepo(&models.Factory{ID: "f1", Code: "FAC-BLR", Name: "Bengaluru Plant", State: "Karnataka", City: "Bengaluru", Active: true})
	svc := buildFactoryService(repo)

	inactive := false
	factory, err := svc.Update(context.Background(), "f1", UpdateFactoryRequest{
		Name:   "Bengaluru Plant II",
		State:  "Karnataka",
		City:   "Bengaluru",
		Active: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "FAC-BLR", factory.Code)
	assert.Equal(t, "Bengaluru Plant II", factory.Name)
	assert.False(t, factory.Active)
}

func TestFactoryDeleteMissing(t *testing.T) {
	svc := buildFactoryService(newMockFactoryRepo())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFactoryDeleteDeactivates(t *testing.T) {
	repo := newMockFactoryRepo(&models.Factory{ID: "f1", Code: "FAC-BLR", Active: true})
	svc := buildFactoryService(repo)

	require.NoError(t, svc.Delete(context.Background(), "f1"))
	assert.Equal(t, []string{"f1"}, repo.deactivated)
	assert.False(t, repo.byID["f1"].Active)
}
