package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/repository"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type mockOrderRepo struct {
	byID        map[string]*models.Order
	created     []*models.Order
	transitions []repository.UpdateOrderStatusParams
	updateErr   error
}

func newMockOrderRepo(orders ...*models.Order) *mockOrderRepo {
	repo := &mockOrderRepo{byID: make(map[string]*models.Order)}
	for _, order := range orders {
		repo.byID[order.ID] = order
	}
	return repo
}

func (m *mockOrderRepo) List(_ context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	var out []models.Order
	for _, order := range m.byID {
		if filter.PlacedByID != "" && order.PlacedByID != filter.PlacedByID {
			continue
		}
		out = append(out, *order)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id string) (*models.Order, error) {
	order, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.created = append(m.created, order)
	m.byID[order.ID] = order
	return nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, params repository.UpdateOrderStatusParams) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	order, ok := m.byID[params.ID]
	if !ok || order.Status != params.From {
		// Mirrors the guarded UPDATE matching zero rows.
		return sql.ErrNoRows
	}
	order.Status = params.To
	m.transitions = append(m.transitions, params)
	return nil
}

func buildOrderService(repo *mockOrderRepo, catalog *mockModelReader) (*OrderService, *mockAuditWriter) {
	audit := &mockAuditWriter{}
	return NewOrderService(repo, catalog, audit, nil, zap.NewNop()), audit
}

func activeModel() *mockModelReader {
	return &mockModelReader{model: &models.ProductModel{ID: "m1", Active: true}}
}

func TestOrderPlaceByDistributor(t *testing.T) {
	repo := newMockOrderRepo()
	svc, _ := buildOrderService(repo, activeModel())

	order, err := svc.Place(context.Background(), PlaceOrderRequest{ModelID: "m1", Quantity: 25}, "dist-1", models.RoleDistributor)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.Equal(t, "dist-1", order.PlacedByID)
	assert.Equal(t, models.RoleDistributor, order.PlacedRole)
	assert.Contains(t, order.Number, "ORD-")
	require.Len(t, repo.created, 1)
}

func TestOrderPlaceRejectsOtherRoles(t *testing.T) {
	repo := newMockOrderRepo()
	svc, _ := buildOrderService(repo, activeModel())

	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleFactory, models.RoleCustomer, models.RoleTechnician} {
		_, err := svc.Place(context.Background(), PlaceOrderRequest{ModelID: "m1", Quantity: 5}, "u1", role)
		require.Error(t, err, "role %s", role)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.created)
}

func TestOrderPlaceValidatesQuantity(t *testing.T) {
	svc, _ := buildOrderService(newMockOrderRepo(), activeModel())

	_, err := svc.Place(context.Background(), PlaceOrderRequest{ModelID: "m1", Quantity: 0}, "dealer-1", models.RoleDealer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOrderPlaceUnknownModel(t *testing.T) {
	svc, _ := buildOrderService(newMockOrderRepo(), &mockModelReader{})

	_, err := svc.Place(context.Background(), PlaceOrderRequest{ModelID: "missing", Quantity: 5}, "dealer-1", models.RoleDealer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOrderPlaceInactiveModel(t *testing.T) {
	catalog := &mockModelReader{model: &models.ProductModel{ID: "m1", Active: false}}
	svc, _ := buildOrderService(newMockOrderRepo(), catalog)

	_, err := svc.Place(context.Background(), PlaceOrderRequest{ModelID: "m1", Quantity: 5}, "dealer-1", models.RoleDealer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOrderTransitionHappyPath(t *testing.T) {
	repo := newMockOrderRepo(&models.Order{ID: "o1", Status: models.OrderPlaced})
	svc, audit := buildOrderService(repo, activeModel())

	order, err := svc.Transition(context.Background(), "o1", TransitionOrderRequest{Status: models.OrderConfirmed}, "factory-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)

	require.Len(t, repo.transitions, 1)
	assert.Equal(t, models.OrderPlaced, repo.transitions[0].From)
	assert.Equal(t, models.OrderConfirmed, repo.transitions[0].To)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionOrderTransition, audit.logs[0].Action)
}

func TestOrderTransitionDeliveredSetsTimestamp(t *testing.T) {
	repo := newMockOrderRepo(&models.Order{ID: "o1", Status: models.OrderDispatched})
	svc, _ := buildOrderService(repo, activeModel())

	order, err := svc.Transition(context.Background(), "o1", TransitionOrderRequest{Status: models.OrderDelivered}, "factory-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, order.Status)
	require.NotNil(t, order.DeliveredAt)
	assert.Nil(t, order.ConfirmedAt)
}

func TestOrderTransitionRejectsInvalidEdge(t *testing.T) {
	repo := newMockOrderRepo(&models.Order{ID: "o1", Status: models.OrderPlaced})
	svc, audit := buildOrderService(repo, activeModel())

	_, err := svc.Transition(context.Background(), "o1", TransitionOrderRequest{Status: models.OrderDelivered}, "factory-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.transitions)
	assert.Empty(t, audit.logs)
}

func TestOrderTransitionTerminalStates(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderDelivered, models.OrderCancelled} {
		repo := newMockOrderRepo(&models.Order{ID: "o1", Status: status})
		svc, _ := buildOrderService(repo, activeModel())

		_, err := svc.Transition(context.Background(), "o1", TransitionOrderRequest{Status: models.OrderConfirmed}, "factory-1")
		require.Error(t, err, "from %s", status)
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	}
}

func TestOrderTransitionConcurrentConflict(t *testing.T) {
	repo := newMockOrderRepo(&models.Order{ID: "o1", Status: models.OrderPlaced})
	repo.updateErr = sql.ErrNoRows
	svc, _ := buildOrderService(repo, activeModel())

	_, err := svc.Transition(context.Background(), "o1", TransitionOrderRequest{Status: models.OrderConfirmed}, "factory-1")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "concurrently")
}

func TestOrderTransitionNotFound(t *testing.T) {
	svc, _ := buildOrderService(newMockOrderRepo(), activeModel())

	_, err := svc.Transition(context.Background(), "missing", TransitionOrderRequest{Status: models.OrderConfirmed}, "factory-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
