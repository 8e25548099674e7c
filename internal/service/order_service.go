package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/repository"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type orderRepository interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, params repository.UpdateOrderStatusParams) error
}

type orderAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// PlaceOrderRequest is the payload for placing a stock order.
type PlaceOrderRequest struct {
	ModelID  string `json:"model_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// TransitionOrderRequest moves an order to its next status.
type TransitionOrderRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=CONFIRMED DISPATCHED DELIVERED CANCELLED"`
}

// OrderService manages the stock order lifecycle.
type OrderService struct {
	orders    orderRepository
	catalog   productModelReader
	audit     orderAuditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrderService creates an instance of OrderService.
func NewOrderService(orders orderRepository, catalog productModelReader, audit orderAuditWriter, validate *validator.Validate, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OrderService{orders: orders, catalog: catalog, audit: audit, validator: validate, logger: logger}
}

// List returns paginated orders. Distributors and dealers only see their
// own orders; the handler supplies the scoping through the filter.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, *models.Pagination, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	return orders, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an order by ID.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	return order, nil
}

// Place creates a new order in PLACED state on behalf of the actor.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest, actorID string, actorRole models.UserRole) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}

	if actorRole != models.RoleDistributor && actorRole != models.RoleDealer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only distributors and dealers place orders")
	}

	model, err := s.catalog.FindByID(ctx, req.ModelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown product model")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product model")
	}
	if !model.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "product model is not active")
	}

	order := &models.Order{
		ID:         uuid.NewString(),
		Number:     fmt.Sprintf("ORD-%s", time.Now().UTC().Format("20060102-150405")),
		ModelID:    req.ModelID,
		Quantity:   req.Quantity,
		PlacedByID: actorID,
		PlacedRole: actorRole,
		Status:     models.OrderPlaced,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place order")
	}
	return order, nil
}

// Transition moves an order along its lifecycle. The update is guarded on
// the status the caller observed, so a concurrent transition surfaces as a
// conflict instead of a silent overwrite.
func (s *OrderService) Transition(ctx context.Context, id string, req TransitionOrderRequest, actorID string) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}

	if !models.CanTransitionOrder(order.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status))
	}

	now := time.Now().UTC()
	params := repository.UpdateOrderStatusParams{
		ID:   order.ID,
		From: order.Status,
		To:   req.Status,
	}
	switch req.Status {
	case models.OrderConfirmed:
		params.ConfirmedAt = &now
	case models.OrderDelivered:
		params.DeliveredAt = &now
	}

	previous := order.Status
	if err := s.orders.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "order was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition order")
	}

	order.Status = req.Status
	order.ConfirmedAt = coalesceTime(order.ConfirmedAt, params.ConfirmedAt)
	order.DeliveredAt = coalesceTime(order.DeliveredAt, params.DeliveredAt)

	oldPayload, _ := json.Marshal(map[string]interface{}{"status": previous})
	newPayload, _ := json.Marshal(map[string]interface{}{"status": order.Status})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionOrderTransition,
		Resource:   "orders",
		ResourceID: &order.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}); err != nil {
		s.logger.Warn("failed to record order transition audit log", zap.Error(err))
	}

	return order, nil
}

func coalesceTime(existing, updated *time.Time) *time.Time {
	if updated != nil {
		return updated
	}
	return existing
}
