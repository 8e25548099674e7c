package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type factoryRepository interface {
	List(ctx context.Context, filter models.FactoryFilter) ([]models.Factory, int, error)
	FindByID(ctx context.Context, id string) (*models.Factory, error)
	CodeExists(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, factory *models.Factory) error
	Update(ctx context.Context, factory *models.Factory) error
	Deactivate(ctx context.Context, id string) error
}

// CreateFactoryRequest is the payload for registering a factory.
type CreateFactoryRequest struct {
	Code         string `json:"code" validate:"required,min=2,max=32"`
	Name         string `json:"name" validate:"required"`
	State        string `json:"state" validate:"required"`
	City         string `json:"city" validate:"required"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

// UpdateFactoryRequest is the payload for modifying a factory.
type UpdateFactoryRequest struct {
	Name         string `json:"name" validate:"required"`
	State        string `json:"state" validate:"required"`
	City         string `json:"city" validate:"required"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Active       *bool  `json:"active"`
}

// FactoryService handles factory master data workflows.
type FactoryService struct {
	repo      factoryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFactoryService creates an instance of FactoryService.
func NewFactoryService(repo factoryRepository, validate *validator.Validate, logger *zap.Logger) *FactoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FactoryService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated factories.
func (s *FactoryService) List(ctx context.Context, filter models.FactoryFilter) ([]models.Factory, *models.Pagination, error) {
	factories, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list factories")
	}
	return factories, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a factory by ID.
func (s *FactoryService) Get(ctx context.Context, id string) (*models.Factory, error) {
	factory, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "factory not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load factory")
	}
	return factory, nil
}

// Create registers a new factory. Codes are unique case-insensitively.
func (s *FactoryService) Create(ctx context.Context, req CreateFactoryRequest) (*models.Factory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid factory payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.CodeExists(ctx, code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check factory code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "factory code already in use")
	}

	factory := &models.Factory{
		ID:           uuid.NewString(),
		Code:         code,
		Name:         req.Name,
		State:        req.State,
		City:         req.City,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Active:       true,
	}

	if err := s.repo.Create(ctx, factory); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create factory")
	}
	return factory, nil
}

// Update modifies factory attributes. The code is immutable after creation.
func (s *FactoryService) Update(ctx context.Context, id string, req UpdateFactoryRequest) (*models.Factory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid factory payload")
	}

	factory, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "factory not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load factory")
	}

	factory.Name = req.Name
	factory.State = req.State
	factory.City = req.City
	factory.ContactName = req.ContactName
	factory.ContactPhone = req.ContactPhone
	if req.Active != nil {
		factory.Active = *req.Active
	}

	if err := s.repo.Update(ctx, factory); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update factory")
	}
	return factory, nil
}

// Delete deactivates a factory.
func (s *FactoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "factory not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load factory")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate factory")
	}
	return nil
}

// CodeAvailable reports whether a factory code is free to use. Backs the
// client's debounced uniqueness check while typing.
func (s *FactoryService) CodeAvailable(ctx context.Context, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}
	exists, err := s.repo.CodeExists(ctx, code, "")
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check factory code")
	}
	return !exists, nil
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
