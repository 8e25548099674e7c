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

type technicianRepository interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
	ListActive(ctx context.Context) ([]models.Technician, error)
	FindByID(ctx context.Context, id string) (*models.Technician, error)
	CodeExists(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, technician *models.Technician) error
	Update(ctx context.Context, technician *models.Technician) error
	Deactivate(ctx context.Context, id string) error
}

// CreateTechnicianRequest is the payload for registering a technician.
type CreateTechnicianRequest struct {
	Code     string `json:"code" validate:"required,min=2,max=32"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	State    string `json:"state" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// UpdateTechnicianRequest is the payload for modifying a technician.
type UpdateTechnicianRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	State    string `json:"state" validate:"required"`
	City     string `json:"city" validate:"required"`
	Active   *bool  `json:"active"`
}

// TechnicianService handles technician master data workflows.
type TechnicianService struct {
	repo      technicianRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTechnicianService creates an instance of TechnicianService.
func NewTechnicianService(repo technicianRepository, validate *validator.Validate, logger *zap.Logger) *TechnicianService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TechnicianService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated technicians.
func (s *TechnicianService) List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, *models.Pagination, error) {
	technicians, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list technicians")
	}
	return technicians, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a technician by ID.
func (s *TechnicianService) Get(ctx context.Context, id string) (*models.Technician, error) {
	technician, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
	}
	return technician, nil
}

// Create registers a new technician.
func (s *TechnicianService) Create(ctx context.Context, req CreateTechnicianRequest) (*models.Technician, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid technician payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.CodeExists(ctx, code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check technician code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "technician code already in use")
	}

	technician := &models.Technician{
		ID:       uuid.NewString(),
		Code:     code,
		FullName: req.FullName,
		Phone:    req.Phone,
		State:    req.State,
		City:     req.City,
		Active:   true,
	}

	if err := s.repo.Create(ctx, technician); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create technician")
	}
	return technician, nil
}

// Update modifies a technician.
func (s *TechnicianService) Update(ctx context.Context, id string, req UpdateTechnicianRequest) (*models.Technician, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid technician payload")
	}

	technician, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
	}

	technician.FullName = req.FullName
	technician.Phone = req.Phone
	technician.State = req.State
	technician.City = req.City
	if req.Active != nil {
		technician.Active = *req.Active
	}

	if err := s.repo.Update(ctx, technician); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update technician")
	}
	return technician, nil
}

// CodeAvailable reports whether a technician code is free to use.
func (s *TechnicianService) CodeAvailable(ctx context.Context, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}
	exists, err := s.repo.CodeExists(ctx, code, "")
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check technician code")
	}
	return !exists, nil
}

// Delete deactivates a technician so it no longer appears as a candidate.
func (s *TechnicianService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate technician")
	}
	return nil
}
