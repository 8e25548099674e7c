package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type billingRepository interface {
	GetByScope(ctx context.Context, scope models.BillingScope) (*models.BillingCharges, error)
	GetAll(ctx context.Context) ([]models.BillingCharges, error)
	Upsert(ctx context.Context, charges *models.BillingCharges) error
}

// BillingService manages the configured service and replacement charges.
// Charges are configuration, not invoices: bills are derived per claim and
// never stored.
type BillingService struct {
	repo      billingRepository
	audit     replacementAuditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBillingService creates an instance of BillingService.
func NewBillingService(repo billingRepository, audit replacementAuditWriter, validate *validator.Validate, logger *zap.Logger) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BillingService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// GetConfig returns the charges for both warranty scopes. Missing scopes
// come back zeroed rather than erroring.
func (s *BillingService) GetConfig(ctx context.Context) (*dto.BillingConfigResponse, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load billing config")
	}

	response := &dto.BillingConfigResponse{
		InWarranty:    models.BillingCharges{Scope: models.BillingInWarranty},
		OutOfWarranty: models.BillingCharges{Scope: models.BillingOutOfWarranty},
	}
	for _, charges := range all {
		switch charges.Scope {
		case models.BillingInWarranty:
			response.InWarranty = charges
		case models.BillingOutOfWarranty:
			response.OutOfWarranty = charges
		}
	}
	return response, nil
}

// UpdateCharges replaces the charge configuration for one warranty scope.
func (s *BillingService) UpdateCharges(ctx context.Context, scope models.BillingScope, req dto.UpdateBillingChargesRequest, actorID string) (*models.BillingCharges, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid billing payload")
	}
	if scope != models.BillingInWarranty && scope != models.BillingOutOfWarranty {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown billing scope")
	}

	var oldPayload []byte
	if existing, err := s.repo.GetByScope(ctx, scope); err == nil {
		oldPayload, _ = json.Marshal(existing)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load billing config")
	}

	charges := &models.BillingCharges{
		Scope:             scope,
		ServiceCharge:     req.ServiceCharge,
		ReplacementCharge: req.ReplacementCharge,
		TncURL:            req.TncURL,
		UpdatedBy:         &actorID,
	}

	if err := s.repo.Upsert(ctx, charges); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update billing config")
	}

	newPayload, _ := json.Marshal(charges)
	scopeKey := string(scope)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionBillingUpdate,
		Resource:   "billing_charges",
		ResourceID: &scopeKey,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}); err != nil {
		s.logger.Warn("failed to record billing update audit log", zap.Error(err))
	}

	return charges, nil
}
