package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/repository"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type replacementRepository interface {
	List(ctx context.Context, filter models.ReplacementFilter) ([]models.ReplacementRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.ReplacementRequest, error)
	Create(ctx context.Context, request *models.ReplacementRequest) error
	Transition(ctx context.Context, params repository.TransitionParams) error
	ReplaceParts(ctx context.Context, requestID string, parts []models.RepairedPart) error
}

type replacementSaleReader interface {
	FindByID(ctx context.Context, id string) (*models.Sale, error)
}

type replacementProductReader interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type technicianCandidateReader interface {
	FindByID(ctx context.Context, id string) (*models.Technician, error)
	ListActive(ctx context.Context) ([]models.Technician, error)
}

type billingReader interface {
	GetByScope(ctx context.Context, scope models.BillingScope) (*models.BillingCharges, error)
}

type replacementAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ReplacementService drives the warranty claim lifecycle from complaint to
// completion, including technician assignment and advisory billing.
type ReplacementService struct {
	claims      replacementRepository
	sales       replacementSaleReader
	products    replacementProductReader
	catalog     productModelReader
	customers   customerRepository
	technicians technicianCandidateReader
	billing     billingReader
	audit       replacementAuditWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReplacementService constructs a ReplacementService.
func NewReplacementService(
	claims replacementRepository,
	sales replacementSaleReader,
	products replacementProductReader,
	catalog productModelReader,
	customers customerRepository,
	technicians technicianCandidateReader,
	billing billingReader,
	audit replacementAuditWriter,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReplacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReplacementService{
		claims:      claims,
		sales:       sales,
		products:    products,
		catalog:     catalog,
		customers:   customers,
		technicians: technicians,
		billing:     billing,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// List returns paginated replacement requests. Role scoping arrives through
// the filter: customers see their own claims, technicians their assignments.
func (s *ReplacementService) List(ctx context.Context, filter models.ReplacementFilter) ([]models.ReplacementRequest, *models.Pagination, error) {
	requests, total, err := s.claims.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replacement requests")
	}
	return requests, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a replacement request decorated with its advisory bill when
// the claim has a recorded outcome.
func (s *ReplacementService) Get(ctx context.Context, id string) (*dto.ReplacementDetail, error) {
	request, err := s.claims.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "replacement request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replacement request")
	}

	detail := &dto.ReplacementDetail{ReplacementRequest: *request}
	if request.ServiceOutcome != nil {
		bill, err := s.computeBill(ctx, request)
		if err != nil {
			s.logger.Warn("failed to compute advisory bill", zap.String("request_id", id), zap.Error(err))
		} else {
			detail.Bill = bill
		}
	}
	return detail, nil
}

// Create files a customer complaint against a sold product. The warranty is
// evaluated once, here, and the verdict rides with the claim permanently.
func (s *ReplacementService) Create(ctx context.Context, req dto.CreateReplacementRequest, customerUserID string, mediaURL *string) (*models.ReplacementRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid replacement payload")
	}

	customer, err := s.customers.FindByUserID(ctx, customerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no customer profile for user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}

	sale, err := s.sales.FindByID(ctx, req.SaleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown sale")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}
	if sale.CustomerID != customer.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "sale does not belong to customer")
	}
	if sale.ProductID != req.ProductID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sale does not match product")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown product")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}

	model, err := s.catalog.FindByID(ctx, product.ModelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product model")
	}

	snapshot := sale.WarrantyAt(time.Now().UTC(), model.WarrantyMonths)

	request := &models.ReplacementRequest{
		ID:                   uuid.NewString(),
		ProductID:            req.ProductID,
		SaleID:               req.SaleID,
		CustomerID:           customer.ID,
		Status:               models.ReplacementPending,
		ComplaintDescription: req.ComplaintDescription,
		MediaURL:             mediaURL,
		PreferredVisitDate:   req.PreferredVisitDate,
		InWarranty:           snapshot.InWarranty,
		WarrantyExpiry:       snapshot.ExpiresAt,
	}

	if err := s.claims.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create replacement request")
	}
	return request, nil
}

// Candidates partitions active technicians for a pending claim into those
// closest to the customer (same state and city, compared case-insensitively)
// and the rest. The two groups never overlap.
func (s *ReplacementService) Candidates(ctx context.Context, id string) (*dto.TechnicianCandidates, error) {
	request, err := s.claims.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "replacement request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replacement request")
	}

	customer, err := s.customers.FindByID(ctx, request.CustomerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}

	technicians, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list technicians")
	}

	candidates := &dto.TechnicianCandidates{
		Closest: []models.Technician{},
		Other:   []models.Technician{},
	}
	for _, technician := range technicians {
		if strings.EqualFold(technician.State, customer.State) && strings.EqualFold(technician.City, customer.City) {
			candidates.Closest = append(candidates.Closest, technician)
		} else {
			candidates.Other = append(candidates.Other, technician)
		}
	}
	return candidates, nil
}

// Approve accepts a pending claim and assigns its technician in one guarded
// update, so the claim lands directly in ASSIGNED. A claim is never left
// approved without a technician.
func (s *ReplacementService) Approve(ctx context.Context, id string, req dto.ApproveReplacementRequest, actorID string) (*models.ReplacementRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "technician is required to approve")
	}

	// Approval is the PENDING -> APPROVED edge; assignment follows in the
	// same write so a bare APPROVED state is never observable.
	request, err := s.loadForTransition(ctx, id, models.ReplacementApproved)
	if err != nil {
		return nil, err
	}

	technician, err := s.technicians.FindByID(ctx, req.TechnicianID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown technician")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
	}
	if !technician.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "technician is not active")
	}

	now := time.Now().UTC()
	params := repository.TransitionParams{
		ID:           request.ID,
		From:         models.ReplacementPending,
		To:           models.ReplacementAssigned,
		TechnicianID: &technician.ID,
		DecidedBy:    &actorID,
		DecidedAt:    &now,
	}
	if err := s.applyTransition(ctx, request, params, actorID); err != nil {
		return nil, err
	}
	request.TechnicianID = &technician.ID
	request.DecidedBy = &actorID
	request.DecidedAt = &now
	return request, nil
}

// Reject declines a pending claim with a reason. REJECTED is terminal.
func (s *ReplacementService) Reject(ctx context.Context, id string, req dto.RejectReplacementRequest, actorID string) (*models.ReplacementRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	request, err := s.loadForTransition(ctx, id, models.ReplacementRejected)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	params := repository.TransitionParams{
		ID:              request.ID,
		From:            models.ReplacementPending,
		To:              models.ReplacementRejected,
		DecidedBy:       &actorID,
		DecidedAt:       &now,
		RejectionReason: &req.Reason,
	}
	if err := s.applyTransition(ctx, request, params, actorID); err != nil {
		return nil, err
	}
	request.DecidedBy = &actorID
	request.DecidedAt = &now
	request.RejectionReason = &req.Reason
	return request, nil
}

// Start marks an assigned claim as in progress. Only the assigned
// technician may start the visit.
func (s *ReplacementService) Start(ctx context.Context, id string, technicianID string) (*models.ReplacementRequest, error) {
	request, err := s.loadForTransition(ctx, id, models.ReplacementInProgress)
	if err != nil {
		return nil, err
	}

	if request.TechnicianID == nil || *request.TechnicianID != technicianID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "claim is not assigned to this technician")
	}

	now := time.Now().UTC()
	params := repository.TransitionParams{
		ID:        request.ID,
		From:      models.ReplacementAssigned,
		To:        models.ReplacementInProgress,
		StartedAt: &now,
	}
	if err := s.applyTransition(ctx, request, params, technicianID); err != nil {
		return nil, err
	}
	request.StartedAt = &now
	return request, nil
}

// SubmitDiagnosis records the technician's service report. A REPAIRED
// outcome completes the claim; REPLACEMENT_REQUIRED parks it for an admin
// to close once the physical swap is done.
func (s *ReplacementService) SubmitDiagnosis(ctx context.Context, id string, req dto.SubmitDiagnosisRequest, technicianID string) (*dto.ReplacementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid diagnosis payload")
	}

	target := models.ReplacementCompleted
	if req.Outcome == models.OutcomeReplacementRequired {
		target = models.ReplacementRequired
	}

	request, err := s.loadForTransition(ctx, id, target)
	if err != nil {
		return nil, err
	}

	if request.TechnicianID == nil || *request.TechnicianID != technicianID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "claim is not assigned to this technician")
	}

	now := time.Now().UTC()
	outcome := req.Outcome
	params := repository.TransitionParams{
		ID:             request.ID,
		From:           models.ReplacementInProgress,
		To:             target,
		ServiceOutcome: &outcome,
	}
	if req.DiagnosisNotes != "" {
		params.DiagnosisNotes = &req.DiagnosisNotes
	}
	if target == models.ReplacementCompleted {
		params.CompletedAt = &now
	}

	if err := s.applyTransition(ctx, request, params, technicianID); err != nil {
		return nil, err
	}

	parts := make([]models.RepairedPart, 0, len(req.RepairedParts))
	for _, part := range req.RepairedParts {
		parts = append(parts, models.RepairedPart{Name: part.Name, Cost: part.Cost})
	}
	if err := s.claims.ReplaceParts(ctx, request.ID, parts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record repaired parts")
	}

	request.ServiceOutcome = &outcome
	request.DiagnosisNotes = params.DiagnosisNotes
	request.CompletedAt = params.CompletedAt
	request.RepairedParts = parts

	detail := &dto.ReplacementDetail{ReplacementRequest: *request}
	bill, err := s.computeBill(ctx, request)
	if err != nil {
		s.logger.Warn("failed to compute advisory bill", zap.String("request_id", id), zap.Error(err))
	} else {
		detail.Bill = bill
	}
	return detail, nil
}

// Close completes a claim parked in REPLACEMENT_REQUIRED after the unit
// swap has been carried out.
func (s *ReplacementService) Close(ctx context.Context, id string, actorID string) (*models.ReplacementRequest, error) {
	request, err := s.loadForTransition(ctx, id, models.ReplacementCompleted)
	if err != nil {
		return nil, err
	}
	if request.Status != models.ReplacementRequired {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot close claim in %s", request.Status))
	}

	now := time.Now().UTC()
	params := repository.TransitionParams{
		ID:          request.ID,
		From:        models.ReplacementRequired,
		To:          models.ReplacementCompleted,
		CompletedAt: &now,
	}
	if err := s.applyTransition(ctx, request, params, actorID); err != nil {
		return nil, err
	}
	request.CompletedAt = &now
	return request, nil
}

func (s *ReplacementService) loadForTransition(ctx context.Context, id string, to models.ReplacementStatus) (*models.ReplacementRequest, error) {
	request, err := s.claims.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "replacement request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replacement request")
	}
	if !models.CanTransitionReplacement(request.Status, to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move claim from %s to %s", request.Status, to))
	}
	return request, nil
}

func (s *ReplacementService) applyTransition(ctx context.Context, request *models.ReplacementRequest, params repository.TransitionParams, actorID string) error {
	if err := s.claims.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "claim was modified concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition claim")
	}

	previous := request.Status
	request.Status = params.To

	action := models.AuditActionReplacementService
	if params.To == models.ReplacementAssigned || params.To == models.ReplacementRejected {
		action = models.AuditActionReplacementDecide
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"status": previous})
	newPayload, _ := json.Marshal(map[string]interface{}{"status": request.Status})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "replacement_requests",
		ResourceID: &request.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}); err != nil {
		s.logger.Warn("failed to record claim transition audit log", zap.Error(err))
	}
	return nil
}

// computeBill derives the advisory charge breakdown for a claim. In-warranty
// work is always free; out-of-warranty repairs charge the configured service
// and replacement fees plus the recorded parts. Nothing here is persisted.
func (s *ReplacementService) computeBill(ctx context.Context, request *models.ReplacementRequest) (*dto.ReplacementBill, error) {
	scope := models.BillingOutOfWarranty
	if request.InWarranty {
		scope = models.BillingInWarranty
	}

	charges, err := s.billing.GetByScope(ctx, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			charges = &models.BillingCharges{Scope: scope}
		} else {
			return nil, err
		}
	}

	var partsTotal float64
	for _, part := range request.RepairedParts {
		partsTotal += part.Cost
	}

	bill := &dto.ReplacementBill{
		InWarranty: request.InWarranty,
		TncURL:     charges.TncURL,
	}
	if !request.InWarranty {
		bill.ServiceCharge = charges.ServiceCharge
		bill.ReplacementCharge = charges.ReplacementCharge
		bill.PartsTotal = partsTotal
		bill.Total = charges.ServiceCharge + charges.ReplacementCharge + partsTotal
	}
	return bill, nil
}
