package dto

import (
	"time"

	"github.com/veloca-labs/mds-api/internal/models"
)

// CreateReplacementRequest is the customer complaint payload. Media arrives
// as a multipart file and is handled separately by the handler.
type CreateReplacementRequest struct {
	ProductID            string     `json:"product_id" validate:"required"`
	SaleID               string     `json:"sale_id" validate:"required"`
	ComplaintDescription string     `json:"complaint_description" validate:"required,min=10"`
	PreferredVisitDate   *time.Time `json:"preferred_visit_date,omitempty"`
}

// ApproveReplacementRequest approves a pending claim. Approval always
// carries the technician to assign; the two are atomic.
type ApproveReplacementRequest struct {
	TechnicianID string `json:"technician_id" validate:"required"`
}

// RejectReplacementRequest rejects a pending claim with a reason.
type RejectReplacementRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RepairedPartInput is one replaced part with its cost.
type RepairedPartInput struct {
	Name string  `json:"name" validate:"required"`
	Cost float64 `json:"cost" validate:"gte=0"`
}

// SubmitDiagnosisRequest is the technician's service report.
type SubmitDiagnosisRequest struct {
	Outcome        models.ServiceOutcome `json:"outcome" validate:"required,oneof=REPAIRED REPLACEMENT_REQUIRED"`
	DiagnosisNotes string                `json:"diagnosis_notes"`
	RepairedParts  []RepairedPartInput   `json:"repaired_parts"`
}

// TechnicianCandidates partitions assignable technicians by proximity to
// the request's customer. The two groups are disjoint and together cover
// every candidate.
type TechnicianCandidates struct {
	Closest []models.Technician `json:"closest"`
	Other   []models.Technician `json:"other"`
}

// ReplacementBill is the advisory charge breakdown for a claim. It is
// derived on every read and never persisted.
type ReplacementBill struct {
	InWarranty        bool    `json:"in_warranty"`
	ServiceCharge     float64 `json:"service_charge"`
	ReplacementCharge float64 `json:"replacement_charge"`
	PartsTotal        float64 `json:"parts_total"`
	Total             float64 `json:"total"`
	TncURL            string  `json:"tnc_url"`
}

// ReplacementDetail decorates a request with its advisory bill.
type ReplacementDetail struct {
	models.ReplacementRequest
	Bill *ReplacementBill `json:"bill,omitempty"`
}
