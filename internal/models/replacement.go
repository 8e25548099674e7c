package models

import "time"

// ReplacementStatus tracks a warranty/service claim through its lifecycle.
type ReplacementStatus string

const (
	ReplacementPending    ReplacementStatus = "PENDING"
	ReplacementApproved   ReplacementStatus = "APPROVED"
	ReplacementRejected   ReplacementStatus = "REJECTED"
	ReplacementAssigned   ReplacementStatus = "ASSIGNED"
	ReplacementInProgress ReplacementStatus = "IN_PROGRESS"
	ReplacementRequired   ReplacementStatus = "REPLACEMENT_REQUIRED"
	ReplacementCompleted  ReplacementStatus = "COMPLETED"
)

// ServiceOutcome is the technician's diagnosis result.
type ServiceOutcome string

const (
	OutcomeRepaired            ServiceOutcome = "REPAIRED"
	OutcomeReplacementRequired ServiceOutcome = "REPLACEMENT_REQUIRED"
)

// replacementTransitions is the allowed edge set of the claim lifecycle.
// REJECTED and COMPLETED are terminal and have no outgoing edges.
var replacementTransitions = map[ReplacementStatus][]ReplacementStatus{
	ReplacementPending:    {ReplacementApproved, ReplacementRejected},
	ReplacementApproved:   {ReplacementAssigned},
	ReplacementAssigned:   {ReplacementInProgress},
	ReplacementInProgress: {ReplacementRequired, ReplacementCompleted},
	ReplacementRequired:   {ReplacementCompleted},
}

// CanTransitionReplacement reports whether moving between the two statuses
// follows the lifecycle graph.
func CanTransitionReplacement(from, to ReplacementStatus) bool {
	for _, next := range replacementTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalReplacement reports whether the status has no outgoing edges.
func IsTerminalReplacement(status ReplacementStatus) bool {
	return len(replacementTransitions[status]) == 0
}

// RepairedPart is a part replaced during a repair, priced for billing.
type RepairedPart struct {
	ID            string  `db:"id" json:"id"`
	ReplacementID string  `db:"replacement_id" json:"replacement_id"`
	Name          string  `db:"name" json:"name"`
	Cost          float64 `db:"cost" json:"cost"`
}

// ReplacementRequest is a customer-initiated service/warranty claim.
//
// The warranty snapshot is captured once at creation so later billing is
// judged against the state of the warranty when the complaint was raised,
// not when the technician closes it.
type ReplacementRequest struct {
	ID                   string            `db:"id" json:"id"`
	ProductID            string            `db:"product_id" json:"product_id"`
	SaleID               string            `db:"sale_id" json:"sale_id"`
	CustomerID           string            `db:"customer_id" json:"customer_id"`
	Status               ReplacementStatus `db:"status" json:"status"`
	ComplaintDescription string            `db:"complaint_description" json:"complaint_description"`
	MediaURL             *string           `db:"media_url" json:"media_url,omitempty"`
	PreferredVisitDate   *time.Time        `db:"preferred_visit_date" json:"preferred_visit_date,omitempty"`
	InWarranty           bool              `db:"in_warranty" json:"in_warranty"`
	WarrantyExpiry       time.Time         `db:"warranty_expiry" json:"warranty_expiry"`
	TechnicianID         *string           `db:"technician_id" json:"technician_id,omitempty"`
	DecidedBy            *string           `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt            *time.Time        `db:"decided_at" json:"decided_at,omitempty"`
	RejectionReason      *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ServiceOutcome       *ServiceOutcome   `db:"service_outcome" json:"service_outcome,omitempty"`
	DiagnosisNotes       *string           `db:"diagnosis_notes" json:"diagnosis_notes,omitempty"`
	StartedAt            *time.Time        `db:"started_at" json:"started_at,omitempty"`
	CompletedAt          *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt            time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updated_at"`

	RepairedParts []RepairedPart `db:"-" json:"repaired_parts,omitempty"`
}

// ReplacementFilter captures filtering criteria for listing requests.
type ReplacementFilter struct {
	Status       []ReplacementStatus
	CustomerID   string
	TechnicianID string
	ProductID    string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
