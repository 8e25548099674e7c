package dto

import "github.com/veloca-labs/mds-api/internal/models"

// BillingConfigResponse groups the charges for both warranty scopes.
type BillingConfigResponse struct {
	InWarranty    models.BillingCharges `json:"in_warranty"`
	OutOfWarranty models.BillingCharges `json:"out_of_warranty"`
}

// UpdateBillingChargesRequest updates one warranty scope's charges.
type UpdateBillingChargesRequest struct {
	ServiceCharge     float64 `json:"service_charge" validate:"gte=0"`
	ReplacementCharge float64 `json:"replacement_charge" validate:"gte=0"`
	TncURL            string  `json:"tnc_url" validate:"omitempty,url"`
}
