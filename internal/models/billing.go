package models

import "time"

// BillingScope distinguishes in-warranty from out-of-warranty charges.
type BillingScope string

const (
	BillingInWarranty    BillingScope = "IN_WARRANTY"
	BillingOutOfWarranty BillingScope = "OUT_OF_WARRANTY"
)

// BillingCharges holds the configured charges for one warranty scope.
type BillingCharges struct {
	Scope             BillingScope `db:"scope" json:"scope"`
	ServiceCharge     float64      `db:"service_charge" json:"service_charge"`
	ReplacementCharge float64      `db:"replacement_charge" json:"replacement_charge"`
	TncURL            string       `db:"tnc_url" json:"tnc_url"`
	UpdatedBy         *string      `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}
