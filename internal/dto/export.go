package dto

import (
	"time"

	"github.com/veloca-labs/mds-api/internal/models"
)

// CreateExportRequest enqueues an export job.
type CreateExportRequest struct {
	Entity string              `json:"entity" validate:"required,oneof=factories technicians replacements"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports job progress plus a signed download token once
// the file is ready.
type ExportJobResponse struct {
	models.ExportJob
	DownloadToken string     `json:"download_token,omitempty"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
}
