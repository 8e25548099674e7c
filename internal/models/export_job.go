package models

import "time"

// ExportJobStatus tracks async export generation.
type ExportJobStatus string

const (
	ExportQueued    ExportJobStatus = "QUEUED"
	ExportRunning   ExportJobStatus = "RUNNING"
	ExportCompleted ExportJobStatus = "COMPLETED"
	ExportFailed    ExportJobStatus = "FAILED"
)

// ExportFormat enumerates supported output formats.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportJob records a requested export and its produced file.
type ExportJob struct {
	ID          string          `db:"id" json:"id"`
	Entity      string          `db:"entity" json:"entity"`
	Format      ExportFormat    `db:"format" json:"format"`
	Status      ExportJobStatus `db:"status" json:"status"`
	FilePath    *string         `db:"file_path" json:"file_path,omitempty"`
	Error       *string         `db:"error" json:"error,omitempty"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
