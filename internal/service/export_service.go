package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
	"github.com/veloca-labs/mds-api/pkg/export"
	"github.com/veloca-labs/mds-api/pkg/jobs"
	"github.com/veloca-labs/mds-api/pkg/storage"
)

type exportJobRepository interface {
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	ListByRequester(ctx context.Context, userID string, limit int) ([]models.ExportJob, error)
	Create(ctx context.Context, job *models.ExportJob) error
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, message string) error
}

type exportFactoryLister interface {
	List(ctx context.Context, filter models.FactoryFilter) ([]models.Factory, int, error)
}

type exportTechnicianLister interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
}

type exportReplacementLister interface {
	List(ctx context.Context, filter models.ReplacementFilter) ([]models.ReplacementRequest, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL time.Duration
	ListLimit int
}

// ExportService generates CSV and PDF report files asynchronously. Jobs are
// persisted, handed to the queue, and downloaded later through signed tokens.
type ExportService struct {
	repo         exportJobRepository
	factories    exportFactoryLister
	technicians  exportTechnicianLister
	replacements exportReplacementLister
	storage      fileStorage
	queue        exportEnqueuer
	csv          csvRenderer
	pdf          pdfRenderer
	signer       *storage.SignedURLSigner
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          ExportConfig
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Repo         exportJobRepository
	Factories    exportFactoryLister
	Technicians  exportTechnicianLister
	Replacements exportReplacementLister
	Storage      fileStorage
	Signer       *storage.SignedURLSigner
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	Config       ExportConfig
	CSV          csvRenderer
	PDF          pdfRenderer
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 20
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		repo:         params.Repo,
		factories:    params.Factories,
		technicians:  params.Technicians,
		replacements: params.Replacements,
		storage:      params.Storage,
		csv:          csv,
		pdf:          pdf,
		signer:       params.Signer,
		metrics:      params.Metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// AttachQueue wires the background queue. Called once at startup after the
// queue is built around this service's Process handler.
func (s *ExportService) AttachQueue(queue exportEnqueuer) {
	s.queue = queue
}

// Enqueue persists a new export job and schedules it for processing.
func (s *ExportService) Enqueue(ctx context.Context, req dto.CreateExportRequest, userID string) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue unavailable")
	}

	job := &models.ExportJob{
		Entity:      req.Entity,
		Format:      req.Format,
		Status:      models.ExportQueued,
		RequestedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "export"}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Process runs one queued export job. It is the queue's handler.
func (s *ExportService) Process(ctx context.Context, queued jobs.Job) error {
	start := time.Now()

	job, err := s.repo.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status == models.ExportCompleted || job.Status == models.ExportFailed {
		return nil
	}
	if err := s.repo.MarkRunning(ctx, job.ID); err != nil {
		s.logger.Warn("failed to mark export job running", zap.String("job_id", job.ID), zap.Error(err))
	}

	relPath, err := s.generate(ctx, job)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if markErr := s.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
	} else if markErr := s.repo.MarkCompleted(ctx, job.ID, relPath); markErr != nil {
		s.logger.Warn("failed to mark export job completed", zap.String("job_id", job.ID), zap.Error(markErr))
	}

	s.metrics.ObserveExportJob(job.Entity, string(job.Format), outcome, time.Since(start))
	return err
}

// Status returns job progress. Completed jobs carry a signed download token.
func (s *ExportService) Status(ctx context.Context, jobID, userID string, isAdmin bool) (*dto.ExportJobResponse, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if !isAdmin && job.RequestedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}

	response := &dto.ExportJobResponse{ExportJob: *job}
	if job.Status == models.ExportCompleted && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign export download token", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			response.DownloadToken = token
			response.TokenExpires = &expiresAt
		}
	}
	return response, nil
}

// ListJobs returns the caller's recent export jobs.
func (s *ExportService) ListJobs(ctx context.Context, userID string) ([]models.ExportJob, error) {
	exportJobs, err := s.repo.ListByRequester(ctx, userID, s.cfg.ListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return exportJobs, nil
}

// OpenByToken validates a signed token and opens the referenced file.
func (s *ExportService) OpenByToken(token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		s.logger.Warn("failed to open export file", zap.String("job_id", jobID), zap.Error(err))
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, relPath, nil
}

// Cleanup removes expired export artifacts.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	dataset, title, err := s.buildDataset(ctx, job.Entity)
	if err != nil {
		return "", err
	}

	var payload []byte
	switch job.Format {
	case models.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.FormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return "", err
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", strings.ToLower(job.Entity), timestamp, job.Format)
	return s.storage.Save(filename, payload)
}

func (s *ExportService) buildDataset(ctx context.Context, entity string) (export.Dataset, string, error) {
	switch entity {
	case "factories":
		return s.buildFactoryDataset(ctx)
	case "technicians":
		return s.buildTechnicianDataset(ctx)
	case "replacements":
		return s.buildReplacementDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export entity %s", entity)
	}
}

func (s *ExportService) buildFactoryDataset(ctx context.Context) (export.Dataset, string, error) {
	rows, _, err := s.factories.List(ctx, models.FactoryFilter{Page: 1, PageSize: exportPageSize})
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Code":    row.Code,
			"Name":    row.Name,
			"State":   row.State,
			"City":    row.City,
			"Contact": row.ContactName,
			"Active":  fmt.Sprintf("%t", row.Active),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Code", "Name", "State", "City", "Contact", "Active"},
		Rows:    dataRows,
	}
	return dataset, "Factories", nil
}

func (s *ExportService) buildTechnicianDataset(ctx context.Context) (export.Dataset, string, error) {
	rows, _, err := s.technicians.List(ctx, models.TechnicianFilter{Page: 1, PageSize: exportPageSize})
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Code":   row.Code,
			"Name":   row.FullName,
			"Phone":  row.Phone,
			"State":  row.State,
			"City":   row.City,
			"Active": fmt.Sprintf("%t", row.Active),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Code", "Name", "Phone", "State", "City", "Active"},
		Rows:    dataRows,
	}
	return dataset, "Technicians", nil
}

func (s *ExportService) buildReplacementDataset(ctx context.Context) (export.Dataset, string, error) {
	rows, _, err := s.replacements.List(ctx, models.ReplacementFilter{Page: 1, PageSize: exportPageSize})
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		outcome := ""
		if row.ServiceOutcome != nil {
			outcome = string(*row.ServiceOutcome)
		}
		dataRows = append(dataRows, map[string]string{
			"ID":          row.ID,
			"Status":      string(row.Status),
			"In Warranty": fmt.Sprintf("%t", row.InWarranty),
			"Outcome":     outcome,
			"Created At":  row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Status", "In Warranty", "Outcome", "Created At"},
		Rows:    dataRows,
	}
	return dataset, "Replacement Requests", nil
}

const exportPageSize = 100
