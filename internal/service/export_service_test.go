package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
	"github.com/veloca-labs/mds-api/pkg/jobs"
	"github.com/veloca-labs/mds-api/pkg/storage"
)

type mockExportJobRepo struct {
	byID map[string]*models.ExportJob
}

func newMockExportJobRepo(exportJobs ...*models.ExportJob) *mockExportJobRepo {
	repo := &mockExportJobRepo{byID: make(map[string]*models.ExportJob)}
	for _, job := range exportJobs {
		repo.byID[job.ID] = job
	}
	return repo
}

func (m *mockExportJobRepo) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (m *mockExportJobRepo) ListByRequester(_ context.Context, userID string, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range m.byID {
		if job.RequestedBy == userID && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockExportJobRepo) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	m.byID[job.ID] = job
	return nil
}

func (m *mockExportJobRepo) MarkRunning(_ context.Context, id string) error {
	if job, ok := m.byID[id]; ok {
		job.Status = models.ExportRunning
	}
	return nil
}

func (m *mockExportJobRepo) MarkCompleted(_ context.Context, id, filePath string) error {
	if job, ok := m.byID[id]; ok {
		job.Status = models.ExportCompleted
		job.FilePath = &filePath
	}
	return nil
}

func (m *mockExportJobRepo) MarkFailed(_ context.Context, id, message string) error {
	if job, ok := m.byID[id]; ok {
		job.Status = models.ExportFailed
		job.Error = &message
	}
	return nil
}

type mockExportQueue struct {
	enqueued   []jobs.Job
	enqueueErr error
}

func (m *mockExportQueue) Enqueue(job jobs.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type stubFactoryLister struct{ factories []models.Factory }

func (s *stubFactoryLister) List(_ context.Context, _ models.FactoryFilter) ([]models.Factory, int, error) {
	return s.factories, len(s.factories), nil
}

type stubTechnicianLister struct{}

func (s *stubTechnicianLister) List(_ context.Context, _ models.TechnicianFilter) ([]models.Technician, int, error) {
	return nil, 0, nil
}

type stubReplacementLister struct{ err error }

func (s *stubReplacementLister) List(_ context.Context, _ models.ReplacementFilter) ([]models.ReplacementRequest, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return nil, 0, nil
}

func buildExportService(t *testing.T, repo *mockExportJobRepo, queue *mockExportQueue) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewExportService(ExportServiceParams{
		Repo:         repo,
		Factories:    &stubFactoryLister{factories: []models.Factory{{Code: "F-001", Name: "North Plant", State: "KA", City: "Bengaluru", Active: true}}},
		Technicians:  &stubTechnicianLister{},
		Replacements: &stubReplacementLister{},
		Storage:      store,
		Signer:       storage.NewSignedURLSigner("test-secret", time.Hour),
		Logger:       zap.NewNop(),
	})
	if queue != nil {
		svc.AttachQueue(queue)
	}
	return svc
}

func TestExportEnqueuePersistsAndQueues(t *testing.T) {
	repo := newMockExportJobRepo()
	queue := &mockExportQueue{}
	svc := buildExportService(t, repo, queue)

	job, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Entity: "factories",
		Format: models.FormatCSV,
	}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExportQueued, job.Status)
	assert.Equal(t, "admin-1", job.RequestedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
}

func TestExportEnqueueRejectsUnknownEntity(t *testing.T) {
	svc := buildExportService(t, newMockExportJobRepo(), &mockExportQueue{})

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Entity: "invoices",
		Format: models.FormatCSV,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportEnqueueWithoutQueue(t *testing.T) {
	svc := buildExportService(t, newMockExportJobRepo(), nil)

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Entity: "factories",
		Format: models.FormatCSV,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestExportEnqueueQueueFailureMarksJobFailed(t *testing.T) {
	repo := newMockExportJobRepo()
	queue := &mockExportQueue{enqueueErr: errors.New("queue stopped")}
	svc := buildExportService(t, repo, queue)

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Entity: "factories",
		Format: models.FormatCSV,
	}, "admin-1")
	require.Error(t, err)

	require.Len(t, repo.byID, 1)
	for _, job := range repo.byID {
		assert.Equal(t, models.ExportFailed, job.Status)
	}
}

func TestExportProcessCompletesCSVJob(t *testing.T) {
	job := &models.ExportJob{ID: "j1", Entity: "factories", Format: models.FormatCSV, Status: models.ExportQueued, RequestedBy: "admin-1"}
	repo := newMockExportJobRepo(job)
	svc := buildExportService(t, repo, &mockExportQueue{})

	err := svc.Process(context.Background(), jobs.Job{ID: "j1", Type: "export"})
	require.NoError(t, err)

	assert.Equal(t, models.ExportCompleted, job.Status)
	require.NotNil(t, job.FilePath)

	// The produced file is downloadable through a signed token.
	resp, err := svc.Status(context.Background(), "j1", "admin-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.DownloadToken)

	file, filename, err := svc.OpenByToken(resp.DownloadToken)
	require.NoError(t, err)
	defer file.Close()
	assert.Contains(t, filename, ".csv")
}

func TestExportProcessPDFJob(t *testing.T) {
	job := &models.ExportJob{ID: "j1", Entity: "technicians", Format: models.FormatPDF, Status: models.ExportQueued, RequestedBy: "admin-1"}
	repo := newMockExportJobRepo(job)
	svc := buildExportService(t, repo, &mockExportQueue{})

	err := svc.Process(context.Background(), jobs.Job{ID: "j1", Type: "export"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportCompleted, job.Status)
}

func TestExportProcessFailureMarksFailed(t *testing.T) {
	job := &models.ExportJob{ID: "j1", Entity: "replacements", Format: models.FormatCSV, Status: models.ExportQueued, RequestedBy: "admin-1"}
	repo := newMockExportJobRepo(job)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewExportService(ExportServiceParams{
		Repo:         repo,
		Factories:    &stubFactoryLister{},
		Technicians:  &stubTechnicianLister{},
		Replacements: &stubReplacementLister{err: errors.New("database unavailable")},
		Storage:      store,
		Signer:       storage.NewSignedURLSigner("test-secret", time.Hour),
		Logger:       zap.NewNop(),
	})

	err = svc.Process(context.Background(), jobs.Job{ID: "j1", Type: "export"})
	require.Error(t, err)
	assert.Equal(t, models.ExportFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "database unavailable")
}

func TestExportProcessSkipsFinishedJob(t *testing.T) {
	job := &models.ExportJob{ID: "j1", Entity: "factories", Format: models.FormatCSV, Status: models.ExportCompleted}
	repo := newMockExportJobRepo(job)
	svc := buildExportService(t, repo, &mockExportQueue{})

	err := svc.Process(context.Background(), jobs.Job{ID: "j1", Type: "export"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportCompleted, job.Status)
}

func TestExportStatusIncludesSignedToken(t *testing.T) {
	filePath := "factories_20260101_000000.csv"
	job := &models.ExportJob{ID: "j1", Entity: "factories", Format: models.FormatCSV, Status: models.ExportCompleted, RequestedBy: "admin-1", FilePath: &filePath}
	svc := buildExportService(t, newMockExportJobRepo(job), &mockExportQueue{})

	resp, err := svc.Status(context.Background(), "j1", "admin-1", false)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.DownloadToken)
	require.NotNil(t, resp.TokenExpires)
	assert.True(t, resp.TokenExpires.After(time.Now()))
}

func TestExportStatusQueuedJobHasNoToken(t *testing.T) {
	job := &models.ExportJob{ID: "j1", Entity: "factories", Format: models.FormatCSV, Status: models.ExportQueued, RequestedBy: "admin-1"}
	svc := buildExportService(t, newMockExportJobRepo(job), &mockExportQueue{})

	resp, err := svc.Status(context.Background(), "j1", "admin-1", false)
	require.NoError(t, err)
	assert.Empty(t, resp.DownloadToken)
}

func TestExportStatusOwnership(t *testing.T) {
	job := &models.ExportJob{ID: "j1", Entity: "factories", Format: models.FormatCSV, Status: models.ExportQueued, RequestedBy: "admin-1"}
	svc := buildExportService(t, newMockExportJobRepo(job), &mockExportQueue{})

	_, err := svc.Status(context.Background(), "j1", "someone-else", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Admins can inspect any job.
	_, err = svc.Status(context.Background(), "j1", "someone-else", true)
	require.NoError(t, err)
}

func TestExportOpenByTokenRejectsTampering(t *testing.T) {
	svc := buildExportService(t, newMockExportJobRepo(), &mockExportQueue{})

	_, _, err := svc.OpenByToken("j1.9999999999.bm9wZQ.deadbeef")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportListJobsScopedToRequester(t *testing.T) {
	repo := newMockExportJobRepo(
		&models.ExportJob{ID: "j1", RequestedBy: "admin-1"},
		&models.ExportJob{ID: "j2", RequestedBy: "admin-2"},
	)
	svc := buildExportService(t, repo, &mockExportQueue{})

	got, err := svc.ListJobs(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "j1", got[0].ID)
}
