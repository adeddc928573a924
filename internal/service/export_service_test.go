package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

type defermentListerStub struct {
	requests []models.DefermentRequest
}

func (s *defermentListerStub) List(ctx context.Context, filter models.DefermentFilter) ([]models.DefermentRequest, int, error) {
	return s.requests, len(s.requests), nil
}

func (s *defermentListerStub) FindByID(ctx context.Context, id string) (*models.DefermentRequest, error) {
	for i := range s.requests {
		if s.requests[i].ID == id {
			copy := s.requests[i]
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type standingFinderStub struct {
	standings map[string]*models.StudentStanding
}

func (s *standingFinderStub) FindByStudent(ctx context.Context, studentID string) (*models.StudentStanding, error) {
	if standing, ok := s.standings[studentID]; ok {
		return standing, nil
	}
	return nil, sql.ErrNoRows
}

func TestDefermentRegisterCSV(t *testing.T) {
	processedAt := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	lister := &defermentListerStub{requests: []models.DefermentRequest{
		{
			ID:          "req-1",
			StudentID:   "stu-1",
			Period:      "Second semester of 2024/2025",
			Reason:      "Medical leave",
			Type:        models.DefermentTypeSelfService,
			Status:      models.DefermentStatusApproved,
			SubmittedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
			ProcessedAt: &processedAt,
		},
		{
			ID:          "req-2",
			StudentID:   "stu-2",
			Period:      "First semester of 2025/2026",
			Reason:      "National service",
			Type:        models.DefermentTypeManual,
			Status:      models.DefermentStatusPending,
			SubmittedAt: time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC),
		},
	}}

	svc := NewExportService(lister, &standingFinderStub{}, "", nil)
	payload, filename, err := svc.DefermentRegisterCSV(context.Background(), models.DefermentFilter{})
	require.NoError(t, err)
	require.Contains(t, filename, "deferment-register-")
	require.Contains(t, filename, ".csv")

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Student ID", "Period", "Reason", "Type", "Status", "Submitted At", "Processed At"}, records[0])
	require.Equal(t, "stu-1", records[1][0])
	require.Equal(t, "APPROVED", records[1][4])
	// Pending rows leave the processed column empty.
	require.Equal(t, "", records[2][6])
}

func TestApprovalLetterRequiresApprovedRequest(t *testing.T) {
	lister := &defermentListerStub{requests: []models.DefermentRequest{
		{ID: "req-1", StudentID: "stu-1", Period: "Second semester of 2024/2025", Status: models.DefermentStatusPending},
	}}

	svc := NewExportService(lister, &standingFinderStub{}, "", nil)
	_, _, err := svc.ApprovalLetterPDF(context.Background(), "req-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInvalidState))
}

func TestApprovalLetterUnknownRequest(t *testing.T) {
	svc := NewExportService(&defermentListerStub{}, &standingFinderStub{}, "", nil)
	_, _, err := svc.ApprovalLetterPDF(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestApprovalLetterRendersPDF(t *testing.T) {
	processedAt := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	completion := 2027
	lister := &defermentListerStub{requests: []models.DefermentRequest{
		{
			ID:          "req-1",
			StudentID:   "stu-1",
			Period:      "Second semester of 2024/2025",
			Reason:      "Medical leave",
			Status:      models.DefermentStatusApproved,
			ProcessedAt: &processedAt,
		},
	}}
	standings := &standingFinderStub{standings: map[string]*models.StudentStanding{
		"stu-1": {StudentID: "stu-1", OriginalExpectedCompletion: &completion},
	}}

	svc := NewExportService(lister, standings, "Example University", nil)
	payload, filename, err := svc.ApprovalLetterPDF(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "deferment-approval-req-1.pdf", filename)
	require.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
