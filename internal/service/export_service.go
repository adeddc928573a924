package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
	"github.com/noah-isme/uni-adm-api/pkg/export"
)

type defermentLister interface {
	List(ctx context.Context, filter models.DefermentFilter) ([]models.DefermentRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.DefermentRequest, error)
}

type standingFinder interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentStanding, error)
}

// ExportService produces operator-facing downloads: the deferment register
// as CSV and individual approval letters as PDF.
type ExportService struct {
	requests    defermentLister
	standings   standingFinder
	csv         *export.CSVExporter
	letters     *export.LetterRenderer
	institution string
	logger      *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(requests defermentLister, standings standingFinder, institution string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if institution == "" {
		institution = "Office of the Registrar"
	}
	return &ExportService{
		requests:    requests,
		standings:   standings,
		csv:         export.NewCSVExporter(),
		letters:     export.NewLetterRenderer(),
		institution: institution,
		logger:      logger,
	}
}

// DefermentRegisterCSV renders the deferment register for the given filter.
func (s *ExportService) DefermentRegisterCSV(ctx context.Context, filter models.DefermentFilter) ([]byte, string, error) {
	// The register is a full extract, not a page.
	filter.Page = 1
	filter.PageSize = 100

	var rows []map[string]string
	for {
		requests, total, err := s.requests.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deferment requests")
		}
		for _, request := range requests {
			row := map[string]string{
				"Student ID":   request.StudentID,
				"Period":       request.Period,
				"Reason":       request.Reason,
				"Type":         string(request.Type),
				"Status":       string(request.Status),
				"Submitted At": request.SubmittedAt.Format(time.RFC3339),
			}
			if request.ProcessedAt != nil {
				row["Processed At"] = request.ProcessedAt.Format(time.RFC3339)
			}
			rows = append(rows, row)
		}
		if filter.Page*filter.PageSize >= total || len(requests) == 0 {
			break
		}
		filter.Page++
	}

	payload, err := s.csv.Render(export.Dataset{
		Headers: []string{"Student ID", "Period", "Reason", "Type", "Status", "Submitted At", "Processed At"},
		Rows:    rows,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render deferment register")
	}

	filename := fmt.Sprintf("deferment-register-%s.csv", time.Now().UTC().Format("2006-01-02"))
	return payload, filename, nil
}

// ApprovalLetterPDF renders the formal approval letter for a processed
// deferment request.
func (s *ExportService) ApprovalLetterPDF(ctx context.Context, requestID string) ([]byte, string, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "deferment request not found")
	}
	if request.Status != models.DefermentStatusApproved {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidState, "letter is only available for approved deferments")
	}

	paragraphs := []string{
		fmt.Sprintf("This is to confirm that the deferment request submitted by student %s for the %s has been approved.", request.StudentID, request.Period),
		fmt.Sprintf("Reason on record: %s.", request.Reason),
		"For the duration of the deferment the student's academic timeline is paused and no classes, examinations or assessments are expected. Tuition obligations for the deferred period are suspended.",
	}

	if standing, err := s.standings.FindByStudent(ctx, request.StudentID); err == nil && standing.OriginalExpectedCompletion != nil {
		paragraphs = append(paragraphs, fmt.Sprintf("The expected completion year of %d will be revised on reactivation.", *standing.OriginalExpectedCompletion))
	}

	processedOn := time.Now().UTC()
	if request.ProcessedAt != nil {
		processedOn = *request.ProcessedAt
	}

	payload, err := s.letters.Render(export.Letter{
		Institution: s.institution,
		Title:       "Deferment Approval Notice",
		Reference:   request.ID,
		Date:        processedOn.Format("2 January 2006"),
		Recipient:   fmt.Sprintf("Student %s", request.StudentID),
		Paragraphs:  paragraphs,
		SignedBy:    "Academic Records Office",
		SignedRole:  "Registrar",
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render approval letter")
	}

	filename := fmt.Sprintf("deferment-approval-%s.pdf", request.ID)
	return payload, filename, nil
}
