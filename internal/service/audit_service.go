package service

import (
	"context"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes the append-only audit trail for review.
type AuditService struct {
	logs auditLister
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(logs auditLister) *AuditService {
	return &AuditService{logs: logs}
}

// List returns paginated audit entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, paginationFor(filter.Page, filter.PageSize, total), nil
}
