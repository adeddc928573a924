package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// AuditRepository appends immutable transition records. Nothing updates or
// deletes rows here except the bulk deferment purge.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository instantiates an audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = "id, operator_id, action, resource, resource_id, old_values, new_values, details, impact, performed_at"

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.PerformedAt.IsZero() {
		log.PerformedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, operator_id, action, resource, resource_id, old_values, new_values, details, impact, performed_at) VALUES (:id, :operator_id, :action, :resource, :resource_id, :old_values, :new_values, :details, :impact, :performed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit entries matching provided filters.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	base := "FROM audit_logs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}
	if filter.ResourceID != "" {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", len(args)+1))
		args = append(args, filter.ResourceID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY performed_at DESC LIMIT %d OFFSET %d", auditColumns, base, size, offset)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	return logs, total, nil
}

// DeleteByActions wipes entries for the given actions. Used only by the
// bulk deferment purge, the sole sanctioned mutation of the trail.
func (r *AuditRepository) DeleteByActions(ctx context.Context, actions []string) error {
	if len(actions) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM audit_logs WHERE action IN (?)`, actions)
	if err != nil {
		return fmt.Errorf("build audit delete: %w", err)
	}
	query = r.db.Rebind(query)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete audit logs by action: %w", err)
	}
	return nil
}
