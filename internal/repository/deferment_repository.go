package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// DefermentRepository handles persistence for deferment requests.
type DefermentRepository struct {
	db *sqlx.DB
}

// NewDefermentRepository instantiates a deferment repository.
func NewDefermentRepository(db *sqlx.DB) *DefermentRepository {
	return &DefermentRepository{db: db}
}

const defermentColumns = "id, student_id, period, reason, type, status, submitted_at, processed_at, processed_by, created_at, updated_at"

// List returns deferment requests matching provided filters.
func (r *DefermentRepository) List(ctx context.Context, filter models.DefermentFilter) ([]models.DefermentRequest, int, error) {
	base := "FROM deferment_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d", defermentColumns, base, size, offset)

	var requests []models.DefermentRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list deferment requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count deferment requests: %w", err)
	}

	return requests, total, nil
}

// FindByID loads a deferment request by identifier.
func (r *DefermentRepository) FindByID(ctx context.Context, id string) (*models.DefermentRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM deferment_requests WHERE id = $1", defermentColumns)
	var request models.DefermentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a new deferment request.
func (r *DefermentRepository) Create(ctx context.Context, request *models.DefermentRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO deferment_requests (id, student_id, period, reason, type, status, submitted_at, processed_at, processed_by, created_at, updated_at) VALUES (:id, :student_id, :period, :reason, :type, :status, :submitted_at, :processed_at, :processed_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create deferment request: %w", err)
	}
	return nil
}

// UpdateStatus marks a request processed. The WHERE clause guards the
// pending state so a concurrent double-review loses cleanly.
func (r *DefermentRepository) UpdateStatus(ctx context.Context, id string, status models.DefermentStatus, processedBy string, processedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE deferment_requests SET status = $2, processed_by = $3, processed_at = $4, updated_at = $4 WHERE id = $1 AND status = $5`,
		id, status, processedBy, processedAt, models.DefermentStatusPending)
	if err != nil {
		return fmt.Errorf("update deferment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deferment status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll wipes every deferment request. Used only by the bulk purge.
func (r *DefermentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deferment_requests`); err != nil {
		return fmt.Errorf("delete deferment requests: %w", err)
	}
	return nil
}
