package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// OperatorRepository handles administrative account lookups for login.
type OperatorRepository struct {
	db *sqlx.DB
}

// NewOperatorRepository instantiates an operator repository.
func NewOperatorRepository(db *sqlx.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

const operatorColumns = "id, email, full_name, password_hash, role, active, last_login_at, created_at, updated_at"

// FindByEmail loads an operator by email.
func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	query := fmt.Sprintf("SELECT %s FROM operators WHERE email = $1", operatorColumns)
	var operator models.Operator
	if err := r.db.GetContext(ctx, &operator, query, email); err != nil {
		return nil, err
	}
	return &operator, nil
}

// FindByID loads an operator by identifier.
func (r *OperatorRepository) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	query := fmt.Sprintf("SELECT %s FROM operators WHERE id = $1", operatorColumns)
	var operator models.Operator
	if err := r.db.GetContext(ctx, &operator, query, id); err != nil {
		return nil, err
	}
	return &operator, nil
}

// UpdateLastLogin stamps the latest successful login.
func (r *OperatorRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE operators SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
