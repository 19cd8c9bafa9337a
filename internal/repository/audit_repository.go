package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/records-panel/internal/models"
)

// AuditRepository persists the audit trail of panel mutations.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, session_id, action, resource, resource_id, new_values, request_id, created_at) VALUES (:id, :session_id, :action, :resource, :resource_id, :new_values, :request_id, :created_at) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// Recent returns the newest entries first, optionally scoped to one resource.
func (r *AuditRepository) Recent(ctx context.Context, resource string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	logs := make([]models.AuditLog, 0, limit)
	var err error
	if resource == "" {
		const query = `SELECT id, session_id, action, resource, resource_id, new_values, request_id, created_at FROM audit_logs ORDER BY created_at DESC LIMIT $1`
		err = r.db.SelectContext(ctx, &logs, query, limit)
	} else {
		const query = `SELECT id, session_id, action, resource, resource_id, new_values, request_id, created_at FROM audit_logs WHERE resource = $1 ORDER BY created_at DESC LIMIT $2`
		err = r.db.SelectContext(ctx, &logs, query, resource, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
