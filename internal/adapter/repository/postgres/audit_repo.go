package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const insertAuditSQL = `
	INSERT INTO audit_logs (id, actor, action, resource_type, resource_id, request_id, before_state, after_state, status, error_message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Create inserts an audit log outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	args, err := auditInsertArgs(log)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertAuditSQL, args...)
	return err
}

// CreateTx inserts an audit log inside the caller's transaction so the
// trail commits or rolls back with the mutation it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	args, err := auditInsertArgs(log)
	if err != nil {
		return err
	}
	_, err = pgxTxFrom(tx).Exec(ctx, insertAuditSQL, args...)
	return err
}

func auditInsertArgs(log *domain.AuditLog) ([]any, error) {
	before, err := marshalJSONState(log.BeforeState)
	if err != nil {
		return nil, err
	}
	after, err := marshalJSONState(log.AfterState)
	if err != nil {
		return nil, err
	}

	return []any{
		log.ID, log.Actor, log.Action, log.ResourceType, log.ResourceID,
		log.RequestID, before, after, log.Status, log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	}, nil
}

func marshalJSONState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

// GetByResourceID retrieves audit logs for a resource, newest first.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, actor, action, resource_type, resource_id, request_id, before_state, after_state, status, error_message, created_at
		 FROM audit_logs
		 WHERE resource_type = $1 AND resource_id = $2
		 ORDER BY created_at DESC`,
		resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log       domain.AuditLog
			before    []byte
			after     []byte
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&log.ID, &log.Actor, &log.Action, &log.ResourceType, &log.ResourceID,
			&log.RequestID, &before, &after, &log.Status, &log.ErrorMessage, &createdAt,
		)
		if err != nil {
			return nil, err
		}

		if len(before) > 0 {
			_ = json.Unmarshal(before, &log.BeforeState)
		}
		if len(after) > 0 {
			_ = json.Unmarshal(after, &log.AfterState)
		}
		log.CreatedAt = createdAt.Time

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
