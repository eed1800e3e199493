package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/audit"
)

// AuditRepository は監査ログリポジトリのPostgreSQL実装
type AuditRepository struct{ db *sqlx.DB }

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, log *audit.Log) error {
	query := `INSERT INTO audit_logs (id, actor_email, action, entity_type, entity_id, details, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		log.ID, log.ActorEmail, log.Action, log.EntityType, log.EntityID, log.Details, log.CreatedAt,
	); err != nil {
		return fmt.Errorf("監査ログの記録に失敗: %w", err)
	}
	return nil
}

var _ audit.Repository = (*AuditRepository)(nil)
