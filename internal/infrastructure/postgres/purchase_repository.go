package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/purchase"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

type purchaseRow struct {
	ID               string    `db:"id"`
	EventID          string    `db:"event_id"`
	BuyerID          string    `db:"buyer_id"`
	BuyerEmail       string    `db:"buyer_email"`
	Quantity         int       `db:"quantity"`
	TotalAmountCents int       `db:"total_amount_cents"`
	Status           string    `db:"status"`
	PaymentReference string    `db:"payment_reference"`
	IdempotencyKey   string    `db:"idempotency_key"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r *purchaseRow) toEntity() *purchase.Purchase {
	return &purchase.Purchase{
		ID: r.ID, EventID: r.EventID, BuyerID: r.BuyerID, BuyerEmail: r.BuyerEmail,
		Quantity: r.Quantity, TotalAmountCents: r.TotalAmountCents,
		Status: r.Status, PaymentReference: r.PaymentReference,
		IdempotencyKey: r.IdempotencyKey, CreatedAt: r.CreatedAt,
	}
}

const purchaseColumns = `id, event_id, buyer_id, buyer_email, quantity, total_amount_cents, status, payment_reference, idempotency_key, created_at`

// PurchaseRepository は購入記録リポジトリのPostgreSQL実装
// (event_id, idempotency_key) の一意性はDBのユニーク制約で保証する
type PurchaseRepository struct{ db *sqlx.DB }

func NewPurchaseRepository(db *sqlx.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, tx transaction.Tx, p *purchase.Purchase) error {
	query := `INSERT INTO purchases (id, event_id, buyer_id, buyer_email, quantity, total_amount_cents, status, payment_reference, idempotency_key, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := UnwrapTx(tx).ExecContext(ctx, query,
		p.ID, p.EventID, p.BuyerID, p.BuyerEmail, p.Quantity, p.TotalAmountCents,
		p.Status, p.PaymentReference, p.IdempotencyKey, p.CreatedAt,
	)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return purchase.ErrIdempotencyKeyAlreadyExists
		}
		return fmt.Errorf("購入記録の作成に失敗: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) MarkCompleted(ctx context.Context, tx transaction.Tx, id, paymentReference string) error {
	query := `UPDATE purchases SET status = 'completed', payment_reference = $2 WHERE id = $1 AND status = 'pending'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, id, paymentReference)
	if err != nil {
		return fmt.Errorf("購入の確定に失敗: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("購入の確定結果の確認に失敗: %w", err)
	}
	if affected == 0 {
		return purchase.ErrPurchaseNotPending
	}
	return nil
}

func (r *PurchaseRepository) DeletePending(ctx context.Context, tx transaction.Tx, id string) error {
	query := `DELETE FROM purchases WHERE id = $1 AND status = 'pending'`
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("仮購入記録の削除に失敗: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*purchase.Purchase, error) {
	var row purchaseRow
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, purchase.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("購入記録の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *PurchaseRepository) GetByIdempotencyKey(ctx context.Context, eventID, key string) (*purchase.Purchase, error) {
	var row purchaseRow
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE event_id = $1 AND idempotency_key = $2`
	if err := r.db.GetContext(ctx, &row, query, eventID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, purchase.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("購入記録の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *PurchaseRepository) GetByEventID(ctx context.Context, eventID string) ([]*purchase.Purchase, error) {
	var rows []purchaseRow
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE event_id = $1 AND status = 'completed' ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("購入一覧の取得に失敗: %w", err)
	}
	purchases := make([]*purchase.Purchase, len(rows))
	for i, row := range rows {
		purchases[i] = row.toEntity()
	}
	return purchases, nil
}

func (r *PurchaseRepository) SumAmountByEventID(ctx context.Context, eventID string) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(total_amount_cents), 0) FROM purchases WHERE event_id = $1 AND status = 'completed'`
	if err := r.db.GetContext(ctx, &sum, query, eventID); err != nil {
		return 0, fmt.Errorf("売上集計に失敗: %w", err)
	}
	return sum, nil
}

var _ purchase.Repository = (*PurchaseRepository)(nil)
