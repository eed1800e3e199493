package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

type ticketRow struct {
	ID         string     `db:"id"`
	EventID    string     `db:"event_id"`
	Code       string     `db:"code"`
	Status     string     `db:"status"`
	PurchaseID *string    `db:"purchase_id"`
	ReservedAt *time.Time `db:"reserved_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

func (r *ticketRow) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		ID: r.ID, EventID: r.EventID, Code: r.Code,
		Status: ticket.Status(r.Status), PurchaseID: r.PurchaseID,
		ReservedAt: r.ReservedAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const ticketColumns = `id, event_id, code, status, purchase_id, reserved_at, created_at, updated_at`

// TicketRepository はチケットリポジトリのPostgreSQL実装
type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository { return &TicketRepository{db: db} }

func (r *TicketRepository) CreateBulk(ctx context.Context, tx transaction.Tx, tickets []*ticket.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(tickets); i += batchSize {
		end := i + batchSize
		if end > len(tickets) {
			end = len(tickets)
		}
		if err := r.createBulkBatch(ctx, UnwrapTx(tx), tickets[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行
func (r *TicketRepository) createBulkBatch(ctx context.Context, tx *sqlx.Tx, tickets []*ticket.Ticket) error {
	query := `INSERT INTO tickets (id, event_id, code, status, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(tickets)*6)
	placeholders := make([]string, 0, len(tickets))

	for i, t := range tickets {
		base := i * 6
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, t.ID, t.EventID, t.Code, string(t.Status), t.CreatedAt, t.UpdatedAt)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("チケット一括作成に失敗: %w", err)
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var row ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TicketRepository) GetByEventID(ctx context.Context, eventID string) ([]*ticket.Ticket, error) {
	var rows []ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

func (r *TicketRepository) GetByPurchaseID(ctx context.Context, purchaseID string) ([]*ticket.Ticket, error) {
	var rows []ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE purchase_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query, purchaseID); err != nil {
		return nil, fmt.Errorf("購入チケット取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

// ClaimAvailable は行ロックで他のClaimと直列化しつつ、古い順にquantity枚を確保する
// SKIP LOCKED により同時実行のClaim同士が同じ行を選択することはない
func (r *TicketRepository) ClaimAvailable(ctx context.Context, tx transaction.Tx, eventID string, quantity int) ([]*ticket.Ticket, error) {
	sqlxTx := UnwrapTx(tx)

	var rows []ticketRow
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1 AND status = 'available'
		ORDER BY created_at, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`
	if err := sqlxTx.SelectContext(ctx, &rows, query, eventID, quantity); err != nil {
		return nil, fmt.Errorf("チケット確保の選択に失敗: %w", err)
	}
	if len(rows) < quantity {
		// 部分確保はしない
		return nil, ticket.ErrInsufficientTickets
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	update := `UPDATE tickets SET status = 'reserved', reserved_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND status = 'available'`
	result, err := sqlxTx.ExecContext(ctx, update, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("チケット確保に失敗: %w", err)
	}
	affected, _ := result.RowsAffected()
	if int(affected) != len(ids) {
		return nil, ticket.ErrTicketNotAvailable
	}

	claimed := make([]*ticket.Ticket, len(rows))
	now := time.Now()
	for i, row := range rows {
		t := row.toEntity()
		t.Status = ticket.StatusReserved
		t.ReservedAt = &now
		claimed[i] = t
	}
	return claimed, nil
}

func (r *TicketRepository) FinalizeTickets(ctx context.Context, tx transaction.Tx, ticketIDs []string, purchaseID string) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	query := `UPDATE tickets SET status = 'sold', purchase_id = $1, reserved_at = NULL, updated_at = NOW() WHERE id = ANY($2) AND status = 'reserved'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, purchaseID, pq.Array(ticketIDs))
	if err != nil {
		return fmt.Errorf("チケット確定に失敗: %w", err)
	}
	affected, _ := result.RowsAffected()
	if int(affected) != len(ticketIDs) {
		return ticket.ErrTicketNotReserved
	}
	return nil
}

// ReleaseTickets は確保済みチケットをavailableに戻す
// soldは対象外、既にavailableの行は変更されないため冪等
func (r *TicketRepository) ReleaseTickets(ctx context.Context, tx transaction.Tx, ticketIDs []string) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	query := `UPDATE tickets SET status = 'available', purchase_id = NULL, reserved_at = NULL, updated_at = NOW() WHERE id = ANY($1) AND status = 'reserved'`
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(ticketIDs)); err != nil {
		return fmt.Errorf("チケット解放に失敗: %w", err)
	}
	return nil
}

func (r *TicketRepository) ReleaseStaleClaims(ctx context.Context, tx transaction.Tx, olderThan time.Duration) (int, error) {
	query := `UPDATE tickets SET status = 'available', purchase_id = NULL, reserved_at = NULL, updated_at = NOW() WHERE status = 'reserved' AND reserved_at < NOW() - ($1 * INTERVAL '1 second')`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, int(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("滞留チケットの解放に失敗: %w", err)
	}
	affected, _ := result.RowsAffected()
	return int(affected), nil
}

func (r *TicketRepository) CountByEventIDAndStatus(ctx context.Context, eventID string, status ticket.Status) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tickets WHERE event_id = $1 AND status = $2`, eventID, string(status))
	return count, err
}

func toEntities(rows []ticketRow) []*ticket.Ticket {
	tickets := make([]*ticket.Ticket, len(rows))
	for i, row := range rows {
		tickets[i] = row.toEntity()
	}
	return tickets
}

var _ ticket.Repository = (*TicketRepository)(nil)
