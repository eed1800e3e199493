package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID             string    `db:"id"`
	VenueID        string    `db:"venue_id"`
	Title          string    `db:"title"`
	Description    *string   `db:"description"`
	StartsAt       time.Time `db:"starts_at"`
	EndsAt         time.Time `db:"ends_at"`
	FaceValueCents int       `db:"face_value_cents"`
	TicketsTotal   int       `db:"tickets_total"`
	TicketsSold    int       `db:"tickets_sold"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc string
	if r.Description != nil {
		desc = *r.Description
	}
	return &event.Event{
		ID:             r.ID,
		VenueID:        r.VenueID,
		Title:          r.Title,
		Description:    desc,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		FaceValueCents: r.FaceValueCents,
		TicketsTotal:   r.TicketsTotal,
		TicketsSold:    r.TicketsSold,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const eventColumns = `id, venue_id, title, description, starts_at, ends_at, face_value_cents, tickets_total, tickets_sold, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (id, venue_id, title, description, starts_at, ends_at, face_value_cents, tickets_total, tickets_sold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var desc *string
	if e.Description != "" {
		desc = &e.Description
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.VenueID, e.Title, desc, e.StartsAt, e.EndsAt, e.FaceValueCents,
		e.TicketsTotal, e.TicketsSold, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY starts_at LIMIT $1 OFFSET $2`

	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// IncrementTicketsTotal は総チケット数を加算する
func (r *EventRepository) IncrementTicketsTotal(ctx context.Context, tx transaction.Tx, eventID string, quantity int) error {
	query := `UPDATE events SET tickets_total = tickets_total + $1, updated_at = NOW() WHERE id = $2`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, quantity, eventID)
	if err != nil {
		return fmt.Errorf("総チケット数の更新に失敗しました: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// IncrementTicketsSold は販売済み数を加算する
// tickets_sold <= tickets_total の不変条件をUPDATE条件で保証する
func (r *EventRepository) IncrementTicketsSold(ctx context.Context, tx transaction.Tx, eventID string, quantity int) error {
	query := `UPDATE events SET tickets_sold = tickets_sold + $1, updated_at = NOW() WHERE id = $2 AND tickets_sold + $1 <= tickets_total`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, quantity, eventID)
	if err != nil {
		return fmt.Errorf("販売済み数の更新に失敗しました: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return event.ErrSoldExceedsTotal
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
