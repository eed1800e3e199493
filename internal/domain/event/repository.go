package event

import (
	"context"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List はイベント一覧を取得する（開始日時昇順）
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// IncrementTicketsTotal は総チケット数を加算する（トランザクション必須）
	IncrementTicketsTotal(ctx context.Context, tx transaction.Tx, eventID string, quantity int) error

	// IncrementTicketsSold は販売済み数を加算する（トランザクション必須）
	// tickets_sold + quantity が tickets_total を超える場合は
	// ErrSoldExceedsTotal を返し、何も更新しない
	IncrementTicketsSold(ctx context.Context, tx transaction.Tx, eventID string, quantity int) error
}
