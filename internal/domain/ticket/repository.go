package ticket

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// Repository はチケットリポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数のチケットを一括作成する（トランザクション必須）
	CreateBulk(ctx context.Context, tx transaction.Tx, tickets []*Ticket) error

	// GetByID はIDからチケットを取得する
	GetByID(ctx context.Context, id string) (*Ticket, error)

	// GetByEventID はイベントIDからチケット一覧を取得する（作成日時昇順）
	GetByEventID(ctx context.Context, eventID string) ([]*Ticket, error)

	// GetByPurchaseID は購入IDから販売済みチケット一覧を取得する
	GetByPurchaseID(ctx context.Context, purchaseID string) ([]*Ticket, error)

	// ClaimAvailable は作成日時の古い順にavailableなチケットをquantity枚確保する
	// 同一イベントに対する他のClaimと重複しないこと、不足時は1枚も確保しない
	// ことを保証する。不足時は ErrInsufficientTickets を返す（トランザクション必須）
	ClaimAvailable(ctx context.Context, tx transaction.Tx, eventID string, quantity int) ([]*Ticket, error)

	// FinalizeTickets は確保済みチケットを販売済みに更新し、購入との関連を設定する
	// reserved以外のチケットが含まれる場合は ErrTicketNotReserved を返す（トランザクション必須）
	FinalizeTickets(ctx context.Context, tx transaction.Tx, ticketIDs []string, purchaseID string) error

	// ReleaseTickets は確保済みチケットをavailableに戻す
	// 既にavailableのチケットに対しては何もしない（トランザクション必須）
	ReleaseTickets(ctx context.Context, tx transaction.Tx, ticketIDs []string) error

	// ReleaseStaleClaims は確保からolderThan以上経過したままのチケットを解放し、
	// 解放した枚数を返す（トランザクション必須）
	ReleaseStaleClaims(ctx context.Context, tx transaction.Tx, olderThan time.Duration) (int, error)

	// CountByEventIDAndStatus はイベントの状態別チケット数を取得する
	CountByEventIDAndStatus(ctx context.Context, eventID string, status Status) (int, error)
}
