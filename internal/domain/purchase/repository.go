package purchase

import (
	"context"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// Repository は購入記録リポジトリのインターフェース
// (event_id, idempotency_key) の一意性はストレージ層の制約で保証する
// （アプリケーション層のチェックだけでは同時重複リクエストに対して不十分）
type Repository interface {
	// Create は仮購入記録（pending）を作成する（トランザクション必須）
	// (EventID, IdempotencyKey) が既に存在する場合は
	// ErrIdempotencyKeyAlreadyExists を返す
	Create(ctx context.Context, tx transaction.Tx, p *Purchase) error

	// MarkCompleted は pending の購入を決済参照付きで確定する
	// 対象が存在しないか pending でない場合は ErrPurchaseNotPending を返す
	MarkCompleted(ctx context.Context, tx transaction.Tx, id, paymentReference string) error

	// DeletePending は決済に至らなかった仮記録を取り下げる
	// 確定済みの購入は削除されない
	DeletePending(ctx context.Context, tx transaction.Tx, id string) error

	// GetByID はIDから購入記録を取得する
	GetByID(ctx context.Context, id string) (*Purchase, error)

	// GetByIdempotencyKey はイベントIDと冪等性キーから購入記録を取得する
	// 決済中の pending 記録も返す
	GetByIdempotencyKey(ctx context.Context, eventID, key string) (*Purchase, error)

	// GetByEventID はイベントの確定済み購入一覧を取得する（作成日時昇順）
	GetByEventID(ctx context.Context, eventID string) ([]*Purchase, error)

	// SumAmountByEventID はイベントの確定済み売上合計（最小通貨単位）を取得する
	SumAmountByEventID(ctx context.Context, eventID string) (int, error)
}
