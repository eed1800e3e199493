package audit

import "context"

// Repository は監査ログリポジトリのインターフェース
// 呼び出し側から見て fire-and-forget であり、記録失敗は業務処理を
// ロールバックしてはならない
type Repository interface {
	// Record は監査ログを記録する
	Record(ctx context.Context, log *Log) error
}
