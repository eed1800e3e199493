package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// アプリケーション層がインフラ層（sqlx等）に依存しないようにするための抽象化
// チケットの確保や確定はこの境界内でアトミックに行われる
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
// 決済のような外部呼び出しはトランザクションの外で行うこと
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
