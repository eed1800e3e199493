package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
)

// ClaimReleaser は滞留した確保済みチケットを解放するインターフェース
type ClaimReleaser interface {
	ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int, error)
}

// StaleClaimReleaser はプロセス障害などで解放されなかった
// 確保済みチケットを定期的に在庫へ戻すワーカー
type StaleClaimReleaser struct {
	purchaseService ClaimReleaser
	interval        time.Duration
	claimTTL        time.Duration
	stopCh          chan struct{}
	doneCh          chan struct{}
}

// NewStaleClaimReleaser は新しいリリーサーを作成
func NewStaleClaimReleaser(
	ps ClaimReleaser,
	interval time.Duration,
	claimTTL time.Duration,
) *StaleClaimReleaser {
	return &StaleClaimReleaser{
		purchaseService: ps,
		interval:        interval,
		claimTTL:        claimTTL,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start はリリーサーを開始
func (r *StaleClaimReleaser) Start(ctx context.Context) {
	logger.Info("滞留チケット解放ワーカー開始",
		zap.Duration("interval", r.interval),
		zap.Duration("claim_ttl", r.claimTTL),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("滞留チケット解放ワーカー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("滞留チケット解放ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.release(ctx)
		}
	}
}

// Stop はリリーサーを停止
func (r *StaleClaimReleaser) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// release は滞留した確保済みチケットを在庫へ戻す
func (r *StaleClaimReleaser) release(ctx context.Context) {
	log := logger.Get()
	log.Debug("滞留チケットの解放開始")

	count, err := r.purchaseService.ReleaseStaleClaims(ctx, r.claimTTL)
	if err != nil {
		log.Error("滞留チケットの解放失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("滞留チケットを解放", zap.Int("count", count))
	} else {
		log.Debug("滞留チケットなし")
	}
}
