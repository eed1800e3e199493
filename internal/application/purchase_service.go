package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/audit"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/purchase"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-sales/internal/infrastructure/payment"
	redisinfra "github.com/sanosuguru/go-ticket-sales/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/metrics"
)

const (
	// 冪等性キー単位の直列化ロック
	// TTLは確保〜決済〜確定の全体よりも十分長くする
	purchaseLockTTL    = 30 * time.Second
	purchaseLockRetry  = 3
	purchaseRetryDelay = 100 * time.Millisecond

	// 先行リクエストの決済完了を待つポーリング
	winnerWaitRetry = 10
	winnerWaitDelay = 200 * time.Millisecond
)

// PurchaseService は購入トランザクションを調停する
// 確保 → 決済 → 確定の流れを所有し、非成功経路では必ず確保分を解放する
type PurchaseService struct {
	txManager    transaction.Manager
	purchaseRepo purchase.Repository
	ticketRepo   ticket.Repository
	eventRepo    event.Repository
	auditRepo    audit.Repository
	charger      payment.Charger
	lockManager  redisinfra.LockManagerInterface
	cache        redisinfra.InventoryCacheInterface
}

func NewPurchaseService(
	txManager transaction.Manager,
	pr purchase.Repository,
	tr ticket.Repository,
	er event.Repository,
	ar audit.Repository,
	charger payment.Charger,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.InventoryCacheInterface,
) *PurchaseService {
	return &PurchaseService{
		txManager:    txManager,
		purchaseRepo: pr,
		ticketRepo:   tr,
		eventRepo:    er,
		auditRepo:    ar,
		charger:      charger,
		lockManager:  lm,
		cache:        cache,
	}
}

type PurchaseInput struct {
	EventID        string
	BuyerID        string
	BuyerEmail     string
	Quantity       int
	PaymentToken   string
	IdempotencyKey string
}

// PurchaseResult は確定した購入とそのチケットを表す
type PurchaseResult struct {
	Purchase *purchase.Purchase
	Tickets  []*ticket.Ticket
	Replayed bool // 冪等リプレイ（副作用なし）で返された場合にtrue
}

// Purchase はチケットを購入する
// 同一の (EventID, IdempotencyKey) による再送は、確定済みの結果を
// 再確保・再課金なしでそのまま返す
func (s *PurchaseService) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if input.Quantity <= 0 {
		return nil, purchase.ErrInvalidQuantity
	}
	if input.IdempotencyKey == "" {
		return nil, purchase.ErrIdempotencyKeyRequired
	}
	if input.PaymentToken == "" {
		return nil, purchase.ErrPaymentTokenRequired
	}
	if input.BuyerID == "" {
		return nil, purchase.ErrBuyerIDRequired
	}

	// 冪等性チェック（確定済みならここで完結、決済中なら完了を待つ）
	if existing, err := s.lookupByKey(ctx, input.EventID, input.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		if existing.IsCompleted() {
			recordPurchaseResult("replayed")
			return s.replayResult(ctx, existing)
		}
		return s.awaitWinner(ctx, input.EventID, input.IdempotencyKey)
	}

	// 同じ冪等性キーの同時再送を直列化する（Redis不在時はスキップ可。
	// 冪等性の保証自体はDBユニーク制約が担うため、ここは競合時の
	// 無駄な確保を減らす最適化にすぎない）
	if s.lockManager != nil {
		lockKey := fmt.Sprintf("purchase:%s:%s", input.EventID, input.IdempotencyKey)
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, purchaseLockTTL, purchaseLockRetry, purchaseRetryDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				// 先行リクエストが処理中。完了を待って同じ結果を返す
				return s.awaitWinner(ctx, input.EventID, input.IdempotencyKey)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(context.WithoutCancel(ctx))

		// ロック待ちの間に先行リクエストが確定した可能性がある
		if existing, err := s.lookupByKey(ctx, input.EventID, input.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			if existing.IsCompleted() {
				recordPurchaseResult("replayed")
				return s.replayResult(ctx, existing)
			}
			return s.awaitWinner(ctx, input.EventID, input.IdempotencyKey)
		}
	}

	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	totalAmount := ev.TotalAmountFor(input.Quantity)

	// 仮記録の挿入とチケット確保を単一トランザクションで行う。
	// 冪等性キーの占有がここで永続化されるため、同時再送の後着は
	// 決済に進む前にユニーク制約で弾かれる
	p, claimed, err := s.claimWithPendingRecord(ctx, input, totalAmount)
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrIdempotencyKeyAlreadyExists):
			// 後着。先勝ちの決済完了を待って同じ結果を返す
			return s.awaitWinner(ctx, input.EventID, input.IdempotencyKey)
		case errors.Is(err, ticket.ErrInsufficientTickets):
			recordPurchaseResult("insufficient_inventory")
		default:
			recordPurchaseResult("error")
		}
		return nil, err
	}

	// ここから先の非成功経路では必ず確保分を解放し、仮記録を取り下げる
	finalized := false
	defer func() {
		if !finalized {
			s.abandonPurchase(context.WithoutCancel(ctx), input.EventID, p.ID, claimed)
		}
	}()

	chargeStart := time.Now()
	resp, err := s.charger.Charge(ctx, payment.Request{
		EventID:      input.EventID,
		BuyerEmail:   input.BuyerEmail,
		AmountCents:  totalAmount,
		Quantity:     input.Quantity,
		PaymentToken: input.PaymentToken,
	})
	if err != nil {
		recordPurchaseResult("error")
		return nil, fmt.Errorf("決済呼び出しに失敗: %w", err)
	}
	observeChargeDuration(resp.Success, time.Since(chargeStart))
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "決済に失敗しました"
		}
		recordPurchaseResult("payment_declined")
		return nil, fmt.Errorf("%w: %s", purchase.ErrPaymentDeclined, msg)
	}

	if err := p.Complete(resp.Reference); err != nil {
		recordPurchaseResult("error")
		return nil, err
	}

	if err := s.finalizePurchase(ctx, p, claimed); err != nil {
		recordPurchaseResult("error")
		return nil, err
	}
	finalized = true

	for _, t := range claimed {
		if err := t.Finalize(p.ID); err != nil {
			logger.Warn("チケット状態の反映に失敗", zap.String("ticket_id", t.ID), zap.Error(err))
		}
	}

	s.invalidateCache(ctx, input.EventID)
	s.recordAudit(ctx, input.BuyerEmail, "PURCHASE_CONFIRMED", "EVENT", input.EventID,
		fmt.Sprintf("quantity=%d", input.Quantity))
	recordPurchaseResult("success")
	addTicketsSold(input.Quantity)

	logger.Info("購入確定",
		zap.String("purchase_id", p.ID),
		zap.String("event_id", input.EventID),
		zap.Int("quantity", input.Quantity),
		zap.Int("total_amount_cents", totalAmount),
	)

	return &PurchaseResult{Purchase: p, Tickets: claimed}, nil
}

// lookupByKey は冪等性キーに対応する購入記録を探す
// pending も返す。見つからない場合は (nil, nil)
func (s *PurchaseService) lookupByKey(ctx context.Context, eventID, key string) (*purchase.Purchase, error) {
	existing, err := s.purchaseRepo.GetByIdempotencyKey(ctx, eventID, key)
	if err != nil {
		if errors.Is(err, purchase.ErrPurchaseNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("冪等性チェックに失敗: %w", err)
	}
	return existing, nil
}

// replayResult は確定済み購入をそのチケットとともにリプレイとして返す
func (s *PurchaseService) replayResult(ctx context.Context, p *purchase.Purchase) (*PurchaseResult, error) {
	tickets, err := s.ticketRepo.GetByPurchaseID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("確定済みチケットの取得に失敗: %w", err)
	}
	return &PurchaseResult{Purchase: p, Tickets: tickets, Replayed: true}, nil
}

// awaitWinner は同じ冪等性キーの先行リクエストの完了を待ち、
// 確定した結果をリプレイする。待機中に仮記録が消えた場合
// （先行の決済失敗）や待ち切れない場合は ErrPurchaseInProgress
func (s *PurchaseService) awaitWinner(ctx context.Context, eventID, key string) (*PurchaseResult, error) {
	for i := 0; i < winnerWaitRetry; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(winnerWaitDelay):
		}

		existing, err := s.lookupByKey(ctx, eventID, key)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			// 先行リクエストは決済に至らず記録を取り下げた
			return nil, purchase.ErrPurchaseInProgress
		}
		if existing.IsCompleted() {
			recordPurchaseResult("replayed")
			return s.replayResult(ctx, existing)
		}
	}
	return nil, purchase.ErrPurchaseInProgress
}

// claimWithPendingRecord は仮購入記録の挿入とチケット確保を
// 単一トランザクションで行う。仮記録の挿入が先なので、冪等性キーが
// 競合する後着はチケットの行ロックに触れる前に弾かれる
func (s *PurchaseService) claimWithPendingRecord(ctx context.Context, input PurchaseInput, totalAmount int) (*purchase.Purchase, []*ticket.Ticket, error) {
	p := purchase.NewPurchase(input.EventID, input.BuyerID, input.BuyerEmail,
		input.Quantity, totalAmount, input.IdempotencyKey)
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.purchaseRepo.Create(ctx, tx, p); err != nil {
		return nil, nil, err
	}
	claimed, err := s.ticketRepo.ClaimAvailable(ctx, tx, input.EventID, input.Quantity)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return p, claimed, nil
}

// finalizePurchase は購入の確定・チケット確定・販売数加算を
// 単一トランザクションで行う
func (s *PurchaseService) finalizePurchase(ctx context.Context, p *purchase.Purchase, claimed []*ticket.Ticket) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.purchaseRepo.MarkCompleted(ctx, tx, p.ID, p.PaymentReference); err != nil {
		return err
	}

	ids := make([]string, len(claimed))
	for i, t := range claimed {
		ids[i] = t.ID
	}
	if err := s.ticketRepo.FinalizeTickets(ctx, tx, ids, p.ID); err != nil {
		return err
	}
	if err := s.eventRepo.IncrementTicketsSold(ctx, tx, p.EventID, p.Quantity); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// abandonPurchase は確保済みチケットをavailableに戻し、仮記録を
// 取り下げる補償処理。呼び出し元のエラーを上書きしないよう、
// 失敗はログに留める
func (s *PurchaseService) abandonPurchase(ctx context.Context, eventID, purchaseID string, claimed []*ticket.Ticket) {
	ids := make([]string, len(claimed))
	for i, t := range claimed {
		ids[i] = t.ID
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		logger.Error("補償トランザクション開始に失敗",
			zap.String("event_id", eventID), zap.Strings("ticket_ids", ids), zap.Error(err))
		return
	}
	defer tx.Rollback()

	if err := s.ticketRepo.ReleaseTickets(ctx, tx, ids); err != nil {
		logger.Error("チケット解放に失敗",
			zap.String("event_id", eventID), zap.Strings("ticket_ids", ids), zap.Error(err))
		return
	}
	if err := s.purchaseRepo.DeletePending(ctx, tx, purchaseID); err != nil {
		logger.Error("仮購入記録の取り下げに失敗",
			zap.String("purchase_id", purchaseID), zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		logger.Error("補償処理のコミットに失敗",
			zap.String("event_id", eventID), zap.Strings("ticket_ids", ids), zap.Error(err))
		return
	}

	s.invalidateCache(ctx, eventID)
}

// GetPurchase は購入記録とそのチケットを取得する
func (s *PurchaseService) GetPurchase(ctx context.Context, id string) (*PurchaseResult, error) {
	p, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketRepo.GetByPurchaseID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: p, Tickets: tickets}, nil
}

// GetEventPurchases はイベントの購入一覧を取得する（作成日時昇順）
func (s *PurchaseService) GetEventPurchases(ctx context.Context, eventID string) ([]*purchase.Purchase, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.purchaseRepo.GetByEventID(ctx, eventID)
}

// GetEventRevenue はイベントの売上合計を取得する
func (s *PurchaseService) GetEventRevenue(ctx context.Context, eventID string) (int, error) {
	return s.purchaseRepo.SumAmountByEventID(ctx, eventID)
}

// ReleaseStaleClaims は確保から一定時間が経過したままのチケットを解放する
// プロセス異常終了などで取り残された確保分の回収用
func (s *PurchaseService) ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	count, err := s.ticketRepo.ReleaseStaleClaims(ctx, tx, olderThan)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("コミットに失敗: %w", err)
	}
	return count, nil
}

func (s *PurchaseService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.String("event_id", eventID), zap.Error(err))
	}
}

// recordAudit は監査ログを記録する
// 記録失敗は確定済みの購入をロールバックしない
func (s *PurchaseService) recordAudit(ctx context.Context, actorEmail, action, entityType, entityID, details string) {
	if s.auditRepo == nil {
		return
	}
	log := audit.NewLog(actorEmail, action, entityType, entityID, details)
	if err := s.auditRepo.Record(ctx, log); err != nil {
		logger.Warn("監査ログの記録に失敗", zap.String("action", action), zap.Error(err))
	}
}

func recordPurchaseResult(result string) {
	if m := metrics.Get(); m != nil {
		m.PurchasesTotal.WithLabelValues(result).Inc()
	}
}

func observeChargeDuration(success bool, d time.Duration) {
	m := metrics.Get()
	if m == nil {
		return
	}
	result := "approved"
	if !success {
		result = "declined"
	}
	m.PaymentChargeDuration.WithLabelValues(result).Observe(d.Seconds())
}

func addTicketsSold(quantity int) {
	if m := metrics.Get(); m != nil {
		m.TicketsSoldTotal.Add(float64(quantity))
	}
}
