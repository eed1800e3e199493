package purchase

import (
	"time"

	"github.com/google/uuid"
)

// 購入ステータス
const (
	// StatusPending は決済前の仮記録
	// 冪等性キーの占有を決済より先に永続化するために存在する
	StatusPending = "pending"
	// StatusCompleted は決済済みの確定記録
	StatusCompleted = "completed"
)

// Purchase は購入の記録を表す
// pending として作成され、決済成功後に completed へ遷移して以降は不変
// 1件の購入が複数のチケットを所有する
type Purchase struct {
	ID               string
	EventID          string
	BuyerID          string
	BuyerEmail       string
	Quantity         int
	TotalAmountCents int
	Status           string
	PaymentReference string // completed になるまで空
	IdempotencyKey   string // (EventID, IdempotencyKey) でシステム全体一意
	CreatedAt        time.Time
}

// NewPurchase は決済前の仮購入記録を作成する
func NewPurchase(eventID, buyerID, buyerEmail string, quantity, totalAmountCents int, idempotencyKey string) *Purchase {
	return &Purchase{
		ID:               uuid.NewString(),
		EventID:          eventID,
		BuyerID:          buyerID,
		BuyerEmail:       buyerEmail,
		Quantity:         quantity,
		TotalAmountCents: totalAmountCents,
		Status:           StatusPending,
		IdempotencyKey:   idempotencyKey,
		CreatedAt:        time.Now(),
	}
}

// Complete は決済成功を記録して購入を確定する
func (p *Purchase) Complete(paymentReference string) error {
	if p.Status != StatusPending {
		return ErrPurchaseNotPending
	}
	p.Status = StatusCompleted
	p.PaymentReference = paymentReference
	return nil
}

// IsCompleted は確定済みかどうかを返す
func (p *Purchase) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// Validate は購入記録の検証を行う
func (p *Purchase) Validate() error {
	if p.EventID == "" {
		return ErrEventIDRequired
	}
	if p.BuyerID == "" {
		return ErrBuyerIDRequired
	}
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.IdempotencyKey == "" {
		return ErrIdempotencyKeyRequired
	}
	return nil
}
