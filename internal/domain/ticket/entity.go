package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Status はチケットの状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// チケット一括生成数の上限・下限
const (
	MinGenerateQuantity = 1
	MaxGenerateQuantity = 5000
)

// Ticket はチケットエンティティを表す
// PurchaseID は status = sold のときのみ非nilになる
type Ticket struct {
	ID         string
	EventID    string
	Code       string // 表示用コード（システム全体で一意、推測不能）
	Status     Status
	PurchaseID *string
	ReservedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewTicket は新しいチケットを作成する
func NewTicket(eventID, code string) *Ticket {
	now := time.Now()
	return &Ticket{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Code:      code,
		Status:    StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAvailable はチケットが購入可能かを返す
func (t *Ticket) IsAvailable() bool {
	return t.Status == StatusAvailable
}

// Claim はチケットを確保状態にする
func (t *Ticket) Claim() error {
	if t.Status != StatusAvailable {
		return ErrTicketNotAvailable
	}
	now := time.Now()
	t.Status = StatusReserved
	t.ReservedAt = &now
	t.UpdatedAt = now
	return nil
}

// Finalize はチケットを販売済みにし、購入との関連を設定する
func (t *Ticket) Finalize(purchaseID string) error {
	if t.Status != StatusReserved {
		return ErrTicketNotReserved
	}
	t.Status = StatusSold
	t.PurchaseID = &purchaseID
	t.UpdatedAt = time.Now()
	return nil
}

// Release はチケットを購入可能状態に戻す
// 既にavailableの場合は何もしない（補償処理を冪等にするため）
// soldからの遷移は存在しない
func (t *Ticket) Release() error {
	if t.Status == StatusSold {
		return ErrTicketAlreadySold
	}
	t.Status = StatusAvailable
	t.PurchaseID = nil
	t.ReservedAt = nil
	t.UpdatedAt = time.Now()
	return nil
}

// Validate はチケットの検証を行う
func (t *Ticket) Validate() error {
	if t.EventID == "" {
		return ErrEventIDRequired
	}
	if t.Code == "" {
		return ErrCodeRequired
	}
	return nil
}
