package event

import (
	"time"

	"github.com/google/uuid"
)

// Event はイベントエンティティを表す
// TicketsTotal はチケット生成時に、TicketsSold は購入確定時にのみ増加する
// 不変条件: TicketsSold <= TicketsTotal
type Event struct {
	ID             string
	VenueID        string
	Title          string
	Description    string
	StartsAt       time.Time
	EndsAt         time.Time
	FaceValueCents int // 額面価格（最小通貨単位）
	TicketsTotal   int
	TicketsSold    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEvent は新しいイベントを作成する
func NewEvent(venueID, title, description string, startsAt, endsAt time.Time, faceValueCents int) *Event {
	now := time.Now()
	return &Event{
		ID:             uuid.NewString(),
		VenueID:        venueID,
		Title:          title,
		Description:    description,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		FaceValueCents: faceValueCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RemainingTickets は未販売のチケット数を返す
func (e *Event) RemainingTickets() int {
	return e.TicketsTotal - e.TicketsSold
}

// TotalAmountFor はquantity枚分の購入金額を返す
func (e *Event) TotalAmountFor(quantity int) int {
	return e.FaceValueCents * quantity
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.VenueID == "" {
		return ErrVenueIDRequired
	}
	if e.Title == "" {
		return ErrTitleRequired
	}
	if !e.EndsAt.After(e.StartsAt) {
		return ErrInvalidEventTime
	}
	if e.FaceValueCents <= 0 {
		return ErrInvalidFaceValue
	}
	return nil
}
