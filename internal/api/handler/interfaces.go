package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/purchase"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
}

// TicketServiceInterface はチケットサービスのインターフェース
type TicketServiceInterface interface {
	GenerateTickets(ctx context.Context, input application.GenerateTicketsInput) ([]*ticket.Ticket, error)
	GetTicket(ctx context.Context, id string) (*ticket.Ticket, error)
	GetTicketsByEvent(ctx context.Context, eventID string) ([]*ticket.Ticket, error)
	CountAvailableTickets(ctx context.Context, eventID string) (int, error)
}

// PurchaseServiceInterface は購入サービスのインターフェース
type PurchaseServiceInterface interface {
	Purchase(ctx context.Context, input application.PurchaseInput) (*application.PurchaseResult, error)
	GetPurchase(ctx context.Context, id string) (*application.PurchaseResult, error)
	GetEventPurchases(ctx context.Context, eventID string) ([]*purchase.Purchase, error)
	GetEventRevenue(ctx context.Context, eventID string) (int, error)
	ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int, error)
}
