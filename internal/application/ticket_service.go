package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/audit"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-ticket-sales/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/ticketcode"
)

const (
	inventoryCacheTTL = 30 * time.Second
)

// TicketService はチケットの生成と在庫照会を提供する
type TicketService struct {
	txManager  transaction.Manager
	ticketRepo ticket.Repository
	eventRepo  event.Repository
	auditRepo  audit.Repository
	codeGen    ticketcode.Generator
	cache      redisinfra.InventoryCacheInterface
}

func NewTicketService(
	txManager transaction.Manager,
	tr ticket.Repository,
	er event.Repository,
	ar audit.Repository,
	codeGen ticketcode.Generator,
	cache redisinfra.InventoryCacheInterface,
) *TicketService {
	return &TicketService{
		txManager:  txManager,
		ticketRepo: tr,
		eventRepo:  er,
		auditRepo:  ar,
		codeGen:    codeGen,
		cache:      cache,
	}
}

type GenerateTicketsInput struct {
	EventID    string
	Quantity   int
	ActorEmail string
}

// GenerateTickets はイベントのチケットを一括生成する
// チケット作成と総数の加算は同一トランザクションで行う
func (s *TicketService) GenerateTickets(ctx context.Context, input GenerateTicketsInput) ([]*ticket.Ticket, error) {
	if input.Quantity < ticket.MinGenerateQuantity || input.Quantity > ticket.MaxGenerateQuantity {
		return nil, ticket.ErrInvalidGenerateQuantity
	}
	if _, err := s.eventRepo.GetByID(ctx, input.EventID); err != nil {
		return nil, err
	}

	tickets := make([]*ticket.Ticket, 0, input.Quantity)
	for i := 0; i < input.Quantity; i++ {
		code, err := s.codeGen.Generate()
		if err != nil {
			return nil, fmt.Errorf("チケットコード生成に失敗: %w", err)
		}
		t := ticket.NewTicket(input.EventID, code)
		if err := t.Validate(); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.CreateBulk(ctx, tx, tickets); err != nil {
		return nil, err
	}
	if err := s.eventRepo.IncrementTicketsTotal(ctx, tx, input.EventID, input.Quantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, input.EventID)
	s.recordAudit(ctx, input.ActorEmail, input.EventID, input.Quantity)

	logger.Info("チケット生成",
		zap.String("event_id", input.EventID),
		zap.Int("quantity", input.Quantity),
	)
	return tickets, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

func (s *TicketService) GetTicketsByEvent(ctx context.Context, eventID string) ([]*ticket.Ticket, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByEventID(ctx, eventID)
}

// CountAvailableTickets はイベントの購入可能チケット数を取得する
// イベントが存在しない場合は event.ErrEventNotFound
func (s *TicketService) CountAvailableTickets(ctx context.Context, eventID string) (int, error) {
	// キャッシュから取得を試みる
	// （キャッシュは存在確認済みのイベントにしか書き込まれない）
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, eventID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("event_id", eventID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return 0, err
	}

	count, err := s.ticketRepo.CountByEventIDAndStatus(ctx, eventID, ticket.StatusAvailable)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, eventID, count, inventoryCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}

func (s *TicketService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *TicketService) recordAudit(ctx context.Context, actorEmail, eventID string, quantity int) {
	if s.auditRepo == nil {
		return
	}
	log := audit.NewLog(actorEmail, "TICKETS_GENERATED", "EVENT", eventID, fmt.Sprintf("quantity=%d", quantity))
	if err := s.auditRepo.Record(ctx, log); err != nil {
		logger.Warn("監査ログの記録に失敗", zap.String("event_id", eventID), zap.Error(err))
	}
}
