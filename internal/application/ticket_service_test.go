package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
	redisinfra "github.com/sanosuguru/go-ticket-sales/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/ticketcode"
)

// MockInventoryCache implements redisinfra.InventoryCacheInterface
type MockInventoryCache struct {
	mock.Mock
}

func (m *MockInventoryCache) GetAvailableCount(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryCache) SetAvailableCount(ctx context.Context, eventID string, count int, ttl time.Duration) error {
	args := m.Called(ctx, eventID, count, ttl)
	return args.Error(0)
}

func (m *MockInventoryCache) Invalidate(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func newTicketServiceForTest(t *testing.T, cache redisinfra.InventoryCacheInterface) (*TicketService, *MockTxManager, *MockTx, *MockTicketRepository, *MockEventRepository, *MockAuditRepository) {
	t.Helper()
	txManager := new(MockTxManager)
	tx := new(MockTx)
	ticketRepo := new(MockTicketRepository)
	eventRepo := new(MockEventRepository)
	auditRepo := new(MockAuditRepository)

	svc := NewTicketService(txManager, ticketRepo, eventRepo, auditRepo, ticketcode.NewRandomGenerator(), cache)
	return svc, txManager, tx, ticketRepo, eventRepo, auditRepo
}

func TestTicketService_GenerateTickets(t *testing.T) {
	t.Run("正常に一括生成できる", func(t *testing.T) {
		svc, txManager, tx, ticketRepo, eventRepo, auditRepo := newTicketServiceForTest(t, nil)

		eventRepo.On("GetByID", mock.Anything, "event-1").Return(testEvent(), nil)
		txManager.On("Begin", mock.Anything).Return(tx, nil)
		tx.On("Commit").Return(nil)
		tx.On("Rollback").Return(nil)
		ticketRepo.On("CreateBulk", mock.Anything, tx, mock.Anything).Return(nil)
		eventRepo.On("IncrementTicketsTotal", mock.Anything, tx, "event-1", 5).Return(nil)
		auditRepo.On("Record", mock.Anything, mock.Anything).Return(nil)

		tickets, err := svc.GenerateTickets(context.Background(), GenerateTicketsInput{
			EventID: "event-1", Quantity: 5, ActorEmail: "admin@example.com",
		})

		require.NoError(t, err)
		require.Len(t, tickets, 5)
		seen := make(map[string]struct{})
		for _, tk := range tickets {
			assert.Equal(t, "event-1", tk.EventID)
			assert.Equal(t, ticket.StatusAvailable, tk.Status)
			assert.Len(t, tk.Code, ticketcode.CodeLength)
			_, dup := seen[tk.Code]
			assert.False(t, dup, "コードが重複: %s", tk.Code)
			seen[tk.Code] = struct{}{}
		}
		ticketRepo.AssertExpectations(t)
		eventRepo.AssertExpectations(t)
	})

	t.Run("数量が範囲外", func(t *testing.T) {
		for _, quantity := range []int{0, -1, ticket.MaxGenerateQuantity + 1} {
			svc, _, _, ticketRepo, eventRepo, _ := newTicketServiceForTest(t, nil)

			tickets, err := svc.GenerateTickets(context.Background(), GenerateTicketsInput{
				EventID: "event-1", Quantity: quantity,
			})

			require.Nil(t, tickets)
			assert.ErrorIs(t, err, ticket.ErrInvalidGenerateQuantity)
			eventRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			ticketRepo.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("イベントが存在しない", func(t *testing.T) {
		svc, _, _, ticketRepo, eventRepo, _ := newTicketServiceForTest(t, nil)

		eventRepo.On("GetByID", mock.Anything, "nope").Return(nil, event.ErrEventNotFound)

		tickets, err := svc.GenerateTickets(context.Background(), GenerateTicketsInput{
			EventID: "nope", Quantity: 5,
		})

		require.Nil(t, tickets)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
		ticketRepo.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("生成後にキャッシュを無効化する", func(t *testing.T) {
		cache := new(MockInventoryCache)
		svc, txManager, tx, ticketRepo, eventRepo, auditRepo := newTicketServiceForTest(t, cache)

		eventRepo.On("GetByID", mock.Anything, "event-1").Return(testEvent(), nil)
		txManager.On("Begin", mock.Anything).Return(tx, nil)
		tx.On("Commit").Return(nil)
		tx.On("Rollback").Return(nil)
		ticketRepo.On("CreateBulk", mock.Anything, tx, mock.Anything).Return(nil)
		eventRepo.On("IncrementTicketsTotal", mock.Anything, tx, "event-1", 3).Return(nil)
		auditRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
		cache.On("Invalidate", mock.Anything, "event-1").Return(nil)

		_, err := svc.GenerateTickets(context.Background(), GenerateTicketsInput{
			EventID: "event-1", Quantity: 3,
		})

		require.NoError(t, err)
		cache.AssertExpectations(t)
	})
}

func TestTicketService_CountAvailableTickets(t *testing.T) {
	t.Run("キャッシュヒット時はDBを参照しない", func(t *testing.T) {
		cache := new(MockInventoryCache)
		svc, _, _, ticketRepo, _, _ := newTicketServiceForTest(t, cache)

		cache.On("GetAvailableCount", mock.Anything, "event-1").Return(42, nil)

		count, err := svc.CountAvailableTickets(context.Background(), "event-1")

		require.NoError(t, err)
		assert.Equal(t, 42, count)
		ticketRepo.AssertNotCalled(t, "CountByEventIDAndStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("キャッシュミス時はDBから取得して保存する", func(t *testing.T) {
		cache := new(MockInventoryCache)
		svc, _, _, ticketRepo, eventRepo, _ := newTicketServiceForTest(t, cache)

		cache.On("GetAvailableCount", mock.Anything, "event-1").Return(0, redisinfra.ErrCacheMiss)
		eventRepo.On("GetByID", mock.Anything, "event-1").Return(testEvent(), nil)
		ticketRepo.On("CountByEventIDAndStatus", mock.Anything, "event-1", ticket.StatusAvailable).Return(7, nil)
		cache.On("SetAvailableCount", mock.Anything, "event-1", 7, inventoryCacheTTL).Return(nil)

		count, err := svc.CountAvailableTickets(context.Background(), "event-1")

		require.NoError(t, err)
		assert.Equal(t, 7, count)
		cache.AssertExpectations(t)
	})

	t.Run("キャッシュなしでも動作する", func(t *testing.T) {
		svc, _, _, ticketRepo, eventRepo, _ := newTicketServiceForTest(t, nil)

		eventRepo.On("GetByID", mock.Anything, "event-1").Return(testEvent(), nil)
		ticketRepo.On("CountByEventIDAndStatus", mock.Anything, "event-1", ticket.StatusAvailable).Return(3, nil)

		count, err := svc.CountAvailableTickets(context.Background(), "event-1")

		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("イベントが存在しない", func(t *testing.T) {
		svc, _, _, ticketRepo, eventRepo, _ := newTicketServiceForTest(t, nil)

		eventRepo.On("GetByID", mock.Anything, "nope").Return(nil, event.ErrEventNotFound)

		count, err := svc.CountAvailableTickets(context.Background(), "nope")

		assert.Zero(t, count)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
		ticketRepo.AssertNotCalled(t, "CountByEventIDAndStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
