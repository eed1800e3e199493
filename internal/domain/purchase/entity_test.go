package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchase(t *testing.T) {
	p := NewPurchase("event-1", "user-1", "taro@example.com", 2, 17000, "order-001")

	require.NoError(t, p.Validate())
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "event-1", p.EventID)
	assert.Equal(t, "user-1", p.BuyerID)
	assert.Equal(t, 2, p.Quantity)
	assert.Equal(t, 17000, p.TotalAmountCents)
	assert.Equal(t, StatusPending, p.Status)
	assert.Empty(t, p.PaymentReference)
	assert.Equal(t, "order-001", p.IdempotencyKey)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.IsCompleted())
}

func TestPurchase_Complete(t *testing.T) {
	t.Run("仮記録を確定できる", func(t *testing.T) {
		p := NewPurchase("event-1", "user-1", "taro@example.com", 2, 17000, "order-001")

		require.NoError(t, p.Complete("ch_abc"))
		assert.Equal(t, StatusCompleted, p.Status)
		assert.Equal(t, "ch_abc", p.PaymentReference)
		assert.True(t, p.IsCompleted())
	})

	t.Run("確定済みの記録は再確定できない", func(t *testing.T) {
		p := NewPurchase("event-1", "user-1", "taro@example.com", 2, 17000, "order-001")
		require.NoError(t, p.Complete("ch_abc"))

		err := p.Complete("ch_xyz")
		assert.ErrorIs(t, err, ErrPurchaseNotPending)
		assert.Equal(t, "ch_abc", p.PaymentReference)
	})
}

func TestPurchase_Validate(t *testing.T) {
	tests := []struct {
		name        string
		eventID     string
		buyerID     string
		quantity    int
		idemKey     string
		errExpected error
	}{
		{name: "正常な購入記録", eventID: "event-1", buyerID: "user-1", quantity: 2, idemKey: "order-001"},
		{name: "イベントID未指定", eventID: "", buyerID: "user-1", quantity: 2, idemKey: "order-001", errExpected: ErrEventIDRequired},
		{name: "購入者ID未指定", eventID: "event-1", buyerID: "", quantity: 2, idemKey: "order-001", errExpected: ErrBuyerIDRequired},
		{name: "数量が0", eventID: "event-1", buyerID: "user-1", quantity: 0, idemKey: "order-001", errExpected: ErrInvalidQuantity},
		{name: "数量が負", eventID: "event-1", buyerID: "user-1", quantity: -1, idemKey: "order-001", errExpected: ErrInvalidQuantity},
		{name: "冪等性キー未指定", eventID: "event-1", buyerID: "user-1", quantity: 2, idemKey: "", errExpected: ErrIdempotencyKeyRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPurchase(tt.eventID, tt.buyerID, "", tt.quantity, 17000, tt.idemKey)
			err := p.Validate()
			if tt.errExpected != nil {
				assert.ErrorIs(t, err, tt.errExpected)
				return
			}
			require.NoError(t, err)
		})
	}
}
