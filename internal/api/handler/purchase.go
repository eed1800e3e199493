package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/purchase"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
)

type PurchaseHandler struct {
	purchaseService PurchaseServiceInterface
}

func NewPurchaseHandler(purchaseService PurchaseServiceInterface) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

type CreatePurchaseRequest struct {
	EventID        string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity       int    `json:"quantity" validate:"required,gte=1" example:"2"`
	PaymentToken   string `json:"payment_token" validate:"required" example:"tok_visa_4242"`
	IdempotencyKey string `json:"idempotency_key" validate:"required" example:"order-2026-001"`
}

type PurchaseResponse struct {
	ID               string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID          string   `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	BuyerID          string   `json:"buyer_id" example:"user-123"`
	Quantity         int      `json:"quantity" example:"2"`
	TotalAmountCents int      `json:"total_amount_cents" example:"17000"`
	PaymentReference string   `json:"payment_reference" example:"ch_1a2b3c"`
	TicketCodes      []string `json:"ticket_codes" example:"K7MNP2QRS4WX,B3DFG8HJK2MN"`
	Replayed         bool     `json:"replayed" example:"false"`
	CreatedAt        string   `json:"created_at" example:"2026-08-01T10:00:00+09:00"`
}

func toPurchaseResponse(r *application.PurchaseResult) *PurchaseResponse {
	codes := make([]string, len(r.Tickets))
	for i, t := range r.Tickets {
		codes[i] = t.Code
	}
	return &PurchaseResponse{
		ID:               r.Purchase.ID,
		EventID:          r.Purchase.EventID,
		BuyerID:          r.Purchase.BuyerID,
		Quantity:         r.Purchase.Quantity,
		TotalAmountCents: r.Purchase.TotalAmountCents,
		PaymentReference: r.Purchase.PaymentReference,
		TicketCodes:      codes,
		Replayed:         r.Replayed,
		CreatedAt:        r.Purchase.CreatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary チケットを購入
// @Description チケットを確保し決済して購入を確定します。同一の冪等性キーによる
// @Description 再送は確定済みの結果を再課金なしで返します
// @Tags purchases
// @Accept json
// @Produce json
// @Param X-User-ID header string true "購入者ID"
// @Param X-User-Email header string false "購入者メールアドレス"
// @Param request body CreatePurchaseRequest true "購入情報"
// @Success 201 {object} PurchaseResponse
// @Success 200 {object} PurchaseResponse "冪等リプレイ"
// @Failure 400 {object} api.ErrorResponse
// @Failure 402 {object} api.ErrorResponse "決済拒否"
// @Failure 409 {object} api.ErrorResponse "在庫不足または処理中"
// @Router /purchases [post]
func (h *PurchaseHandler) Create(c echo.Context) error {
	buyerID := c.Request().Header.Get("X-User-ID")
	if buyerID == "" {
		return api.NewError(http.StatusUnauthorized, api.CodeInvalidArgument, "ユーザーIDが必要です")
	}
	var req CreatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.purchaseService.Purchase(c.Request().Context(), application.PurchaseInput{
		EventID:        req.EventID,
		BuyerID:        buyerID,
		BuyerEmail:     c.Request().Header.Get("X-User-Email"),
		Quantity:       req.Quantity,
		PaymentToken:   req.PaymentToken,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "イベントが見つかりません")
		case errors.Is(err, ticket.ErrInsufficientTickets):
			return api.NewError(http.StatusConflict, api.CodeInsufficientInventory, err.Error())
		case errors.Is(err, purchase.ErrPaymentDeclined):
			return api.NewError(http.StatusPaymentRequired, api.CodePaymentDeclined, err.Error())
		case errors.Is(err, purchase.ErrPurchaseInProgress):
			return api.NewError(http.StatusConflict, api.CodeConflict, err.Error())
		case errors.Is(err, purchase.ErrInvalidQuantity),
			errors.Is(err, purchase.ErrIdempotencyKeyRequired),
			errors.Is(err, purchase.ErrPaymentTokenRequired),
			errors.Is(err, purchase.ErrBuyerIDRequired):
			return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, err.Error())
		default:
			return internalError(c, err)
		}
	}

	// 冪等リプレイは新規確定ではないため200で返す
	if result.Replayed {
		return c.JSON(http.StatusOK, toPurchaseResponse(result))
	}
	return c.JSON(http.StatusCreated, toPurchaseResponse(result))
}

// GetByID godoc
// @Summary 購入を取得
// @Description 指定IDの購入記録をチケットコード付きで取得します
// @Tags purchases
// @Produce json
// @Param id path string true "購入ID"
// @Success 200 {object} PurchaseResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	result, err := h.purchaseService.GetPurchase(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, purchase.ErrPurchaseNotFound) {
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "購入記録が見つかりません")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(result))
}

type EventPurchasesResponse struct {
	EventID           string             `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Purchases         []*PurchaseSummary `json:"purchases"`
	TotalRevenueCents int                `json:"total_revenue_cents" example:"340000"`
}

type PurchaseSummary struct {
	ID               string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	BuyerID          string `json:"buyer_id" example:"user-123"`
	BuyerEmail       string `json:"buyer_email" example:"taro@example.com"`
	Quantity         int    `json:"quantity" example:"2"`
	TotalAmountCents int    `json:"total_amount_cents" example:"17000"`
	PaymentReference string `json:"payment_reference" example:"ch_1a2b3c"`
	CreatedAt        string `json:"created_at" example:"2026-08-01T10:00:00+09:00"`
}

// ListByEvent godoc
// @Summary イベントの購入一覧を取得
// @Description 指定イベントの購入記録一覧を購入日時順に、総売上とともに取得します
// @Tags purchases
// @Produce json
// @Param X-User-Role header string true "ユーザーロール（manager必須）"
// @Param id path string true "イベントID"
// @Success 200 {object} EventPurchasesResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/purchases [get]
func (h *PurchaseHandler) ListByEvent(c echo.Context) error {
	eventID := c.Param("id")
	ctx := c.Request().Context()

	purchases, err := h.purchaseService.GetEventPurchases(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "イベントが見つかりません")
		}
		return internalError(c, err)
	}
	revenue, err := h.purchaseService.GetEventRevenue(ctx, eventID)
	if err != nil {
		return internalError(c, err)
	}

	summaries := make([]*PurchaseSummary, len(purchases))
	for i, p := range purchases {
		summaries[i] = &PurchaseSummary{
			ID:               p.ID,
			BuyerID:          p.BuyerID,
			BuyerEmail:       p.BuyerEmail,
			Quantity:         p.Quantity,
			TotalAmountCents: p.TotalAmountCents,
			PaymentReference: p.PaymentReference,
			CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		}
	}
	return c.JSON(http.StatusOK, EventPurchasesResponse{
		EventID:           eventID,
		Purchases:         summaries,
		TotalRevenueCents: revenue,
	})
}
