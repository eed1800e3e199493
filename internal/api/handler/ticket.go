package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/ticket"
)

type TicketHandler struct {
	ticketService TicketServiceInterface
}

func NewTicketHandler(ticketService TicketServiceInterface) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

type GenerateTicketsRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=5000" example:"1000"`
}

type GenerateTicketsResponse struct {
	EventID   string `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Generated int    `json:"generated" example:"1000"`
}

type TicketResponse struct {
	ID         string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID    string `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Code       string `json:"code" example:"K7MNP2QRS4WX"`
	Status     string `json:"status" example:"available"`
	PurchaseID string `json:"purchase_id,omitempty"`
	CreatedAt  string `json:"created_at" example:"2026-08-01T10:00:00+09:00"`
}

type AvailabilityResponse struct {
	EventID   string `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Available int    `json:"available" example:"3800"`
}

func toTicketResponse(t *ticket.Ticket) *TicketResponse {
	resp := &TicketResponse{
		ID:        t.ID,
		EventID:   t.EventID,
		Code:      t.Code,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if t.PurchaseID != nil {
		resp.PurchaseID = *t.PurchaseID
	}
	return resp
}

// Generate godoc
// @Summary チケットを一括生成
// @Description 指定イベントのチケットを一括生成します（1〜5000枚）
// @Tags tickets
// @Accept json
// @Produce json
// @Param X-User-Role header string true "ユーザーロール（manager必須）"
// @Param id path string true "イベントID"
// @Param request body GenerateTicketsRequest true "生成情報"
// @Success 201 {object} GenerateTicketsResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/tickets/generate [post]
func (h *TicketHandler) Generate(c echo.Context) error {
	eventID := c.Param("id")
	var req GenerateTicketsRequest
	if err := c.Bind(&req); err != nil {
		return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tickets, err := h.ticketService.GenerateTickets(c.Request().Context(), application.GenerateTicketsInput{
		EventID:    eventID,
		Quantity:   req.Quantity,
		ActorEmail: c.Request().Header.Get("X-User-Email"),
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "イベントが見つかりません")
		case errors.Is(err, ticket.ErrInvalidGenerateQuantity):
			return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, err.Error())
		default:
			return internalError(c, err)
		}
	}

	return c.JSON(http.StatusCreated, GenerateTicketsResponse{
		EventID:   eventID,
		Generated: len(tickets),
	})
}

// ListByEvent godoc
// @Summary イベントのチケット一覧を取得
// @Description 指定イベントの全チケットを取得します
// @Tags tickets
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {array} TicketResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/tickets [get]
func (h *TicketHandler) ListByEvent(c echo.Context) error {
	eventID := c.Param("id")
	tickets, err := h.ticketService.GetTicketsByEvent(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "イベントが見つかりません")
		}
		return internalError(c, err)
	}

	responses := make([]*TicketResponse, len(tickets))
	for i, t := range tickets {
		responses[i] = toTicketResponse(t)
	}
	return c.JSON(http.StatusOK, responses)
}

// Availability godoc
// @Summary 販売可能なチケット数を取得
// @Description 指定イベントの現在購入可能なチケット数を取得します
// @Tags tickets
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/tickets/availability [get]
func (h *TicketHandler) Availability(c echo.Context) error {
	eventID := c.Param("id")
	available, err := h.ticketService.CountAvailableTickets(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "イベントが見つかりません")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		EventID:   eventID,
		Available: available,
	})
}
