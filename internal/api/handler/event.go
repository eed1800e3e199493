package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	VenueID        string `json:"venue_id" validate:"required" example:"venue-tokyo-dome"`
	Title          string `json:"title" validate:"required" example:"東京ドームコンサート2026"`
	Description    string `json:"description" example:"年末スペシャルコンサート"`
	StartsAt       string `json:"starts_at" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	EndsAt         string `json:"ends_at" validate:"required" example:"2026-12-31T21:00:00+09:00"`
	FaceValueCents int    `json:"face_value_cents" validate:"required,gt=0" example:"8500"`
}

type EventResponse struct {
	ID             string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	VenueID        string `json:"venue_id" example:"venue-tokyo-dome"`
	Title          string `json:"title" example:"東京ドームコンサート2026"`
	Description    string `json:"description" example:"年末スペシャルコンサート"`
	StartsAt       string `json:"starts_at" example:"2026-12-31T18:00:00+09:00"`
	EndsAt         string `json:"ends_at" example:"2026-12-31T21:00:00+09:00"`
	FaceValueCents int    `json:"face_value_cents" example:"8500"`
	TicketsTotal   int    `json:"tickets_total" example:"5000"`
	TicketsSold    int    `json:"tickets_sold" example:"1200"`
	TicketsLeft    int    `json:"tickets_left" example:"3800"`
	CreatedAt      string `json:"created_at" example:"2026-08-01T10:00:00+09:00"`
	UpdatedAt      string `json:"updated_at" example:"2026-08-01T10:00:00+09:00"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:             e.ID,
		VenueID:        e.VenueID,
		Title:          e.Title,
		Description:    e.Description,
		StartsAt:       e.StartsAt.Format(time.RFC3339),
		EndsAt:         e.EndsAt.Format(time.RFC3339),
		FaceValueCents: e.FaceValueCents,
		TicketsTotal:   e.TicketsTotal,
		TicketsSold:    e.TicketsSold,
		TicketsLeft:    e.RemainingTickets(),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを作成します（チケットは別途生成）
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, "開始時刻の形式が不正です")
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, "終了時刻の形式が不正です")
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		VenueID:        req.VenueID,
		Title:          req.Title,
		Description:    req.Description,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		FaceValueCents: req.FaceValueCents,
	})
	if err != nil {
		return api.NewError(http.StatusBadRequest, api.CodeInvalidArgument, err.Error())
	}

	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	e, err := h.eventService.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return api.NewError(http.StatusNotFound, api.CodeNotFound, "イベントが見つかりません")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description イベントの一覧を開催日時順に取得します
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	events, err := h.eventService.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return internalError(c, err)
	}

	responses := make([]*EventResponse, len(events))
	for i, e := range events {
		responses[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, responses)
}
