package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

// ReservationRequest は予約の作成・更新リクエスト。各項目の検証はドメインで行う。
type ReservationRequest struct {
	FirstName       string `json:"first_name" example:"Rick"`
	LastName        string `json:"last_name" example:"Sanchez"`
	MobileNumber    string `json:"mobile_number" example:"202-555-0164"`
	ReservationDate string `json:"reservation_date" example:"2026-12-30"`
	ReservationTime string `json:"reservation_time" example:"18:00"`
	People          any    `json:"people" example:"6"`
	Status          string `json:"status,omitempty" example:"booked"`
}

type reservationEnvelope struct {
	Data *ReservationRequest `json:"data" validate:"required"`
}

// StatusRequest はステータス変更リクエスト
type StatusRequest struct {
	Status string `json:"status" example:"seated"`
}

type statusEnvelope struct {
	Data *StatusRequest `json:"data" validate:"required"`
}

type ReservationResponse struct {
	ReservationID   string    `json:"reservation_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	MobileNumber    string    `json:"mobile_number"`
	ReservationDate string    `json:"reservation_date" example:"2026-12-30"`
	ReservationTime string    `json:"reservation_time" example:"18:00"`
	People          int       `json:"people"`
	Status          string    `json:"status,omitempty" example:"booked"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StatusResponse はステータス変更のレスポンス
type StatusResponse struct {
	Status string `json:"status"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ID, FirstName: r.FirstName, LastName: r.LastName,
		MobileNumber: r.MobileNumber, ReservationDate: r.DateString(),
		ReservationTime: r.Time, People: r.People, Status: string(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (r *ReservationRequest) toInput() reservation.Input {
	return reservation.Input{
		FirstName: r.FirstName, LastName: r.LastName, MobileNumber: r.MobileNumber,
		Date: r.ReservationDate, Time: r.ReservationTime,
		People: r.People, Status: r.Status,
	}
}

// List godoc
// @Summary 予約を検索
// @Description date（その日の終了していない予約を時刻順）か mobile_number（部分一致）のどちらか一方を指定します
// @Tags reservations
// @Produce json
// @Param date query string false "予約日 YYYY-MM-DD"
// @Param mobile_number query string false "電話番号"
// @Success 200 {object} envelope
// @Failure 400 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	params := c.QueryParams()
	var q application.ListQuery
	if params.Has("date") {
		date := params.Get("date")
		q.Date = &date
	}
	if params.Has("mobile_number") {
		mobile := params.Get("mobile_number")
		q.MobileNumber = &mobile
	}

	reservations, err := h.service.ListReservations(c.Request().Context(), q)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, envelope{Data: resp})
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param reservation_id path string true "予約ID"
// @Success 200 {object} envelope
// @Failure 404 {object} map[string]string
// @Router /reservations/{reservation_id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("reservation_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, envelope{Data: toReservationResponse(r)})
}

// Create godoc
// @Summary 予約を作成
// @Description 火曜定休、営業時間 10:30〜21:30、未来の日時のみ受け付けます
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reservationEnvelope true "予約情報"
// @Success 201 {object} envelope
// @Failure 400 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationEnvelope
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), req.Data.toInput())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, envelope{Data: toReservationResponse(r)})
}

// Update godoc
// @Summary 予約を更新
// @Description ステータスは変更しません。終了済みの予約は更新できません
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation_id path string true "予約ID"
// @Param request body reservationEnvelope true "予約情報"
// @Success 200 {object} envelope
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{reservation_id} [put]
func (h *ReservationHandler) Update(c echo.Context) error {
	var req reservationEnvelope
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.UpdateReservation(c.Request().Context(), c.Param("reservation_id"), req.Data.toInput())
	if err != nil {
		return toHTTPError(err)
	}
	resp := toReservationResponse(r)
	resp.Status = ""
	return c.JSON(http.StatusOK, envelope{Data: resp})
}

// UpdateStatus godoc
// @Summary 予約のステータスを変更
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation_id path string true "予約ID"
// @Param request body statusEnvelope true "新しいステータス"
// @Success 200 {object} envelope
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{reservation_id}/status [put]
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	var req statusEnvelope
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	status, err := h.service.UpdateStatus(c.Request().Context(), c.Param("reservation_id"), req.Data.Status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, envelope{Data: StatusResponse{Status: string(status)}})
}
