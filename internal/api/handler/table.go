package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
)

type TableHandler struct {
	service TableServiceInterface
}

func NewTableHandler(s TableServiceInterface) *TableHandler {
	return &TableHandler{service: s}
}

// CreateTableRequest はテーブル作成リクエスト
type CreateTableRequest struct {
	TableName string `json:"table_name" validate:"required" example:"Bar #1"`
	Capacity  any    `json:"capacity" example:"4"`
}

type createTableEnvelope struct {
	Data *CreateTableRequest `json:"data" validate:"required"`
}

// SeatRequest は着席リクエスト
type SeatRequest struct {
	ReservationID string `json:"reservation_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type seatEnvelope struct {
	Data *SeatRequest `json:"data" validate:"required"`
}

type TableResponse struct {
	TableID       string    `json:"table_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TableName     string    `json:"table_name" example:"Bar #1"`
	Capacity      int       `json:"capacity" example:"4"`
	Occupied      bool      `json:"occupied"`
	ReservationID *string   `json:"reservation_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTableResponse(t *table.Table) TableResponse {
	return TableResponse{
		TableID: t.ID, TableName: t.Name, Capacity: t.Capacity,
		Occupied: t.Occupied, ReservationID: t.ReservationID,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

// capacityValue は JSON の数値を整数に変換する。小数や文字列は受け付けない。
func capacityValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// List godoc
// @Summary テーブル一覧
// @Tags tables
// @Produce json
// @Success 200 {object} envelope
// @Router /tables [get]
func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.service.ListTables(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]TableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	return c.JSON(http.StatusOK, envelope{Data: resp})
}

// Create godoc
// @Summary テーブルを作成
// @Description table_name は2文字以上、capacity は正の整数
// @Tags tables
// @Accept json
// @Produce json
// @Param request body createTableEnvelope true "テーブル情報"
// @Success 201 {object} envelope
// @Failure 400 {object} map[string]string
// @Router /tables [post]
func (h *TableHandler) Create(c echo.Context) error {
	var req createTableEnvelope
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	// 名前を先に検証し、定員のエラーより優先する
	if err := table.ValidName(req.Data.TableName); err != nil {
		return toHTTPError(err)
	}
	capacity, ok := capacityValue(req.Data.Capacity)
	if !ok {
		return toHTTPError(table.ErrInvalidCapacity)
	}
	t, err := h.service.CreateTable(c.Request().Context(), req.Data.TableName, capacity)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, envelope{Data: toTableResponse(t)})
}

// Seat godoc
// @Summary 予約をテーブルに着席させる
// @Description 予約は booked、テーブルは空きで定員以内である必要があります
// @Tags tables
// @Accept json
// @Produce json
// @Param table_id path string true "テーブルID"
// @Param request body seatEnvelope true "予約ID"
// @Success 200 {object} envelope
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "同じテーブルを処理中"
// @Router /tables/{table_id}/seat [put]
func (h *TableHandler) Seat(c echo.Context) error {
	var req seatEnvelope
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	t, err := h.service.Seat(c.Request().Context(), c.Param("table_id"), req.Data.ReservationID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, envelope{Data: toTableResponse(t)})
}

// Unseat godoc
// @Summary テーブルを空ける
// @Description 着席していた予約は finished になります
// @Tags tables
// @Produce json
// @Param table_id path string true "テーブルID"
// @Success 200 {object} envelope
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tables/{table_id}/seat [delete]
func (h *TableHandler) Unseat(c echo.Context) error {
	t, err := h.service.Unseat(c.Request().Context(), c.Param("table_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, envelope{Data: toTableResponse(t)})
}
