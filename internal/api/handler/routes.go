package handler

import "github.com/labstack/echo/v4"

// envelope はリクエスト・レスポンス共通の {"data": ...} 形式
type envelope struct {
	Data any `json:"data"`
}

// RegisterRoutes は予約・テーブルのルートを登録する
func RegisterRoutes(e *echo.Echo, rh *ReservationHandler, th *TableHandler, hh *HealthHandler) {
	e.GET("/health", hh.Check)

	reservations := e.Group("/reservations")
	reservations.GET("", rh.List)
	reservations.POST("", rh.Create)
	reservations.GET("/:reservation_id", rh.GetByID)
	reservations.PUT("/:reservation_id", rh.Update)
	reservations.PUT("/:reservation_id/status", rh.UpdateStatus)

	tables := e.Group("/tables")
	tables.GET("", th.List)
	tables.POST("", th.Create)
	tables.PUT("/:table_id/seat", th.Seat)
	tables.DELETE("/:table_id/seat", th.Unseat)
}
