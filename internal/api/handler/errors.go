package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
)

// toHTTPError はサービス層のエラーをHTTPエラーに変換する
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, table.ErrTableNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, table.ErrTableBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrPartialUpdate):
		return echo.NewHTTPError(http.StatusInternalServerError, application.ErrPartialUpdate.Error()).SetInternal(err)
	case application.IsRejection(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}
