package application

import (
	"errors"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/metrics"
)

// ErrPartialUpdate はテーブルと予約の片方だけが書き込まれた可能性があるときのエラー
var ErrPartialUpdate = errors.New("table and reservation may be out of sync")

// rejections は入力やガードで拒否したことを表すエラー
var rejections = []error{
	reservation.ErrMissingField,
	reservation.ErrInvalidDate,
	reservation.ErrInvalidTime,
	reservation.ErrInvalidPartySize,
	reservation.ErrInvalidStatus,
	reservation.ErrClosedDay,
	reservation.ErrNotInFuture,
	reservation.ErrOutsideBusinessHours,
	reservation.ErrReservationFinished,
	reservation.ErrReservationNotFound,
	reservation.ErrReservationNotBookable,
	reservation.ErrBadQuery,
	table.ErrTableNotFound,
	table.ErrTableOccupied,
	table.ErrTableNotOccupied,
	table.ErrInsufficientCapacity,
	table.ErrInvalidTableName,
	table.ErrInvalidCapacity,
	table.ErrTableBusy,
}

// resultOf は操作結果をメトリクスのラベルに変換する
func resultOf(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if errors.Is(err, ErrPartialUpdate) {
		return metrics.ResultPartial
	}
	if IsRejection(err) {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

// IsRejection は err が入力検証・状態ガードによる拒否かを返す
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
