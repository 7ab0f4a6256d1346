package handler

import (
	"context"

	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	ListReservations(ctx context.Context, q application.ListQuery) ([]*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	CreateReservation(ctx context.Context, in reservation.Input) (*reservation.Reservation, error)
	UpdateReservation(ctx context.Context, id string, in reservation.Input) (*reservation.Reservation, error)
	UpdateStatus(ctx context.Context, id, status string) (reservation.Status, error)
}

// TableServiceInterface はテーブルサービスのインターフェース
type TableServiceInterface interface {
	ListTables(ctx context.Context) ([]*table.Table, error)
	CreateTable(ctx context.Context, name string, capacity int) (*table.Table, error)
	Seat(ctx context.Context, tableID, reservationID string) (*table.Table, error)
	Unseat(ctx context.Context, tableID string) (*table.Table, error)
}

var (
	_ ReservationServiceInterface = (*application.ReservationService)(nil)
	_ TableServiceInterface       = (*application.TableService)(nil)
)
