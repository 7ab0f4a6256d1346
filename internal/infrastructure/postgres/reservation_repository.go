package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/transaction"
)

const dialectPostgres = "postgres"

var reservationColumns = []any{
	"reservation_id", "first_name", "last_name", "mobile_number",
	"reservation_date", "reservation_time", "people", "status",
	"created_at", "updated_at",
}

const selectReservation = `SELECT reservation_id, first_name, last_name, mobile_number, reservation_date, reservation_time, people, status, created_at, updated_at FROM reservations`

type reservationRow struct {
	ID           string    `db:"reservation_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	MobileNumber string    `db:"mobile_number"`
	Date         time.Time `db:"reservation_date"`
	Time         string    `db:"reservation_time"`
	People       int       `db:"people"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// toEntity は DATE を UTC の 0 時に、TIME を HH:MM に揃える
func (r *reservationRow) toEntity() *reservation.Reservation {
	hhmm := r.Time
	if len(hhmm) > 5 {
		hhmm = hhmm[:5]
	}
	return &reservation.Reservation{
		ID: r.ID, FirstName: r.FirstName, LastName: r.LastName,
		MobileNumber: r.MobileNumber,
		Date:         time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC),
		Time:         hhmm, People: r.People,
		Status:    reservation.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	query := `INSERT INTO reservations (first_name, last_name, mobile_number, reservation_date, reservation_time, people, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING reservation_id`
	if err := r.db.QueryRowContext(ctx, query,
		res.FirstName, res.LastName, res.MobileNumber, res.DateString(), res.Time,
		res.People, string(res.Status), res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	if err := r.db.GetContext(ctx, &row, selectReservation+` WHERE reservation_id = $1`, id); err != nil {
		return nil, notFoundOr(err, reservation.ErrReservationNotFound, "予約取得に失敗")
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row reservationRow
	if err := sqlxTx.GetContext(ctx, &row, selectReservation+` WHERE reservation_id = $1 FOR UPDATE`, id); err != nil {
		return nil, notFoundOr(err, reservation.ErrReservationNotFound, "予約取得（ロック）に失敗")
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) ListByDate(ctx context.Context, date time.Time) ([]*reservation.Reservation, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From("reservations").
		Select(reservationColumns...).
		Where(
			goqu.C("reservation_date").Eq(date.Format(reservation.DateLayout)),
			goqu.C("status").Neq(string(reservation.StatusFinished)),
		).
		Order(goqu.C("reservation_time").Asc()).
		Prepared(true)
	return r.selectRows(ctx, stmt, "日付別予約一覧取得に失敗")
}

func (r *ReservationRepository) SearchByMobileNumber(ctx context.Context, digits string) ([]*reservation.Reservation, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From("reservations").
		Select(reservationColumns...).
		Where(goqu.L("translate(mobile_number, '() -', '')").Like("%"+digits+"%")).
		Order(goqu.C("reservation_date").Asc(), goqu.C("reservation_time").Asc()).
		Prepared(true)
	return r.selectRows(ctx, stmt, "電話番号検索に失敗")
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE reservations SET first_name = $1, last_name = $2, mobile_number = $3, reservation_date = $4, reservation_time = $5, people = $6, status = $7, updated_at = $8 WHERE reservation_id = $9`
	result, err := sqlxTx.ExecContext(ctx, query,
		res.FirstName, res.LastName, res.MobileNumber, res.DateString(), res.Time,
		res.People, string(res.Status), res.UpdatedAt, res.ID,
	)
	if err != nil {
		return notFoundOr(err, reservation.ErrReservationNotFound, "予約更新に失敗")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) selectRows(ctx context.Context, stmt *goqu.SelectDataset, msg string) ([]*reservation.Reservation, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// notFoundOr は行なし・不正な UUID を notFound に変換し、それ以外はラップして返す
func notFoundOr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) || hasCode(err, codeInvalidTextRepr) {
		return notFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

var _ reservation.Repository = (*ReservationRepository)(nil)
