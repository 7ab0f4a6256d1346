package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/transaction"
)

const selectTable = `SELECT table_id, table_name, capacity, is_seated, reservation_id, created_at, updated_at FROM tables`

type tableRow struct {
	ID            string    `db:"table_id"`
	Name          string    `db:"table_name"`
	Capacity      int       `db:"capacity"`
	Occupied      bool      `db:"is_seated"`
	ReservationID *string   `db:"reservation_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *tableRow) toEntity() *table.Table {
	return &table.Table{
		ID: r.ID, Name: r.Name, Capacity: r.Capacity,
		Occupied: r.Occupied, ReservationID: r.ReservationID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type mismatchRow struct {
	TableID           string `db:"table_id"`
	TableName         string `db:"table_name"`
	ReservationID     string `db:"reservation_id"`
	ReservationStatus string `db:"status"`
	Reason            string `db:"reason"`
}

type TableRepository struct{ db *sqlx.DB }

func NewTableRepository(db *sqlx.DB) *TableRepository { return &TableRepository{db: db} }

func (r *TableRepository) Create(ctx context.Context, t *table.Table) error {
	query := `INSERT INTO tables (table_name, capacity, is_seated, reservation_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING table_id`
	if err := r.db.QueryRowContext(ctx, query, t.Name, t.Capacity, t.Occupied, t.ReservationID, t.CreatedAt, t.UpdatedAt).Scan(&t.ID); err != nil {
		return fmt.Errorf("テーブル作成に失敗: %w", err)
	}
	return nil
}

func (r *TableRepository) GetByID(ctx context.Context, id string) (*table.Table, error) {
	var row tableRow
	if err := r.db.GetContext(ctx, &row, selectTable+` WHERE table_id = $1`, id); err != nil {
		return nil, notFoundOr(err, table.ErrTableNotFound, "テーブル取得に失敗")
	}
	return row.toEntity(), nil
}

func (r *TableRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*table.Table, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row tableRow
	if err := sqlxTx.GetContext(ctx, &row, selectTable+` WHERE table_id = $1 FOR UPDATE`, id); err != nil {
		return nil, notFoundOr(err, table.ErrTableNotFound, "テーブル取得（ロック）に失敗")
	}
	return row.toEntity(), nil
}

func (r *TableRepository) List(ctx context.Context) ([]*table.Table, error) {
	var rows []tableRow
	if err := r.db.SelectContext(ctx, &rows, selectTable+` ORDER BY table_name`); err != nil {
		return nil, fmt.Errorf("テーブル一覧取得に失敗: %w", err)
	}
	tables := make([]*table.Table, len(rows))
	for i := range rows {
		tables[i] = rows[i].toEntity()
	}
	return tables, nil
}

func (r *TableRepository) Update(ctx context.Context, tx transaction.Tx, t *table.Table) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE tables SET is_seated = $1, reservation_id = $2, updated_at = $3 WHERE table_id = $4`
	result, err := sqlxTx.ExecContext(ctx, query, t.Occupied, t.ReservationID, t.UpdatedAt, t.ID)
	if err != nil {
		switch {
		case hasCode(err, codeUniqueViolation):
			// 同じ予約が別のテーブルに着席済み
			return reservation.ErrReservationNotBookable
		case hasCode(err, codeForeignKeyViolation):
			return reservation.ErrReservationNotFound
		}
		return fmt.Errorf("テーブル更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return table.ErrTableNotFound
	}
	return nil
}

func (r *TableRepository) CountOccupied(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tables WHERE is_seated`); err != nil {
		return 0, fmt.Errorf("占有テーブル数取得に失敗: %w", err)
	}
	return count, nil
}

func (r *TableRepository) FindOccupancyMismatches(ctx context.Context) ([]table.Mismatch, error) {
	query := `
SELECT t.table_id::text AS table_id, t.table_name, r.reservation_id::text AS reservation_id, r.status, $1::text AS reason
  FROM tables t
  JOIN reservations r ON r.reservation_id = t.reservation_id
 WHERE t.is_seated AND r.status <> 'seated'
UNION ALL
SELECT '' AS table_id, '' AS table_name, r.reservation_id::text AS reservation_id, r.status, $2::text AS reason
  FROM reservations r
 WHERE r.status = 'seated'
   AND NOT EXISTS (SELECT 1 FROM tables t WHERE t.reservation_id = r.reservation_id AND t.is_seated)`

	var rows []mismatchRow
	if err := r.db.SelectContext(ctx, &rows, query, table.ReasonReservationNotSeated, table.ReasonSeatedWithoutTable); err != nil {
		return nil, fmt.Errorf("占有状態の照合に失敗: %w", err)
	}
	result := make([]table.Mismatch, len(rows))
	for i, row := range rows {
		result[i] = table.Mismatch{
			TableID: row.TableID, TableName: row.TableName,
			ReservationID: row.ReservationID, ReservationStatus: row.ReservationStatus,
			Reason: row.Reason,
		}
	}
	return result, nil
}

var _ table.Repository = (*TableRepository)(nil)
