package table

import (
	"context"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/transaction"
)

// Mismatch は「占有中 ⇔ seated の予約を参照」が崩れている行
type Mismatch struct {
	TableID           string
	TableName         string
	ReservationID     string
	ReservationStatus string
	Reason            string
}

// 不整合の種類
const (
	ReasonReservationNotSeated = "occupied table references a reservation that is not seated"
	ReasonSeatedWithoutTable   = "seated reservation is not linked from any occupied table"
)

// Repository はテーブルリポジトリのインターフェース
type Repository interface {
	// Create は新しいテーブルを作成する
	Create(ctx context.Context, table *Table) error

	// GetByID はIDからテーブルを取得する
	GetByID(ctx context.Context, id string) (*Table, error)

	// GetByIDForUpdate はトランザクション内でテーブルを行ロック付きで取得する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Table, error)

	// List はテーブル一覧を名前順に取得する
	List(ctx context.Context) ([]*Table, error)

	// Update は占有状態を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, table *Table) error

	// CountOccupied は占有中のテーブル数を返す
	CountOccupied(ctx context.Context) (int, error)

	// FindOccupancyMismatches はテーブルと予約の状態が食い違っている行を返す
	FindOccupancyMismatches(ctx context.Context) ([]Mismatch, error)
}
