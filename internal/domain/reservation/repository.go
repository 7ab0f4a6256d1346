package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成し、採番された ID とタイムスタンプを書き戻す
	Create(ctx context.Context, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate はトランザクション内で予約を行ロック付きで取得する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// ListByDate は指定日の終了していない予約を時刻順に取得する
	ListByDate(ctx context.Context, date time.Time) ([]*Reservation, error)

	// SearchByMobileNumber は電話番号（数字のみ）の部分一致で予約を取得する
	SearchByMobileNumber(ctx context.Context, digits string) ([]*Reservation, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error
}
