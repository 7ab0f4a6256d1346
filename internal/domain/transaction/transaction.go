package transaction

import (
	"context"
	"errors"
)

// ErrTxDone はコミット済み・ロールバック済みのトランザクションを操作したときのエラー
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする。終了済みなら ErrTxDone を返す。
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}

// Rollback は defer 用のロールバック。終了済みトランザクションのエラーは無視する。
func Rollback(tx Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, ErrTxDone) {
		return err
	}
	return nil
}
