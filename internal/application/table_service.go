package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/restaurant-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/logger"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/metrics"
)

const (
	tableCacheTTL  = 30 * time.Second
	lockTTL        = 10 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// LockManager はテーブル単位の分散ロックを提供する
type LockManager interface {
	AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (redisinfra.Lock, error)
}

// TableCache はテーブル一覧のキャッシュ
type TableCache interface {
	GetTables(ctx context.Context) ([]*table.Table, error)
	SetTables(ctx context.Context, tables []*table.Table, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// OccupancyPublisher は着席・退席イベントを外部に通知する
type OccupancyPublisher interface {
	PublishOccupancy(ctx context.Context, event table.OccupancyEvent) error
}

// TableService はテーブルの管理と、予約との着席・退席の調整を行う
type TableService struct {
	txManager       transaction.Manager
	tableRepo       table.Repository
	reservationRepo reservation.Repository
	metrics         *metrics.Metrics

	lockManager LockManager
	cache       TableCache
	publisher   OccupancyPublisher
}

// TableServiceOption は TableService の任意の依存を設定する
type TableServiceOption func(*TableService)

func WithLockManager(lm LockManager) TableServiceOption {
	return func(s *TableService) { s.lockManager = lm }
}

func WithTableCache(c TableCache) TableServiceOption {
	return func(s *TableService) { s.cache = c }
}

func WithPublisher(p OccupancyPublisher) TableServiceOption {
	return func(s *TableService) { s.publisher = p }
}

func NewTableService(tm transaction.Manager, tr table.Repository, rr reservation.Repository, m *metrics.Metrics, opts ...TableServiceOption) *TableService {
	s := &TableService{txManager: tm, tableRepo: tr, reservationRepo: rr, metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTables はテーブル一覧を名前順で返す
func (s *TableService) ListTables(ctx context.Context) ([]*table.Table, error) {
	if s.cache != nil {
		tables, err := s.cache.GetTables(ctx)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.Int("tables", len(tables)))
			return tables, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	tables, err := s.tableRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetTables(ctx, tables, tableCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}
	return tables, nil
}

// CreateTable は空きテーブルを作成する
func (s *TableService) CreateTable(ctx context.Context, name string, capacity int) (*table.Table, error) {
	t := table.NewTable(name, capacity)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.tableRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	logger.Table(t.ID).Info("テーブルを作成しました", zap.String("name", t.Name), zap.Int("capacity", t.Capacity))
	return t, nil
}

// Seat は予約をテーブルに着席させる。
// テーブルの占有と予約の seated への変更は同じトランザクションで書き込む。
func (s *TableService) Seat(ctx context.Context, tableID, reservationID string) (t *table.Table, err error) {
	defer func() { s.record("seat", err) }()

	release, err := s.lockTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	defer release()

	t, res, err := s.seatInTx(ctx, tableID, reservationID)
	if err != nil {
		return nil, err
	}

	s.afterOccupancyChange(ctx, table.NewSeatedEvent(t, res.ID, res.People))
	logger.Table(tableID).Info("着席しました", zap.String("reservation_id", res.ID), zap.Int("people", res.People))
	return t, nil
}

func (s *TableService) seatInTx(ctx context.Context, tableID, reservationID string) (*table.Table, *reservation.Reservation, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, nil, s.abort(tx, err)
	}
	if err := res.Seat(); err != nil {
		return nil, nil, s.abort(tx, err)
	}
	t, err := s.tableRepo.GetByIDForUpdate(ctx, tx, tableID)
	if err != nil {
		return nil, nil, s.abort(tx, err)
	}
	if err := t.Occupy(res.ID, res.People); err != nil {
		return nil, nil, s.abort(tx, err)
	}

	if err := s.tableRepo.Update(ctx, tx, t); err != nil {
		return nil, nil, s.abortWrite(tx, err, tableID, reservationID)
	}
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, nil, s.abortWrite(tx, err, tableID, reservationID)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, s.abortWrite(tx, fmt.Errorf("コミットに失敗: %w", err), tableID, reservationID)
	}
	return t, res, nil
}

// Unseat はテーブルを空け、着席していた予約を finished にする
func (s *TableService) Unseat(ctx context.Context, tableID string) (t *table.Table, err error) {
	defer func() { s.record("unseat", err) }()

	release, err := s.lockTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	defer release()

	t, reservationID, err := s.unseatInTx(ctx, tableID)
	if err != nil {
		return nil, err
	}

	s.afterOccupancyChange(ctx, table.NewFreedEvent(t, reservationID))
	logger.Table(tableID).Info("退席しました", zap.String("reservation_id", reservationID))
	return t, nil
}

func (s *TableService) unseatInTx(ctx context.Context, tableID string) (*table.Table, string, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, "", err
	}

	t, err := s.tableRepo.GetByIDForUpdate(ctx, tx, tableID)
	if err != nil {
		return nil, "", s.abort(tx, err)
	}
	reservationID, err := t.Release()
	if err != nil {
		return nil, "", s.abort(tx, err)
	}
	res, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, "", s.abort(tx, err)
	}
	res.Finish()

	if err := s.tableRepo.Update(ctx, tx, t); err != nil {
		return nil, "", s.abortWrite(tx, err, tableID, reservationID)
	}
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, "", s.abortWrite(tx, err, tableID, reservationID)
	}
	if err := tx.Commit(); err != nil {
		return nil, "", s.abortWrite(tx, fmt.Errorf("コミットに失敗: %w", err), tableID, reservationID)
	}
	return t, reservationID, nil
}

// AuditReport は占有状態の監査結果
type AuditReport struct {
	Occupied   int
	Mismatches []table.Mismatch
}

// AuditOccupancy は占有テーブル数と不整合を集計し、ゲージに反映する
func (s *TableService) AuditOccupancy(ctx context.Context) (*AuditReport, error) {
	occupied, err := s.tableRepo.CountOccupied(ctx)
	if err != nil {
		return nil, err
	}
	mismatches, err := s.tableRepo.FindOccupancyMismatches(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.OccupiedTables.Set(float64(occupied))
	s.metrics.OccupancyMismatches.Set(float64(len(mismatches)))
	return &AuditReport{Occupied: occupied, Mismatches: mismatches}, nil
}

// lockTable は Redis が設定されていればテーブルのロックを取得する
func (s *TableService) lockTable(ctx context.Context, tableID string) (func(), error) {
	if s.lockManager == nil {
		return func() {}, nil
	}

	start := time.Now()
	lock, err := s.lockManager.AcquireLockWithRetry(ctx, redisinfra.TableLockKey(tableID), lockTTL, lockMaxRetries, lockRetryDelay)
	if err != nil {
		s.metrics.DistributedLockDuration.WithLabelValues("acquire", "failed").Observe(time.Since(start).Seconds())
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			return nil, table.ErrTableBusy
		}
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	s.metrics.DistributedLockDuration.WithLabelValues("acquire", "success").Observe(time.Since(start).Seconds())

	return func() {
		start := time.Now()
		status := "success"
		// リクエストがキャンセルされてもロックは解放する
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			status = "failed"
			logger.Warn("ロック解放に失敗", zap.String("table_id", tableID), zap.Error(err))
		}
		s.metrics.DistributedLockDuration.WithLabelValues("release", status).Observe(time.Since(start).Seconds())
	}, nil
}

// abort は書き込み前に拒否したトランザクションを閉じる
func (s *TableService) abort(tx transaction.Tx, cause error) error {
	if err := transaction.Rollback(tx); err != nil {
		logger.Warn("ロールバックに失敗", zap.Error(err))
	}
	return cause
}

// abortWrite は書き込み途中で失敗したトランザクションを閉じる。
// ロールバックにも失敗した場合は片側だけ反映された可能性がある。
func (s *TableService) abortWrite(tx transaction.Tx, cause error, tableID, reservationID string) error {
	if err := transaction.Rollback(tx); err != nil {
		logger.Error("ロールバックに失敗しました。テーブルと予約の状態を確認してください",
			zap.String("table_id", tableID),
			zap.String("reservation_id", reservationID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v (rollback: %v)", ErrPartialUpdate, cause, err)
	}
	return cause
}

// afterOccupancyChange はコミット後の後処理。失敗しても操作自体は成功として扱う。
func (s *TableService) afterOccupancyChange(ctx context.Context, event table.OccupancyEvent) {
	s.invalidateCache(ctx)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOccupancy(ctx, event); err != nil {
		logger.Warn("占有イベントの発行に失敗",
			zap.String("type", event.Type),
			zap.String("table_id", event.TableID),
			zap.Error(err),
		)
	}
}

func (s *TableService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}

func (s *TableService) record(operation string, err error) {
	s.metrics.SeatingsTotal.WithLabelValues(operation, resultOf(err)).Inc()
}
