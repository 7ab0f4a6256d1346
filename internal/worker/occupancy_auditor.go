package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/logger"
)

// OccupancyAuditSource は占有状態の監査結果を返す
type OccupancyAuditSource interface {
	AuditOccupancy(ctx context.Context) (*application.AuditReport, error)
}

// DefaultAuditInterval は interval が 0 以下のときに使う監査間隔
const DefaultAuditInterval = time.Minute

// OccupancyAuditor はテーブルと予約の占有状態を定期的に突き合わせるワーカー
type OccupancyAuditor struct {
	source   OccupancyAuditSource
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewOccupancyAuditor は新しい監査ワーカーを作成
func NewOccupancyAuditor(source OccupancyAuditSource, interval time.Duration) *OccupancyAuditor {
	if interval <= 0 {
		interval = DefaultAuditInterval
	}
	return &OccupancyAuditor{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start は監査を開始する。起動直後に一度実行し、以降は interval ごとに実行する。
func (a *OccupancyAuditor) Start(ctx context.Context) {
	logger.Info("占有状態監査ワーカー開始", zap.Duration("interval", a.interval))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	defer close(a.doneCh)

	a.audit(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("占有状態監査ワーカー停止（コンテキストキャンセル）")
			return
		case <-a.stopCh:
			logger.Info("占有状態監査ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			a.audit(ctx)
		}
	}
}

// Stop は監査を停止し、実行中の監査が終わるまで待つ
func (a *OccupancyAuditor) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

func (a *OccupancyAuditor) audit(ctx context.Context) {
	log := logger.Get()

	report, err := a.source.AuditOccupancy(ctx)
	if err != nil {
		log.Error("占有状態の監査失敗", zap.Error(err))
		return
	}

	for _, m := range report.Mismatches {
		log.Warn("占有状態の不整合",
			zap.String("table_id", m.TableID),
			zap.String("table_name", m.TableName),
			zap.String("reservation_id", m.ReservationID),
			zap.String("reservation_status", m.ReservationStatus),
			zap.String("reason", m.Reason),
		)
	}
	log.Debug("占有状態の監査完了",
		zap.Int("occupied", report.Occupied),
		zap.Int("mismatches", len(report.Mismatches)),
	)
}
