package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 操作結果ラベル
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected" // 検証・ガードで拒否
	ResultPartial  = "partial"  // 片側だけ書き込まれた疑い
	ResultError    = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, operation, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path, operation）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の総数（operation: create/update/status, result）
	ReservationsTotal *prometheus.CounterVec

	// 着席・退席操作の総数（operation: seat/unseat, result）
	SeatingsTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 占有中のテーブル数
	OccupiedTables prometheus.Gauge

	// 監査で見つかった占有状態の不整合数
	OccupancyMismatches prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "operation", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "operation"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation write attempts",
			},
			[]string{"operation", "result"},
		),
		SeatingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seatings_total",
				Help: "Total number of seat and unseat attempts",
			},
			[]string{"operation", "result"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		OccupiedTables: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "occupied_tables",
				Help: "Current number of occupied tables",
			},
		),
		OccupancyMismatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "occupancy_mismatches",
				Help: "Rows violating the table/reservation occupancy invariant at the last audit",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.SeatingsTotal,
		m.DistributedLockDuration,
		m.OccupiedTables,
		m.OccupancyMismatches,
	)

	return m
}

// NewNop はどこにも登録しないメトリクスを返す（テスト・メトリクス無効時用）
func NewNop() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}
