package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/restaurant-reservation/internal/pkg/metrics"
)

// ルートに一致しなかったリクエストの path ラベル
const unmatchedRoute = "unmatched"

// OperationOther はどの業務操作にも当たらないリクエストの operation ラベル
const OperationOther = "other"

// routeOperations はメソッドとルートパターンから業務操作名を引く
var routeOperations = map[string]string{
	http.MethodGet + " /reservations":                        "list_reservations",
	http.MethodPost + " /reservations":                       "create_reservation",
	http.MethodGet + " /reservations/:reservation_id":        "get_reservation",
	http.MethodPut + " /reservations/:reservation_id":        "update_reservation",
	http.MethodPut + " /reservations/:reservation_id/status": "update_reservation_status",
	http.MethodGet + " /tables":                              "list_tables",
	http.MethodPost + " /tables":                             "create_table",
	http.MethodPut + " /tables/:table_id/seat":               "seat_table",
	http.MethodDelete + " /tables/:table_id/seat":            "unseat_table",
	http.MethodGet + " /health":                              "health",
	http.MethodGet + " /metrics":                             "metrics",
}

// Operation はルートに対応する業務操作名を返す。未登録なら OperationOther。
func Operation(method, route string) string {
	if op, ok := routeOperations[method+" "+route]; ok {
		return op
	}
	return OperationOther
}

// PrometheusMiddleware は業務操作ごとのHTTPメトリクスを収集するミドルウェア。
// path ラベルはルートパターンで、予約IDやテーブルIDで系列が増えない。
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			method := c.Request().Method
			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			op := Operation(method, route)
			status := strconv.Itoa(responseStatus(c, err))

			m.HTTPRequestsTotal.WithLabelValues(method, route, op, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route, op).Observe(duration)

			return err
		}
	}
}

// responseStatus はエラーハンドラーが返すことになるステータスを求める。
// HTTPError 以外のエラーは CustomHTTPErrorHandler で 500 になる。
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
