package middleware

import (
	"net/http"
	"time"

	"github.com/mask-shakill/jabotio-dashboard/internal/metrics"
)

// NewMetricsMiddleware はリクエストのステータスコードとレイテンシを記録する
// ミドルウェアを返す。401は認証ゲートでの拒否としても記録する。
func NewMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			collector.RecordHTTPStatus(rec.statusCode)
			collector.RecordRequestLatency(time.Since(start))
			if rec.statusCode == http.StatusUnauthorized {
				collector.RecordSessionRejected()
			}
		})
	}
}
