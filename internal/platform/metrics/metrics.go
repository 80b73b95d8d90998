// Package metrics registra los contadores Prometheus del servicio.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petguard",
		Name:      "guard_decisions_total",
		Help:      "Decisiones del route guard y del client guard por acción.",
	}, []string{"guard", "action"})

	SessionResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petguard",
		Name:      "session_resolutions_total",
		Help:      "Resoluciones de sesión por resultado (ok, none, refreshed, failure).",
	}, []string{"result"})

	PublicLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petguard",
		Name:      "public_lookups_total",
		Help:      "Consultas públicas por identificador corto.",
	}, []string{"result"})

	FoundReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petguard",
		Name:      "found_reports_total",
		Help:      "Reportes de hallazgo recibidos por resultado.",
	}, []string{"result"})

	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petguard",
		Name:      "quota_rejections_total",
		Help:      "Altas de mascota rechazadas por límite del plan.",
	})
)

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
