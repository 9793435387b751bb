package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Denial causes recorded internally. The HTTP surface always answers with
// the same generic message; this label is the only place causes diverge.
const (
	CauseNotFound         = "not_found"
	CauseNoCredential     = "no_credential"
	CauseBadSecret        = "bad_secret"
	CauseRoleForbidden    = "role_forbidden"
	CauseIdentityMismatch = "identity_mismatch"
	CauseTokenMismatch    = "token_mismatch"
)

type Collector struct {
	loginTotal   *prometheus.CounterVec
	loginDenied  *prometheus.CounterVec
	refreshTotal *prometheus.CounterVec
	logoutTotal  prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by entry path and result.",
		}, []string{"path", "result"}),
		loginDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_denied_total",
			Help: "Denied login attempts by entry path and internal cause.",
		}, []string{"path", "cause"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Access-token refresh attempts by result.",
		}, []string{"result"}),
		logoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_logout_total",
			Help: "Completed logouts.",
		}),
	}

	reg.MustRegister(c.loginTotal, c.loginDenied, c.refreshTotal, c.logoutTotal)
	return c
}

func (c *Collector) RecordLoginSuccess(path string) {
	c.loginTotal.WithLabelValues(path, "success").Inc()
}

func (c *Collector) RecordLoginDenied(path, cause string) {
	c.loginTotal.WithLabelValues(path, "denied").Inc()
	c.loginDenied.WithLabelValues(path, cause).Inc()
}

func (c *Collector) RecordRefresh(result string) {
	c.refreshTotal.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogout() {
	c.logoutTotal.Inc()
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
