package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"mairie/internal/dossier"
	"mairie/internal/views"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newMetrics(manager *dossier.Manager) *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		&dossierCollector{manager: manager},
	)

	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mairie_http_requests_total",
				Help: "HTTP requests served by the front office UI",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mairie_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *metrics) observe(r *http.Request, status int, elapsed time.Duration) {
	route := normalizeRoute(r.URL.Path)
	m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// normalizeRoute replaces dossier and attachment ids so label cardinality
// stays bounded.
func normalizeRoute(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static"
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 1 && segments[0] == "dossiers" && segments[1] != "new" {
		segments[1] = ":id"
		if len(segments) > 3 && segments[2] == "attachments" {
			segments[3] = ":attachmentID"
		}
	}

	return "/" + strings.Join(segments, "/")
}

// dossierCollector reports the live collection at scrape time.
type dossierCollector struct {
	manager *dossier.Manager
}

var (
	dossiersByStatusDesc = prometheus.NewDesc(
		"mairie_dossiers_active",
		"Non archived dossiers per status",
		[]string{"status"}, nil,
	)
	dossiersArchivedDesc = prometheus.NewDesc(
		"mairie_dossiers_archived",
		"Archived dossiers",
		nil, nil,
	)
)

func (c *dossierCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dossiersByStatusDesc
	ch <- dossiersArchivedDesc
}

func (c *dossierCollector) Collect(ch chan<- prometheus.Metric) {
	dash := views.DashboardAggregate(c.manager.Dossiers())

	for _, sc := range dash.StatusBreakdown() {
		ch <- prometheus.MustNewConstMetric(dossiersByStatusDesc, prometheus.GaugeValue, float64(sc.Count), sc.Status.Code())
	}
	ch <- prometheus.MustNewConstMetric(dossiersArchivedDesc, prometheus.GaugeValue, float64(dash.Archived))
}
