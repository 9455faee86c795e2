package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the referral service. Each
// instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ReferralOutcomes   *prometheus.CounterVec
	ClaimsIssued       prometheus.Counter
	IssueDuration      prometheus.Histogram
	ResolverDuration   *prometheus.HistogramVec
	ProfileCache       *prometheus.CounterVec
	ResolverBreaker    prometheus.Gauge
	RateLimited        prometheus.Counter
	EndpointLatency    *prometheus.HistogramVec
	ClaimVerifications *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReferralOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_requests_total",
			Help: "Referral requests by outcome (issued or rejection reason)",
		}, []string{"outcome"}),
		ClaimsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "referral_claims_issued_total",
			Help: "Signed referral claims issued",
		}),
		IssueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "referral_issue_duration_seconds",
			Help:    "Time spent signing and recording a referral pair",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ResolverDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "referral_resolver_duration_seconds",
			Help:    "Identity resolver lookup latency by result",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		ProfileCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_profile_cache_total",
			Help: "Profile cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		ResolverBreaker: f.NewGauge(prometheus.GaugeOpts{
			Name: "referral_resolver_breaker_open",
			Help: "1 when the identity resolver circuit breaker is open",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "referral_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "referral_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ClaimVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_claim_verifications_total",
			Help: "Claim verification attempts by result",
		}, []string{"result"}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncrementOutcome(outcome string) {
	m.ReferralOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveIssue(d time.Duration, claims int) {
	m.IssueDuration.Observe(d.Seconds())
	m.ClaimsIssued.Add(float64(claims))
}

func (m *Metrics) ObserveResolver(result string, d time.Duration) {
	m.ResolverDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) IncrementCache(result string) {
	m.ProfileCache.WithLabelValues(result).Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.ResolverBreaker.Set(1)
		return
	}
	m.ResolverBreaker.Set(0)
}

func (m *Metrics) IncrementRateLimited() {
	m.RateLimited.Inc()
}

func (m *Metrics) ObserveEndpoint(route, method string, d time.Duration) {
	m.EndpointLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) IncrementVerification(result string) {
	m.ClaimVerifications.WithLabelValues(result).Inc()
}
