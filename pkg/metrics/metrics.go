package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records the service's domain and transport metrics. A nil
// receiver or one built without a registerer is a no-op.
type Storefront struct {
	backendDuration *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	countdownExpiry prometheus.Counter
	httpRequests    *prometheus.CounterVec
	panics          *prometheus.CounterVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_request_duration_seconds",
		Help:    "Duration of upstream service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})
	backendCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_requests_total",
		Help: "Upstream service calls by outcome.",
	}, []string{"service", "outcome"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	countdownExpiry := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_countdown_expired_total",
		Help: "Countdown streams that reached their deadline.",
	})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "method", "status"})
	panics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_panics_total",
		Help: "Handler panics recovered by route pattern.",
	}, []string{"route"})
	reg.MustRegister(backendDuration, backendCalls, cartMutations, checkouts, countdownExpiry, httpRequests, panics)
	return &Storefront{
		backendDuration: backendDuration,
		backendCalls:    backendCalls,
		cartMutations:   cartMutations,
		checkouts:       checkouts,
		countdownExpiry: countdownExpiry,
		httpRequests:    httpRequests,
		panics:          panics,
	}
}

// ObserveBackend records one upstream call.
func (s *Storefront) ObserveBackend(service, outcome string, duration time.Duration) {
	if s == nil || s.backendCalls == nil {
		return
	}
	service = normalizeLabel(service)
	s.backendDuration.WithLabelValues(service).Observe(duration.Seconds())
	s.backendCalls.WithLabelValues(service, normalizeLabel(outcome)).Inc()
}

// IncCartMutation counts a persisted cart change.
func (s *Storefront) IncCartMutation(op string) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCheckout counts an order submission outcome.
func (s *Storefront) IncCheckout(outcome string) {
	if s == nil || s.checkouts == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCountdownExpired counts a countdown that reached zero while streaming.
func (s *Storefront) IncCountdownExpired() {
	if s == nil || s.countdownExpiry == nil {
		return
	}
	s.countdownExpiry.Inc()
}

// ObserveHTTP counts a served request.
func (s *Storefront) ObserveHTTP(route, method string, status int) {
	if s == nil || s.httpRequests == nil {
		return
	}
	s.httpRequests.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Inc()
}

func (s *Storefront) IncPanic(route string) {
	if s == nil || s.panics == nil {
		return
	}
	s.panics.WithLabelValues(normalizeLabel(route)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
