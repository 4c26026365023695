package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "indie_market"

var (
	// Registry holds the marketplace collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	storeMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Committed store mutations by collection and operation.",
		},
		[]string{"collection", "op"},
	)

	appsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "apps",
			Help:      "Apps currently in the store by status.",
		},
		[]string{"status"},
	)

	downloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "downloads_total",
			Help:      "Package downloads by outcome (fetched or fallback).",
		},
		[]string{"outcome"},
	)

	downloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "download_bytes_total",
			Help:      "Package bytes streamed from download links.",
		},
	)

	mailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "mails_total",
			Help:      "Notification mails by kind and result.",
		},
		[]string{"kind", "result"},
	)

	moderationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Admin status decisions by resulting status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		storeMutations,
		appsByStatus,
		downloads,
		downloadBytes,
		mailsSent,
		moderationDecisions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry on a Fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		method := strings.ToUpper(c.Method())
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordDownload(fallback bool) {
	if fallback {
		downloads.WithLabelValues("fallback").Inc()
		return
	}
	downloads.WithLabelValues("fetched").Inc()
}

func AddDownloadBytes(n int64) {
	if n > 0 {
		downloadBytes.Add(float64(n))
	}
}

func RecordMail(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	mailsSent.WithLabelValues(kind, result).Inc()
}

func RecordDecision(status models.Status) {
	moderationDecisions.WithLabelValues(string(status)).Inc()
}

// WatchStore counts store events and keeps the per-status app gauge current
// until ctx is done.
func WatchStore(ctx context.Context, s *store.Store) {
	events, cancel := s.Subscribe(64)
	defer cancel()

	refreshAppGauge(s)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			collection := e.Collection
			if collection == "" {
				collection = "all"
			}
			storeMutations.WithLabelValues(collection, string(e.Op)).Inc()
			if e.Collection == store.KeyApps || e.Op == store.OpReset {
				refreshAppGauge(s)
			}
		}
	}
}

func refreshAppGauge(s *store.Store) {
	counts := map[models.Status]int{
		models.StatusPending:  0,
		models.StatusReview:   0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for _, a := range s.Apps() {
		counts[a.Status]++
	}
	for status, n := range counts {
		appsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}
