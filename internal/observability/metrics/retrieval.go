package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/ports"
)

type RetrievalMetrics struct {
	registry *prometheus.Registry

	searchTotal     *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	resultsReturned *prometheus.HistogramVec
	indexUnits      *prometheus.GaugeVec
}

func NewRetrievalMetrics(service string) *RetrievalMetrics {
	registry := prometheus.NewRegistry()

	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hrs",
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total hybrid searches by outcome.",
		},
		[]string{"service", "outcome"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hrs",
			Subsystem: "retrieval",
			Name:      "search_duration_seconds",
			Help:      "Hybrid search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	resultsReturned := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hrs",
			Subsystem: "retrieval",
			Name:      "results_returned",
			Help:      "Distribution of results returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	indexUnits := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hrs",
			Subsystem: "index",
			Name:      "units",
			Help:      "Number of indexed units.",
		},
		[]string{"service"},
	)

	registry.MustRegister(searchTotal, searchDuration, resultsReturned, indexUnits)

	return &RetrievalMetrics{
		registry:        registry,
		searchTotal:     searchTotal,
		searchDuration:  searchDuration,
		resultsReturned: resultsReturned,
		indexUnits:      indexUnits,
	}
}

func (m *RetrievalMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *RetrievalMetrics) ObserveSearch(service string, retrieval domain.Retrieval, duration time.Duration, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case retrieval.Degraded:
		outcome = "degraded"
	case len(retrieval.Results) == 0:
		outcome = "empty"
	}

	m.searchTotal.WithLabelValues(service, outcome).Inc()
	m.searchDuration.WithLabelValues(service).Observe(duration.Seconds())
	if err == nil {
		m.resultsReturned.WithLabelValues(service).Observe(float64(len(retrieval.Results)))
	}
}

func (m *RetrievalMetrics) SetIndexUnits(service string, count int) {
	m.indexUnits.WithLabelValues(service).Set(float64(count))
}

// InstrumentedQueryService decorates a QueryService with search metrics.
type InstrumentedQueryService struct {
	inner   ports.QueryService
	metrics *RetrievalMetrics
	index   ports.UnitIndex
	service string
}

func NewInstrumentedQueryService(
	inner ports.QueryService,
	metrics *RetrievalMetrics,
	index ports.UnitIndex,
	service string,
) *InstrumentedQueryService {
	return &InstrumentedQueryService{
		inner:   inner,
		metrics: metrics,
		index:   index,
		service: service,
	}
}

func (s *InstrumentedQueryService) Retrieve(ctx context.Context, query string) (domain.Retrieval, error) {
	start := time.Now()
	retrieval, err := s.inner.Retrieve(ctx, query)
	s.metrics.ObserveSearch(s.service, retrieval, time.Since(start), err)
	s.metrics.SetIndexUnits(s.service, s.index.Count())
	return retrieval, err
}

// Answer runs a search under the hood, so it is observed the same way
// Retrieve is.
func (s *InstrumentedQueryService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	start := time.Now()
	answer, err := s.inner.Answer(ctx, question)

	var retrieval domain.Retrieval
	if answer != nil {
		retrieval = domain.Retrieval{Results: answer.Sources, Degraded: answer.Degraded}
	}
	s.metrics.ObserveSearch(s.service, retrieval, time.Since(start), err)
	s.metrics.SetIndexUnits(s.service, s.index.Count())
	return answer, err
}
