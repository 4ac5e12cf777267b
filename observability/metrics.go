package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records section durations in a prometheus histogram
type Metrics struct {
	gatherer prometheus.Gatherer

	SectionDurations *prometheus.HistogramVec
	Steps            prometheus.Counter
	SimulationTime   prometheus.Gauge
	TimeStep         prometheus.Gauge
}

// NewMetrics registers the solver metrics against reg, the default registry
// when nil. Registering twice reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (m *Metrics, err error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m = &Metrics{gatherer: prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goamr_section_duration_seconds",
		Help:    "Wall time of profiled solver sections.",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"section"})
	if m.SectionDurations, err = registerHistogramVec(reg, durations, "goamr_section_duration_seconds"); err != nil {
		return nil, err
	}
	if m.Steps, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "goamr_steps_total",
		Help: "Number of completed time steps.",
	}), "goamr_steps_total"); err != nil {
		return nil, err
	}
	if m.SimulationTime, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "goamr_simulation_time",
		Help: "Current simulation time.",
	}), "goamr_simulation_time"); err != nil {
		return nil, err
	}
	if m.TimeStep, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "goamr_time_step",
		Help: "Last time step size.",
	}), "goamr_time_step"); err != nil {
		return nil, err
	}
	return
}

type metricSpan struct {
	obs   prometheus.Observer
	start time.Time
}

func (ms metricSpan) Stop() { ms.obs.Observe(time.Since(ms.start).Seconds()) }

func (m *Metrics) Start(name string) Span {
	return metricSpan{obs: m.SectionDurations.WithLabelValues(name), start: time.Now()}
}

// ObserveStep records a completed step
func (m *Metrics) ObserveStep(time, dt float64) {
	m.Steps.Inc()
	m.SimulationTime.Set(time)
	m.TimeStep.Set(dt)
}

// Handler serves the registry the metrics were registered with
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}
