package observability

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Span is an open profiling section
type Span interface {
	Stop()
}

// Profiler opens named sections, used as
//
//	defer prof.Start("AdvanceSingleStep").Stop()
type Profiler interface {
	Start(name string) Span
}

type noopSpan struct{}

func (noopSpan) Stop() {}

// Noop discards every section
type Noop struct{}

func (Noop) Start(string) Span { return noopSpan{} }

// Multi fans each section out to several profilers
type Multi []Profiler

func (m Multi) Start(name string) Span {
	spans := make(multiSpan, len(m))
	for i, p := range m {
		spans[i] = p.Start(name)
	}
	return spans
}

type multiSpan []Span

func (ms multiSpan) Stop() {
	for i := len(ms) - 1; i >= 0; i-- {
		ms[i].Stop()
	}
}

// Timer accumulates wall time per section and can log the totals
type Timer struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	counts map[string]int
	now    func() time.Time
}

func NewTimer() *Timer {
	return &Timer{
		totals: make(map[string]time.Duration),
		counts: make(map[string]int),
		now:    time.Now,
	}
}

type timerSpan struct {
	t     *Timer
	name  string
	start time.Time
}

func (t *Timer) Start(name string) Span {
	return &timerSpan{t: t, name: name, start: t.now()}
}

func (ts *timerSpan) Stop() {
	elapsed := ts.t.now().Sub(ts.start)
	ts.t.mu.Lock()
	defer ts.t.mu.Unlock()
	ts.t.totals[ts.name] += elapsed
	ts.t.counts[ts.name]++
}

// Total returns the accumulated time and call count of a section
func (t *Timer) Total(name string) (d time.Duration, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals[name], t.counts[name]
}

// Log writes one line per section
func (t *Timer) Log(log logrus.FieldLogger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, d := range t.totals {
		log.WithFields(logrus.Fields{
			"section": name,
			"calls":   t.counts[name],
			"total":   d,
		}).Info("profile")
	}
}
