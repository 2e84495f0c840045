package simprof

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/e7canasta/simcore"
)

// Entry summarizes every observation recorded under one label.
type Entry struct {
	Name    string
	Count   uint64
	TotalNs float64
	MinNs   float64
	MaxNs   float64
}

// Profiler implements simcore.Profiler, recording each scope's
// duration into a local summary table and into a prometheus
// HistogramVec for scraping. Construct with New; the zero value is not
// usable.
type Profiler struct {
	reg  *prometheus.Registry
	hist *prometheus.HistogramVec

	mu      sync.Mutex
	entries map[string]*Entry
}

var _ simcore.Profiler = (*Profiler)(nil)

// New builds a Profiler and registers its histogram on reg. Passing
// nil creates a fresh, private registry.
func New(reg *prometheus.Registry) *Profiler {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "simcore",
		Name:      "scope_duration_seconds",
		Help:      "Duration of a named simcore scope (phase, range task, reduction, frame).",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 2, 24), // 1us .. ~8.4s
	}, []string{"label"})
	reg.MustRegister(hist)

	return &Profiler{
		reg:     reg,
		hist:    hist,
		entries: make(map[string]*Entry),
	}
}

// Scope implements simcore.Profiler.
func (p *Profiler) Scope(label string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.hist.WithLabelValues(label).Observe(d.Seconds())
		p.record(label, float64(d.Nanoseconds()))
	}
}

func (p *Profiler) record(label string, ns float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[label]
	if !ok {
		p.entries[label] = &Entry{Name: label, Count: 1, TotalNs: ns, MinNs: ns, MaxNs: ns}
		return
	}
	e.Count++
	e.TotalNs += ns
	if ns < e.MinNs {
		e.MinNs = ns
	}
	if ns > e.MaxNs {
		e.MaxNs = ns
	}
}

// Summary returns every recorded entry sorted by label.
func (p *Profiler) Summary() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WriteSummary renders Summary as a table of count/avg/total/min/max,
// in the spirit of the reference profiler's dump output.
func (p *Profiler) WriteSummary(w io.Writer) error {
	rows := p.Summary()
	if len(rows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Section\tCount\tAvg (us)\tTotal (ms)\tMin (us)\tMax (us)")
	for _, e := range rows {
		avg := e.TotalNs / float64(e.Count)
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\n",
			e.Name, e.Count, avg/1e3, e.TotalNs/1e6, e.MinNs/1e3, e.MaxNs/1e3)
	}
	return tw.Flush()
}

// Handler exposes this Profiler's registry for scraping.
func (p *Profiler) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}
