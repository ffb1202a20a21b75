package demangle

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ianlancetaylor/demangle"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symtab_demangle_cache_hits_total",
			Help: "Total number of demangled names served from the cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symtab_demangle_cache_misses_total",
			Help: "Total number of names demangled from scratch",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheHits, m.CacheMisses)
	}
	return m
}

type names struct {
	pretty string
	typed  string
}

// Demangler computes pretty (simplified) and typed (full signature) names
// for C++ and Rust symbols. Names that are not mangled are returned as is.
type Demangler struct {
	pretty  []demangle.Option
	typed   []demangle.Option
	cache   *lru.Cache[string, names]
	metrics *Metrics
}

func New(cfg Config, metrics *Metrics) (*Demangler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	d := &Demangler{
		pretty:  ConvertDemangleOptions(cfg.Mode),
		metrics: metrics,
	}
	if len(d.pretty) > 0 {
		d.typed = DemangleFull
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, names](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		d.cache = cache
	}
	return d, nil
}

func (d *Demangler) Demangle(name string) (pretty, typed string) {
	if d.cache != nil {
		if n, ok := d.cache.Get(name); ok {
			d.metrics.CacheHits.Inc()
			return n.pretty, n.typed
		}
	}
	d.metrics.CacheMisses.Inc()
	n := names{pretty: name, typed: name}
	if len(d.pretty) > 0 {
		n.pretty = demangle.Filter(name, d.pretty...)
		n.typed = demangle.Filter(name, d.typed...)
	}
	if d.cache != nil {
		d.cache.Add(name, n)
	}
	return n.pretty, n.typed
}
