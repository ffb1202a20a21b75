package symtab

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	SymbolsAdded    *prometheus.CounterVec
	SymbolsRejected *prometheus.CounterVec
	SymbolsDeleted  prometheus.Counter
	TypeChanges     prometheus.Counter
	Rekeys          prometheus.Counter
	AggregateMisses *prometheus.CounterVec
	Diagnostics     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SymbolsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symtab_symbols_added_total",
			Help: "Total number of symbols registered, by source (parsed, user)",
		}, []string{"source"}),
		SymbolsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symtab_symbols_rejected_total",
			Help: "Total number of symbols refused by AddSymbol",
		}, []string{"reason"}),
		SymbolsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symtab_symbols_deleted_total",
			Help: "Total number of symbols removed from the indices",
		}),
		TypeChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symtab_symbol_type_changes_total",
			Help: "Total number of symbol reclassifications",
		}),
		Rekeys: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symtab_symbol_rekeys_total",
			Help: "Total number of symbols moved to a new offset",
		}),
		AggregateMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symtab_aggregate_misses_total",
			Help: "Total number of detaches that found no function or variable at the symbol offset",
		}, []string{"op", "kind"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symtab_diagnostics_total",
			Help: "Total number of non-fatal problems met while editing the table",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SymbolsAdded,
			m.SymbolsRejected,
			m.SymbolsDeleted,
			m.TypeChanges,
			m.Rekeys,
			m.AggregateMisses,
			m.Diagnostics,
		)
	}

	return m
}
