/*
Package metrics exports ledger activity to Prometheus.

METRICS:
  loan_ledger_mutations_total{op}        counter  mutations applied in memory
  loan_ledger_save_failures_total{op}    counter  mutations that could not be persisted
  loan_ledger_imports_total{outcome}     counter  ok | invalid
  loan_ledger_persons                    gauge    persons after the last mutation
  loan_ledger_transactions               gauge    transactions after the last mutation

Each Metrics owns its registry, so tests and multiple servers in one process
never collide on registration.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loan_ledger"

// Metrics implements ledger.Observer.
type Metrics struct {
	registry     *prometheus.Registry
	mutations    *prometheus.CounterVec
	saveFailures *prometheus.CounterVec
	imports      *prometheus.CounterVec
	persons      prometheus.Gauge
	transactions prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Ledger mutations applied, by operation.",
		}, []string{"op"}),
		saveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_failures_total",
			Help:      "Mutations applied in memory but not persisted, by operation.",
		}, []string{"op"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Import attempts, by outcome.",
		}, []string{"outcome"}),
		persons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persons",
			Help:      "Persons in the ledger.",
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "Transactions in the ledger.",
		}),
	}
	m.registry.MustRegister(
		m.mutations,
		m.saveFailures,
		m.imports,
		m.persons,
		m.transactions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveMutation(op string, persons, transactions int) {
	m.mutations.WithLabelValues(op).Inc()
	m.SetCounts(persons, transactions)
}

func (m *Metrics) ObserveSaveFailure(op string) {
	m.saveFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveImport(outcome string) {
	m.imports.WithLabelValues(outcome).Inc()
}

// SetCounts sets the size gauges, e.g. after Load.
func (m *Metrics) SetCounts(persons, transactions int) {
	m.persons.Set(float64(persons))
	m.transactions.Set(float64(transactions))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
