package util

import "github.com/prometheus/client_golang/prometheus"

type Counters struct {
	RegistryQueries prometheus.CounterVec
	ReconcilePasses prometheus.Counter
	Deletions       prometheus.CounterVec
}

func CreateCounters() Counters {
	registry_query_counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laconicman_registry_queries_total",
		Help: "Total number of registry record queries",
	}, []string{"outcome"})
	reconcile_pass_counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laconicman_reconcile_passes_total",
		Help: "Number of completed reconciliation passes",
	})
	deletion_counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laconicman_deletions_total",
		Help: "Total number of issued resource deletions",
	}, []string{"result"})

	return Counters{
		RegistryQueries: *registry_query_counter,
		ReconcilePasses: reconcile_pass_counter,
		Deletions:       *deletion_counter,
	}
}

func CreateAndRegisterCounters() Counters {
	counters := CreateCounters()
	prometheus.MustRegister(counters.RegistryQueries, counters.ReconcilePasses, counters.Deletions)

	return counters
}
