package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grenlab/grenlin/pkg/graph"
)

var (
	// mutationsTotal counts engine mutations by operation.
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grenlin_mutations_total",
			Help: "Total number of network mutations, labeled by operation",
		},
		[]string{"operation"},
	)

	// nodesGauge tracks the current node count of the graph store.
	nodesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grenlin_nodes",
			Help: "Current number of nodes in the network",
		},
	)

	// edgesGauge tracks the current edge count of the graph store.
	edgesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grenlin_edges",
			Help: "Current number of edges in the network",
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(mutationsTotal)
	prometheus.MustRegister(nodesGauge)
	prometheus.MustRegister(edgesGauge)
}

func updateSizeMetrics(s *graph.Store) {
	nodesGauge.Set(float64(s.NodeCount()))
	edgesGauge.Set(float64(s.EdgeCount()))
}
