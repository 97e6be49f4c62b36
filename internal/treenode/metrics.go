package treenode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodesSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treeset_nodes_spawned_total",
		Help: "Total number of tree nodes started, across all generations",
	})
	copyInserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treeset_copy_inserts_total",
		Help: "Total number of live elements re-inserted into a new tree during GC",
	})
	unexpectedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treeset_node_unexpected_messages_total",
		Help: "Messages a tree node dropped because its state does not accept them",
	}, []string{"state", "message"})
)
