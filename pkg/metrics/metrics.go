/*
Provides queue metrics.

Counters are registered on `Registry` which the embedding
program may expose (or gather) as it sees fit.

//
// Gather.
families, err := metrics.Registry.Gather()
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "fifo"
)

//
// Registry.
var Registry = prometheus.NewRegistry()

//
// Counters.
var (
	// Messages appended by write cursors.
	Written = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_written_total",
			Help:      "Messages appended to generation files.",
		})
	// Framed bytes appended by write cursors.
	BytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_written_total",
			Help:      "Framed bytes appended to generation files.",
		})
	// Generation rollovers.
	Rollovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rollovers_total",
			Help:      "Generation rollovers performed by write cursors.",
		})
	// Messages delivered by read cursors.
	Read = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_read_total",
			Help:      "Messages delivered to read cursors.",
		},
		[]string{"reader"})
	// Messages released by read cursors.
	Released = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_released_total",
			Help:      "Messages released (committed) by read cursors.",
		},
		[]string{"reader"})
	// Concurrent pointer mutations detected on release.
	Conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "release_conflicts_total",
			Help:      "Releases rejected because the pointer changed since the read.",
		},
		[]string{"reader"})
	// Empty polls by the bounded-wait reader.
	Polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "empty_polls_total",
			Help:      "Polls that found no data.",
		},
		[]string{"reader"})
	// Generation files removed by housekeeping.
	Removed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generations_removed_total",
			Help:      "Generation files removed by housekeeping.",
		})
)

func init() {
	Registry.MustRegister(
		Written,
		BytesWritten,
		Rollovers,
		Read,
		Released,
		Conflicts,
		Polls,
		Removed)
}
