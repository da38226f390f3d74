package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Keys for pkgindex metrics.
const (
	Fail     = "fail"
	Ok       = "ok"
	NotFound = "not_found"
)

// Collectors for index opens and mutations.
var (
	IndexOpenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgindex_open_total",
		Help: "Cumulative number of index opens and creates, by disposition and outcome.",
	}, []string{"disposition", "outcome"})
	IndexMutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgindex_mutation_total",
		Help: "Cumulative number of index mutations, by operation and outcome.",
	}, []string{"op", "outcome"})
)

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for collection by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Outcome maps an error to Ok or Fail.
func Outcome(err error) string {
	if err != nil {
		return Fail
	}
	return Ok
}
