package metrics

import (
	"testing"

	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	Read.WithLabelValues("c1").Inc()
	Polls.WithLabelValues("c1").Inc()
	families, err := Registry.Gather()
	g.Expect(err).To(gomega.BeNil())
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, name := range []string{
		"fifo_messages_written_total",
		"fifo_bytes_written_total",
		"fifo_rollovers_total",
		"fifo_messages_read_total",
		"fifo_empty_polls_total",
		"fifo_generations_removed_total",
	} {
		g.Expect(names[name]).To(gomega.BeTrue(), name)
	}
	g.Expect(testutil.ToFloat64(Read.WithLabelValues("c1"))).To(gomega.Equal(float64(1)))
}
