// Package metrics exposes counters for the account and record operations.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Decrypt outcome label values.
const (
	OutcomeOK               = "ok"
	OutcomeInvalidFormat    = "invalid_format"
	OutcomeIncorrectViewKey = "incorrect_view_key"
)

type Collector struct {
	KeysGenerated   prometheus.Counter
	DecryptAttempts *prometheus.CounterVec
}

// NewCollector builds the counters and registers them on reg when non-nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		KeysGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdk",
			Subsystem: "account",
			Name:      "keys_generated_total",
			Help:      "Secret keys generated.",
		}),
		DecryptAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdk",
			Subsystem: "record",
			Name:      "decrypt_attempts_total",
			Help:      "Record decrypt attempts by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(c.KeysGenerated, c.DecryptAttempts)
	}
	return c
}

// ObserveDecrypt records one decrypt attempt.
func (c *Collector) ObserveDecrypt(outcome string) {
	c.DecryptAttempts.WithLabelValues(outcome).Inc()
}

// WriteTo renders every metric family on g in the prometheus text format.
func WriteTo(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
