package observability

import (
	"github.com/bizdesk/bizdesk/internal/totals"
)

// Calculator is the computation being instrumented.
type Calculator interface {
	Compute(in totals.Input) (totals.DocumentTotals, error)
}

type countingCalculator struct {
	next    Calculator
	metrics *Metrics
}

// InstrumentCalculator counts every Compute call made through next.
func (m *Metrics) InstrumentCalculator(next Calculator) Calculator {
	if m == nil {
		return next
	}
	return countingCalculator{next: next, metrics: m}
}

func (c countingCalculator) Compute(in totals.Input) (totals.DocumentTotals, error) {
	out, err := c.next.Compute(in)
	supply := "intra"
	if in.InterState {
		supply = "inter"
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	c.metrics.totalsComputed.WithLabelValues(supply, outcome).Inc()
	return out, err
}
