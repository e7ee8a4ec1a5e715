package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Snapshot is a JSON-friendly summary of the triage counters.
type Snapshot struct {
	Turns      int64            `json:"turns"`
	Conditions map[string]int64 `json:"conditions"`
	Bookings   map[string]int64 `json:"bookings"`
	Errors     map[string]int64 `json:"errors"`
}

// TakeSnapshot reads the triage counters out of gatherer.
func TakeSnapshot(gatherer prometheus.Gatherer) Snapshot {
	snap := Snapshot{
		Conditions: map[string]int64{},
		Bookings:   map[string]int64{},
		Errors:     map[string]int64{},
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	families, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	for _, mf := range families {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case turnsMetric:
			for _, metric := range mf.Metric {
				snap.Turns += counterValue(metric)
			}
		case conditionsMetric:
			sumByLabel(mf, "condition", snap.Conditions)
		case bookingsMetric:
			sumByLabel(mf, "outcome", snap.Bookings)
		case errorsMetric:
			sumByLabel(mf, "path", snap.Errors)
		}
	}
	return snap
}

func sumByLabel(mf *dto.MetricFamily, label string, into map[string]int64) {
	for _, metric := range mf.Metric {
		if metric == nil {
			continue
		}
		if value, ok := labelValue(metric, label); ok {
			into[value] += counterValue(metric)
		}
	}
}

func counterValue(metric *dto.Metric) int64 {
	if metric == nil || metric.GetCounter() == nil {
		return 0
	}
	return int64(metric.GetCounter().GetValue())
}

func labelValue(metric *dto.Metric, name string) (string, bool) {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue(), true
		}
	}
	return "", false
}
