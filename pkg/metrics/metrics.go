package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	ModulesWalked   prometheus.Counter
	EntriesWalked   *prometheus.CounterVec
	TargetsResolved *prometheus.CounterVec
	WalkErrors      prometheus.Counter
	ObjectLookups   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ModulesWalked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dynwalk_modules_walked_total",
			Help: "Number of link_map entries visited.",
		}),
		EntriesWalked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynwalk_dynamic_entries_walked_total",
			Help: "Number of dynamic entries visited, by tag name.",
		}, []string{"tag"}),
		TargetsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynwalk_targets_resolved_total",
			Help: "Number of dynamic entries resolved to a table, by table kind.",
		}, []string{"kind"}),
		WalkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dynwalk_walk_errors_total",
			Help: "Number of walks aborted by a memory read error.",
		}),
		ObjectLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dynwalk_object_lookups_total",
			Help: "Number of on-disk object inspections, by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ModulesWalked,
			m.EntriesWalked,
			m.TargetsResolved,
			m.WalkErrors,
			m.ObjectLookups,
		)
	}

	return m
}
