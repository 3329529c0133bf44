// Package metrics exports prometheus counters for transform lookups, script
// evaluations and record lifecycle events.
package metrics

import (
	"context"
	"strconv"
	"sync"

	attrs "github.com/goliatone/go-attrs"
	"github.com/goliatone/go-attrs/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns one set of attrs metrics.
type Collector struct {
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	scripts        *prometheus.CounterVec
	scriptDuration *prometheus.HistogramVec
	events         *prometheus.CounterVec
	eventKeys      *prometheus.CounterVec
}

// NewCollector builds unregistered metrics under namespace ("attrs" when
// empty).
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "attrs"
	}
	return &Collector{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "lookups_total",
				Help:      "Transform lookups by how they were resolved.",
			},
			[]string{"source"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "lookup_duration_seconds",
				Help:      "Transform lookup duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(1e-7, 10, 7),
			},
			[]string{"source"},
		),
		scripts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "script",
				Name:      "evaluations_total",
				Help:      "Script transform evaluations.",
			},
			[]string{"engine", "direction", "success"},
		),
		scriptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "script",
				Name:      "evaluation_duration_seconds",
				Help:      "Script transform evaluation duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"engine", "direction"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "record",
				Name:      "events_total",
				Help:      "Record lifecycle events.",
			},
			[]string{"type", "verb"},
		),
		eventKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "record",
				Name:      "event_keys_total",
				Help:      "Attributes named by record lifecycle events.",
			},
			[]string{"type", "verb"},
		),
	}
}

// Register adds every metric to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.lookups, c.lookupDuration, c.scripts, c.scriptDuration, c.events, c.eventKeys,
	} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// LookupLogger counts registry lookups. Combine it with the zerolog logger
// through attrs.MultiLookupLogger.
func (c *Collector) LookupLogger() attrs.LookupLogger {
	return attrs.LookupLoggerFunc(func(event attrs.LookupEvent) {
		source := string(event.Source)
		c.lookups.WithLabelValues(source).Inc()
		c.lookupDuration.WithLabelValues(source).Observe(event.Duration.Seconds())
	})
}

// ScriptLogger counts script transform evaluations.
func (c *Collector) ScriptLogger() attrs.ScriptLogger {
	return attrs.ScriptLoggerFunc(func(event attrs.ScriptLogEvent) {
		direction := string(event.Direction)
		c.scripts.WithLabelValues(event.Engine, direction, strconv.FormatBool(event.Err == nil)).Inc()
		c.scriptDuration.WithLabelValues(event.Engine, direction).Observe(event.Duration.Seconds())
	})
}

// ActivityHook counts record lifecycle events. It never fails.
func (c *Collector) ActivityHook() activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		c.events.WithLabelValues(event.ObjectType, event.Verb).Inc()
		c.eventKeys.WithLabelValues(event.ObjectType, event.Verb).Add(float64(len(event.Keys)))
		return nil
	})
}

var (
	registerOnce sync.Once
	defaultSet   = NewCollector("attrs")
)

// Default returns the process-wide collector, registering it with the
// prometheus default registerer on first use.
func Default() *Collector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			defaultSet.lookups, defaultSet.lookupDuration,
			defaultSet.scripts, defaultSet.scriptDuration,
			defaultSet.events, defaultSet.eventKeys,
		)
	})
	return defaultSet
}
