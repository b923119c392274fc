package verify

import (
	"fmt"
	"sort"
	"strings"
)

// Metric is one observability counter produced by a single compile.
type Metric struct {
	Name        string
	Value       float64
	Unit        string
	Description string
}

// MetricsCollector accumulates per-engine counters across one
// compile: the BFS depth Safety reached and the diagnostics each
// engine raised. A fresh collector is built per compile rather than reused,
// so these are exact counts for that compile, not a running total.
type MetricsCollector struct {
	metrics map[string]*Metric
	order   []string
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{metrics: make(map[string]*Metric)}
}

func (mc *MetricsCollector) counter(name, desc, unit string) *Metric {
	if m, ok := mc.metrics[name]; ok {
		return m
	}
	m := &Metric{Name: name, Unit: unit, Description: desc}
	mc.metrics[name] = m
	mc.order = append(mc.order, name)
	return m
}

func (m *Metric) add(delta float64) { m.Value += delta }

// RecordSafety folds a SafetyResult's exploration size into the
// collector's counters.
func (mc *MetricsCollector) RecordSafety(res SafetyResult) {
	mc.counter("safety.explored_depth", "composite-state BFS depth reached by Safety", "cycles").add(float64(res.ExploredDepth))
	mc.counter("safety.diagnostics", "constraint violations raised by Safety", "count").add(float64(len(res.Diagnostics)))
}

func (mc *MetricsCollector) RecordLiveness(res LivenessResult) {
	mc.counter("liveness.diagnostics", "structural defects raised by Liveness", "count").add(float64(len(res.Diagnostics)))
}

func (mc *MetricsCollector) RecordTiming(res TimingResult) {
	mc.counter("timing.diagnostics", "bound violations and loop-cut warnings raised by Timing", "count").add(float64(len(res.Diagnostics)))
}

func (mc *MetricsCollector) RecordCausality(res CausalityResult) {
	mc.counter("causality.diagnostics", "broken chain links raised by Causality", "count").add(float64(len(res.Diagnostics)))
}

// GenerateMetricsTable renders every recorded metric as a Markdown table.
func (mc *MetricsCollector) GenerateMetricsTable() string {
	var sb strings.Builder
	sb.WriteString("| Metric | Value | Unit | Description |\n")
	sb.WriteString("|--------|-------|------|-------------|\n")

	names := append([]string(nil), mc.order...)
	sort.Strings(names)
	for _, name := range names {
		m := mc.metrics[name]
		sb.WriteString(fmt.Sprintf("| %s | %.0f | %s | %s |\n", m.Name, m.Value, m.Unit, m.Description))
	}
	return sb.String()
}
