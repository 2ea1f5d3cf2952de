package telemetry

import "sync"

// overflowLabel replaces label values seen after a label's limit is reached.
const overflowLabel = "other"

// DefaultLabelLimits caps the labels the runtime attaches to task metrics.
var DefaultLabelLimits = map[string]int{
	"agent":  100,
	"status": 2,
}

// labelLimiter bounds the number of distinct values each label may take
// per metric. Values first seen once the limit is reached collapse into
// "other". Labels without a limit pass through.
type labelLimiter struct {
	limits map[string]int

	mu   sync.Mutex
	seen map[string]map[string]struct{} // "metric.label" -> values
}

func newLabelLimiter(limits map[string]int) *labelLimiter {
	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &labelLimiter{
		limits: copied,
		seen:   make(map[string]map[string]struct{}),
	}
}

// limit returns value, or "other" when label is over its limit for metric.
func (l *labelLimiter) limit(metric, label, value string) string {
	max, ok := l.limits[label]
	if !ok {
		return value
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := metric + "." + label
	values, ok := l.seen[key]
	if !ok {
		values = make(map[string]struct{})
		l.seen[key] = values
	}
	if _, known := values[value]; known {
		return value
	}
	if len(values) >= max {
		return overflowLabel
	}
	values[value] = struct{}{}
	return value
}

// cardinality reports how many distinct values are tracked in total.
func (l *labelLimiter) cardinality() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, values := range l.seen {
		total += len(values)
	}
	return total
}
