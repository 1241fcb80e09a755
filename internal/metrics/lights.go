// Package metrics provides Prometheus metrics for light requests and sysfs writes.
package metrics

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	setLightTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "led",
		Name:      "set_light_total",
		Help:      "Light requests handled, by light type and status",
	}, []string{"type", "status"})

	sysfsWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "sysfs",
		Name:      "writes_total",
		Help:      "Successful sysfs attribute writes",
	}, []string{"attribute"})

	sysfsWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "sysfs",
		Name:      "write_failures_total",
		Help:      "Failed sysfs attribute writes",
	}, []string{"attribute"})

	attributeValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "sysfs",
		Name:      "attribute_value",
		Help:      "Last integer value written to a sysfs attribute",
	}, []string{"attribute"})

	// Local cache of last written values, keyed by attribute name.
	valueCache   = make(map[string]int)
	valueCacheMu sync.RWMutex
)

// AttributeName shortens a sysfs path to "<led>/<attribute>" for use as a label.
// Example: "/sys/class/leds/green/pwm_us" -> "green/pwm_us".
func AttributeName(path string) string {
	return filepath.Base(filepath.Dir(path)) + "/" + filepath.Base(path)
}

// RecordSetLight counts a handled light request.
func RecordSetLight(lightType, status string) {
	setLightTotal.WithLabelValues(lightType, status).Inc()
}

// RecordSysfsWrite counts a successful write and tracks integer values.
func RecordSysfsWrite(path, value string) {
	attr := AttributeName(path)
	sysfsWritesTotal.WithLabelValues(attr).Inc()

	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	attributeValue.WithLabelValues(attr).Set(float64(n))

	valueCacheMu.Lock()
	valueCache[attr] = n
	valueCacheMu.Unlock()
}

// RecordSysfsWriteFailure counts a failed write.
func RecordSysfsWriteFailure(path string) {
	sysfsWriteFailuresTotal.WithLabelValues(AttributeName(path)).Inc()
}

// LastValue returns the last integer written to an attribute.
func LastValue(attribute string) (int, bool) {
	valueCacheMu.RLock()
	defer valueCacheMu.RUnlock()
	v, ok := valueCache[attribute]
	return v, ok
}

// LastValues returns the cached values of the given attributes. Attributes
// never written are left out.
func LastValues(attributes ...string) map[string]int {
	valueCacheMu.RLock()
	defer valueCacheMu.RUnlock()

	result := make(map[string]int, len(attributes))
	for _, attr := range attributes {
		if v, ok := valueCache[attr]; ok {
			result[attr] = v
		}
	}
	return result
}
