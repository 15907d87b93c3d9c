package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are queued by init in each file and registered once at startup
var (
	pending      []prometheus.Collector
	registerOnce sync.Once
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister adds the bump bot collectors to the default registry.
// Later calls do nothing.
func MustRegister() {
	MustRegisterWith(prometheus.DefaultRegisterer)
}

// MustRegisterWith is MustRegister for a caller-owned registry
func MustRegisterWith(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(pending...)
	})
}

// statusLabel keeps label values lower-case and trimmed
func statusLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
