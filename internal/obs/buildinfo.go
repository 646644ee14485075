package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "esp_build_info",
			Help: "ESP front-end build information.",
		},
		[]string{"version", "commit", "backend"},
	)
)

// InitBuildInfo registers esp_build_info once and sets it to 1 for the given
// labels. backend is "remote" or "demo".
func InitBuildInfo(version, commit, backend string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.WithLabelValues(version, commit, backend).Set(1)
}
