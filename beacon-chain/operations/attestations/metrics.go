package attestations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var attestationPoolSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "attestation_pool_size",
	Help: "The number of attestations available to be included in proposed blocks",
})
