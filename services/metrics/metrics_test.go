package metricsvc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_PolicyDecision(t *testing.T) {
	m := NewMetrics()

	m.PolicyDecision("course", "select", true)
	m.PolicyDecision("course", "select", false)
	m.PolicyDecision("course", "select", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyDecisionsTotal.WithLabelValues("course", "select", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PolicyDecisionsTotal.WithLabelValues("course", "select", "denied")))
}

func TestMetrics_Bootstrap(t *testing.T) {
	m := NewMetrics()

	m.Bootstrap(true)
	m.Bootstrap(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BootstrapsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BootstrapsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BootstrapsTotal))
}
