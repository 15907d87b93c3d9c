package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncBumpResult_NormalizesLabel(t *testing.T) {
	before := testutil.ToFloat64(bumpResultsTotal.WithLabelValues("rate_limited"))

	IncBumpResult(" Rate_Limited ")

	after := testutil.ToFloat64(bumpResultsTotal.WithLabelValues("rate_limited"))
	assert.Equal(t, before+1, after)
}

func TestIncTitleFetch(t *testing.T) {
	okBefore := testutil.ToFloat64(titleFetchTotal.WithLabelValues("ok"))
	failedBefore := testutil.ToFloat64(titleFetchTotal.WithLabelValues("failed"))

	IncTitleFetch(true)
	IncTitleFetch(false)
	IncTitleFetch(false)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(titleFetchTotal.WithLabelValues("ok")))
	assert.Equal(t, failedBefore+2, testutil.ToFloat64(titleFetchTotal.WithLabelValues("failed")))
}

func TestSetThreadsTracked(t *testing.T) {
	SetThreadsTracked(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(threadsTracked))
}

func TestMustRegisterWith_ExposesCollectorsOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		MustRegisterWith(reg)
		MustRegisterWith(reg)
		MustRegister()
	})

	IncTitleFetch(false)
	families, err := reg.Gather()
	require.NoError(t, err)

	labels := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "title_fetch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()+"="+lp.GetValue()] = true
			}
		}
	}
	assert.True(t, labels["result=failed"], "failed lookups are labelled result=failed")
}
