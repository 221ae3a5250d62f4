package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
	require.NoError(t, registerCollector(reg, CallbacksTotal))
}

func TestObserveProviderCall(t *testing.T) {
	before := counterValue(t, ProviderRequestsTotal.WithLabelValues("token", "ok"))
	ObserveProviderCall("token", "ok", 12*time.Millisecond)
	require.Equal(t, before+1, counterValue(t, ProviderRequestsTotal.WithLabelValues("token", "ok")))
}

func TestRecordCallback(t *testing.T) {
	before := counterValue(t, CallbacksTotal.WithLabelValues("csrf"))
	RecordCallback("csrf")
	RecordCallback("csrf")
	require.Equal(t, before+2, counterValue(t, CallbacksTotal.WithLabelValues("csrf")))
}
