package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersCollectors(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PaymentOrders.WithLabelValues("elite", "ok").Inc()
	m.ProfilesPublished.Inc()

	if got := testutil.ToFloat64(m.PaymentOrders.WithLabelValues("elite", "ok")); got != 1 {
		t.Fatalf("payment orders=%v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "legacy_profiles_profiles_published_total"); err != nil || n != 1 {
		t.Fatalf("gather count=%d err=%v", n, err)
	}
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
