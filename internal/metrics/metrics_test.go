package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryIsSingleton(t *testing.T) {
	a := Registry("misicuan_test")
	b := Registry("ignored")
	if a != b {
		t.Fatalf("expected the same instance")
	}

	before := testutil.ToFloat64(a.Errors.WithLabelValues("verify"))
	a.Error("verify")
	if got := testutil.ToFloat64(a.Errors.WithLabelValues("verify")); got != before+1 {
		t.Fatalf("errors_total = %v, want %v", got, before+1)
	}

	var nilMetrics *Metrics
	nilMetrics.Error("verify")
}
