package gps

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	c, _ := newTestCache(
		mkpkg("a 1.0", "requires b"),
		mkpkg("b 1.0"),
		mkpkg("z 1.0", "requires missing"),
	)
	c.SetMetrics(m)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.packages); got != 3 {
		t.Errorf("cache_packages = %v, want 3", got)
	}

	run := func(nv string) Result {
		txn, err := NewTransaction(TransactionParams{Cache: c, Metrics: m})
		if err != nil {
			t.Fatal(err)
		}
		if err := txn.Enqueue(findPkg(c, nv), Install); err != nil {
			t.Fatal(err)
		}
		return txn.Run()
	}

	if res := run("a 1.0"); !res.OK() {
		t.Fatal(res.Err())
	}
	if res := run("z 1.0"); res.OK() {
		t.Fatal("install of z should fail")
	}

	if got := testutil.ToFloat64(m.runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok runs = %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed runs = %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues(UnresolvedDependency.String())); got != 1 {
		t.Errorf("unresolved failures = %v", got)
	}
	if n := testutil.CollectAndCount(m.steps); n != 1 {
		t.Errorf("expected one steps histogram, got %d", n)
	}
	if n, err := testutil.GatherAndCount(reg, "smart_phase_duration_seconds"); err != nil || n == 0 {
		t.Errorf("phase durations not gathered: %d, %v", n, err)
	}
}

func TestMetricsUnregistered(t *testing.T) {
	m := NewMetrics(nil)
	m.loadErrors.Inc()
	if got := testutil.ToFloat64(m.loadErrors); got != 1 {
		t.Errorf("load errors = %v", got)
	}
}
