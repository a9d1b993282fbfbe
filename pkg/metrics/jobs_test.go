package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestJobsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobs(reg)
	m.ObserveRun("order-status-sync", 20*time.Millisecond, nil)
	m.ObserveRun("order-status-sync", 10*time.Millisecond, errors.New("boom"))
	m.IncSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_job_runs_total", "outcome", "failure"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected one failure, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "storefront_job_duration_seconds", "job", "order-status-sync"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if mf := findMetricFamily(mfs, "storefront_job_cycles_skipped_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("expected skipped counter=1")
	}
}

func TestNilJobsIsNoop(t *testing.T) {
	var m *Jobs
	m.ObserveRun("x", time.Second, nil)
	m.IncSkipped()
	NewJobs(nil).ObserveRun("x", time.Second, nil)
}
