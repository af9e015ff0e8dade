package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	assert.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.tasksScheduled, "tasksScheduled counter should be initialized")
	assert.NotNil(t, collector.tasksCompleted, "tasksCompleted counter should be initialized")
	assert.NotNil(t, collector.tasksFailed, "tasksFailed counter should be initialized")
	assert.NotNil(t, collector.readyWait, "readyWait histogram should be initialized")
	assert.NotNil(t, collector.execution, "execution histogram should be initialized")
	assert.NotNil(t, collector.readyDepth, "readyDepth gauge should be initialized")
	assert.NotNil(t, collector.notReadyCount, "notReadyCount gauge should be initialized")
	assert.NotNil(t, collector.workersBusy, "workersBusy gauge should be initialized")
}

func TestIncScheduledCompletedFailed(t *testing.T) {
	collector := NewCollector()

	assert.NotPanics(t, func() {
		for i := 0; i < 5; i++ {
			collector.IncScheduled()
		}
		for i := 0; i < 3; i++ {
			collector.IncCompleted()
		}
		collector.IncFailed()
	})
}

func TestObserveDurations(t *testing.T) {
	collector := NewCollector()

	for _, seconds := range []float64{0.0, 0.001, 0.1, 1.0, 5.0} {
		assert.NotPanics(t, func() {
			collector.ObserveReadyWait(seconds)
			collector.ObserveExecution(seconds)
		})
	}
}

func TestSetGauges(t *testing.T) {
	collector := NewCollector()

	testCases := []struct {
		name      string
		ready     int
		notReady  int
		busy      bool
	}{
		{"zero values", 0, 0, false},
		{"normal values", 10, 5, true},
		{"high ready", 100, 8, true},
		{"high not-ready", 5, 50, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				collector.SetReadyDepth(tc.ready)
				collector.SetNotReadyCount(tc.notReady)
				if tc.busy {
					collector.IncWorkersBusy()
					collector.DecWorkersBusy()
				}
			})
		})
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	collector := NewCollector()

	done := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			collector.IncScheduled()
			collector.IncCompleted()
			collector.ObserveExecution(0.1)
			collector.SetReadyDepth(10)
			done <- true
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}
}

func TestCollectorIsolation(t *testing.T) {
	// Each Collector owns its own registry, so constructing many in the same
	// process (or test binary) must not panic on duplicate registration.
	collector1 := NewCollector()
	collector2 := NewCollector()
	require.NotNil(t, collector1)
	require.NotNil(t, collector2)

	assert.NotPanics(t, func() {
		collector1.IncScheduled()
		collector2.IncScheduled()
	})
}

func TestMetricOperationSequence(t *testing.T) {
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.IncScheduled()
		collector.SetNotReadyCount(1)

		collector.SetNotReadyCount(0)
		collector.SetReadyDepth(1)

		collector.IncWorkersBusy()
		collector.ObserveExecution(0.5)
		collector.DecWorkersBusy()
		collector.IncCompleted()
		collector.SetReadyDepth(0)
	}, "complete task lifecycle should not panic")
}

func TestMetricOperationWithFailure(t *testing.T) {
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.IncScheduled()
		collector.IncWorkersBusy()
		collector.IncFailed()
		collector.IncCompleted()
		collector.DecWorkersBusy()
	}, "contained work item failure should not panic")
}

func TestHandlerServesMetrics(t *testing.T) {
	collector := NewCollector()
	collector.IncScheduled()

	handler := collector.Handler()
	assert.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pool_tasks_scheduled_total 1")
}
