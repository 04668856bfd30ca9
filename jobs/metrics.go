package jobs

import "github.com/prometheus/client_golang/prometheus"

// TaskMetrics counts background task runs on the shared registry.
type TaskMetrics struct {
	runs *prometheus.CounterVec
}

// NewTaskMetrics registers the task counters against the provided registerer.
func NewTaskMetrics(registerer prometheus.Registerer) *TaskMetrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "molaris_job_runs_total",
		Help: "Background job runs by task type and outcome.",
	}, []string{"task", "status"})
	if registerer != nil {
		registerer.MustRegister(runs)
	}
	return &TaskMetrics{runs: runs}
}

// CountRun records one task run with its outcome.
func (m *TaskMetrics) CountRun(task string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.runs.WithLabelValues(task, status).Inc()
}
