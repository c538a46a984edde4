/*
Copyright 2023 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"time"

	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/nuclio/errors"
	prometheusclient "github.com/prometheus/client_golang/prometheus"
)

const (
	failedOutcome    = "failed"
	succeededOutcome = "succeeded"
)

// Recorder keeps the worker's prometheus metrics
type Recorder struct {
	metricRegistry      *prometheusclient.Registry
	invocationsTotal    *prometheusclient.CounterVec
	invocationDuration  *prometheusclient.HistogramVec
	uncaughtFailures    *prometheusclient.CounterVec
	functionLoadsTotal  *prometheusclient.CounterVec
	logRecordsTotal     *prometheusclient.CounterVec
	invocationsInFlight prometheusclient.Gauge
}

func NewRecorder(workerID string) (*Recorder, error) {
	constLabels := prometheusclient.Labels{"worker_id": workerID}

	newRecorder := &Recorder{
		metricRegistry: prometheusclient.NewRegistry(),
		invocationsTotal: prometheusclient.NewCounterVec(prometheusclient.CounterOpts{
			Name:        "nuclio_worker_invocations_total",
			Help:        "Total number of completed invocations",
			ConstLabels: constLabels,
		}, []string{"function", "outcome"}),
		invocationDuration: prometheusclient.NewHistogramVec(prometheusclient.HistogramOpts{
			Name:        "nuclio_worker_invocation_duration_seconds",
			Help:        "Time from invocation request to completion",
			ConstLabels: constLabels,
			Buckets:     prometheusclient.DefBuckets,
		}, []string{"function"}),
		uncaughtFailures: prometheusclient.NewCounterVec(prometheusclient.CounterOpts{
			Name:        "nuclio_worker_uncaught_failures_total",
			Help:        "Total number of failures reported outside of normal completion",
			ConstLabels: constLabels,
		}, []string{"function"}),
		functionLoadsTotal: prometheusclient.NewCounterVec(prometheusclient.CounterOpts{
			Name:        "nuclio_worker_function_loads_total",
			Help:        "Total number of function load requests",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		logRecordsTotal: prometheusclient.NewCounterVec(prometheusclient.CounterOpts{
			Name:        "nuclio_worker_log_records_total",
			Help:        "Total number of log records forwarded to the host",
			ConstLabels: constLabels,
		}, []string{"level"}),
		invocationsInFlight: prometheusclient.NewGauge(prometheusclient.GaugeOpts{
			Name:        "nuclio_worker_invocations_in_flight",
			Help:        "Number of functions currently executing",
			ConstLabels: constLabels,
		}),
	}

	for _, collector := range []prometheusclient.Collector{
		newRecorder.invocationsTotal,
		newRecorder.invocationDuration,
		newRecorder.uncaughtFailures,
		newRecorder.functionLoadsTotal,
		newRecorder.logRecordsTotal,
		newRecorder.invocationsInFlight,
	} {
		if err := newRecorder.metricRegistry.Register(collector); err != nil {
			return nil, errors.Wrap(err, "Failed to register metric")
		}
	}

	return newRecorder, nil
}

// Gatherer exposes the registry for serving
func (r *Recorder) Gatherer() prometheusclient.Gatherer {
	return r.metricRegistry
}

func (r *Recorder) InvocationStarted(functionName string) {
	r.invocationsInFlight.Inc()
}

func (r *Recorder) InvocationReturned(functionName string) {
	r.invocationsInFlight.Dec()
}

func (r *Recorder) InvocationCompleted(functionName string, failed bool, duration time.Duration) {
	r.invocationsTotal.WithLabelValues(functionName, outcome(failed)).Inc()
	r.invocationDuration.WithLabelValues(functionName).Observe(duration.Seconds())
}

func (r *Recorder) UncaughtFailure(functionName string) {
	r.uncaughtFailures.WithLabelValues(functionName).Inc()
}

func (r *Recorder) LogForwarded(level protocol.LogLevel) {
	r.logRecordsTotal.WithLabelValues(string(level)).Inc()
}

func (r *Recorder) FunctionLoaded(failed bool) {
	r.functionLoadsTotal.WithLabelValues(outcome(failed)).Inc()
}

func outcome(failed bool) string {
	if failed {
		return failedOutcome
	}

	return succeededOutcome
}
