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

package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/nuclio/rpcworker/pkg/common/healthcheck"
	"github.com/nuclio/rpcworker/pkg/errgroup"
	"github.com/nuclio/rpcworker/pkg/loggersink"
	"github.com/nuclio/rpcworker/pkg/version"
	"github.com/nuclio/rpcworker/pkg/worker/config"
	"github.com/nuclio/rpcworker/pkg/worker/loader"
	"github.com/nuclio/rpcworker/pkg/worker/metrics"
	"github.com/nuclio/rpcworker/pkg/worker/router"
	"github.com/nuclio/rpcworker/pkg/worker/transport"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// DefaultDrainTimeout bounds how long the worker waits for in-flight invocations once the host ends the stream
const DefaultDrainTimeout = 10 * time.Second

// Worker connects to the host and serves function invocations until the stream ends
type Worker struct {
	logger        logger.Logger
	configuration *config.Configuration
	loader        *loader.Loader
	diagnostics   io.Writer
	drainTimeout  time.Duration
	router        *router.Router
}

func NewWorker(configuration *config.Configuration, logOutput io.Writer) (*Worker, error) {
	workerLogger, err := loggersink.CreateLogger("worker", &configuration.Logger, logOutput)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create logger")
	}

	return &Worker{
		logger:        workerLogger,
		configuration: configuration,
		loader:        loader.NewLoader(workerLogger, loader.EntrypointRegistrySingleton),
		diagnostics:   os.Stderr,
		drainTimeout:  DefaultDrainTimeout,
	}, nil
}

// Run blocks until the host closes the stream, ctx is done or one of the servers fails
func (w *Worker) Run(ctx context.Context) error {
	recorder, err := metrics.NewRecorder(w.configuration.WorkerID)
	if err != nil {
		return errors.Wrap(err, "Failed to create metrics recorder")
	}

	version.Log(w.logger)

	w.logger.InfoWith("Connecting to host",
		"kind", w.configuration.Transport.Kind,
		"address", w.configuration.Transport.Address(),
		"workerID", w.configuration.WorkerID)

	workerTransport, err := transport.RegistrySingleton.NewTransport(ctx, w.logger, &w.configuration.Transport)
	if err != nil {
		return errors.Wrap(err, "Failed to create transport")
	}

	w.router = router.NewRouter(w.logger, w.configuration, workerTransport, w.loader, recorder, w.diagnostics)

	healthCheckServer, err := healthcheck.NewServer(w.logger, w.router, &w.configuration.HealthCheck)
	if err != nil {
		workerTransport.Close() // nolint: errcheck
		return errors.Wrap(err, "Failed to create health check server")
	}

	metricsServer := metrics.NewServer(w.logger, recorder, &w.configuration.Metrics)

	errGroup, groupContext := errgroup.WithContext(ctx, w.logger)
	serversContext, cancelServers := context.WithCancel(groupContext)

	errGroup.Go("router", func() error {
		defer cancelServers()

		if err := w.router.Run(groupContext); err != nil {
			return err
		}

		w.drain()
		return nil
	})

	errGroup.Go("healthcheck", func() error {
		return healthCheckServer.Serve(serversContext)
	})

	errGroup.Go("metrics", func() error {
		return metricsServer.Serve(serversContext)
	})

	runErr := errGroup.Wait()

	if err := workerTransport.Close(); err != nil {
		w.logger.DebugWith("Failed to close transport", "err", err.Error())
	}

	if runErr != nil {
		return errors.Wrap(runErr, "Worker stopped with an error")
	}

	w.logger.InfoWith("Worker stopped")

	return nil
}

func (w *Worker) drain() {
	drained := make(chan struct{})

	go func() {
		w.router.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(w.drainTimeout):
		w.logger.WarnWith("Timed out waiting for in-flight invocations", "timeout", w.drainTimeout.String())
	}
}
