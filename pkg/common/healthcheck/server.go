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

package healthcheck

import (
	"context"
	"net/http"
	"time"

	"github.com/nuclio/rpcworker/pkg/common/status"
	"github.com/nuclio/rpcworker/pkg/worker/config"

	"github.com/heptiolabs/healthcheck"
	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// Server exposes /live and /ready for a status provider
type Server struct {
	Logger         logger.Logger
	StatusProvider status.Provider
	Handler        healthcheck.Handler
	configuration  *config.WebServer
	httpServer     *http.Server
}

func NewServer(parentLogger logger.Logger,
	statusProvider status.Provider,
	configuration *config.WebServer) (*Server, error) {
	if configuration.Enabled == nil {
		return nil, errors.New("Enabled must carry a value")
	}

	server := &Server{
		Logger:         parentLogger.GetChild("healthcheck.server"),
		StatusProvider: statusProvider,
		configuration:  configuration,
	}

	// create the healthcheck handler
	server.Handler = healthcheck.NewHandler()

	server.Handler.AddLivenessCheck("worker_liveness", func() error {
		if statusProvider.GetStatus() == status.Error {
			return errors.New("Worker is in error state")
		}

		return nil
	})

	server.Handler.AddReadinessCheck("worker_readiness", func() error {
		if currentStatus := statusProvider.GetStatus(); currentStatus != status.Ready {
			return errors.Errorf("Worker is %s", currentStatus)
		}

		return nil
	})

	server.httpServer = &http.Server{
		Addr:              configuration.ListenAddress,
		Handler:           server.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, nil
}

// Serve blocks until ctx is done or the server fails
func (s *Server) Serve(ctx context.Context) error {
	if !*s.configuration.Enabled {
		s.Logger.DebugWith("Disabled, not starting")
		return nil
	}

	go func() {
		<-ctx.Done()
		s.httpServer.Close() // nolint: errcheck
	}()

	s.Logger.InfoWith("Listening", "listenAddress", s.configuration.ListenAddress)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "Failed to listen on %s", s.configuration.ListenAddress)
	}

	return nil
}
