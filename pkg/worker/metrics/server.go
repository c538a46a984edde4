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
	"context"
	"net/http"
	"time"

	"github.com/nuclio/rpcworker/pkg/worker/config"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the recorder's metrics for scraping
type Server struct {
	logger        logger.Logger
	configuration *config.WebServer
	httpServer    *http.Server
}

func NewServer(parentLogger logger.Logger, recorder *Recorder, configuration *config.WebServer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(recorder.Gatherer(), promhttp.HandlerOpts{}))

	return &Server{
		logger:        parentLogger.GetChild("metrics"),
		configuration: configuration,
		httpServer: &http.Server{
			Addr:              configuration.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the metrics handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve blocks until ctx is done or the server fails
func (s *Server) Serve(ctx context.Context) error {
	if !s.configuration.IsEnabled() {
		s.logger.DebugWith("Disabled, not starting")
		return nil
	}

	go func() {
		<-ctx.Done()
		s.httpServer.Close() // nolint: errcheck
	}()

	s.logger.InfoWith("Listening", "listenAddress", s.configuration.ListenAddress)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "Failed to listen on %s", s.configuration.ListenAddress)
	}

	return nil
}
