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

	"github.com/nuclio/rpcworker/pkg/worker/config"

	"github.com/nuclio/errors"
	"github.com/spf13/cobra"
)

type RootCommandeer struct {
	cmd                  *cobra.Command
	configPath           string
	host                 string
	port                 int
	workerID             string
	requestID            string
	grpcMaxMessageLength int
	transportKind        string
	logLevel             string
	logOutput            io.Writer
}

func NewRootCommandeer() *RootCommandeer {
	commandeer := &RootCommandeer{
		logOutput: os.Stdout,
	}

	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "Out-of-process function worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configuration, err := commandeer.ResolveConfiguration()
			if err != nil {
				return errors.Wrap(err, "Failed to resolve configuration")
			}

			worker, err := NewWorker(configuration, commandeer.logOutput)
			if err != nil {
				return errors.Wrap(err, "Failed to create worker")
			}

			return worker.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&commandeer.configPath, "config", "c", "", "Path of configuration file")
	cmd.Flags().StringVar(&commandeer.host, "host", "", "Host address to connect to")
	cmd.Flags().IntVar(&commandeer.port, "port", 0, "Host port to connect to")
	cmd.Flags().StringVar(&commandeer.workerID, "worker-id", "", "Worker identifier assigned by the host")
	cmd.Flags().StringVar(&commandeer.requestID, "request-id", "", "Request identifier of the start stream handshake")
	cmd.Flags().IntVar(&commandeer.grpcMaxMessageLength, "grpc-max-message-length", 0, "Maximum message length in bytes")
	cmd.Flags().StringVar(&commandeer.transportKind, "transport", "", "Transport kind - \"grpc\" or \"socket\"")
	cmd.Flags().StringVar(&commandeer.logLevel, "log-level", "", "Log level - \"debug\", \"info\", \"warn\" or \"error\"")

	commandeer.cmd = cmd

	return commandeer
}

// Execute runs the command with os.Args, stopping the worker once ctx is done
func (rc *RootCommandeer) Execute(ctx context.Context) error {
	return rc.cmd.ExecuteContext(ctx)
}

// GetCmd returns the underlying cobra command
func (rc *RootCommandeer) GetCmd() *cobra.Command {
	return rc.cmd
}

// ResolveConfiguration reads the configuration file (or defaults) and applies the flags given explicitly
func (rc *RootCommandeer) ResolveConfiguration() (*config.Configuration, error) {
	configuration, err := config.NewReader().ReadFileOrDefault(rc.configPath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read configuration")
	}

	flags := rc.cmd.Flags()

	if flags.Changed("host") {
		configuration.Transport.Host = rc.host
	}

	if flags.Changed("port") {
		configuration.Transport.Port = rc.port
	}

	if flags.Changed("worker-id") {
		configuration.WorkerID = rc.workerID
	}

	if flags.Changed("request-id") {
		configuration.RequestID = rc.requestID
	}

	if flags.Changed("grpc-max-message-length") {
		if rc.grpcMaxMessageLength <= 0 {
			return nil, errors.Errorf("Invalid max message length %d", rc.grpcMaxMessageLength)
		}

		configuration.Transport.MaxMessageLength = rc.grpcMaxMessageLength
	}

	if flags.Changed("transport") {
		configuration.Transport.Kind = config.TransportKind(rc.transportKind)
	}

	if flags.Changed("log-level") {
		configuration.Logger.Level = rc.logLevel
	}

	return configuration, nil
}
