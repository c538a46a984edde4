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

package config

import (
	"io"
	"os"

	"github.com/nuclio/rpcworker/pkg/common"

	"github.com/google/uuid"
	"github.com/imdario/mergo"
	"github.com/nuclio/errors"
	"github.com/rs/xid"
	"sigs.k8s.io/yaml"
)

// DefaultMaxMessageLength is the largest message accepted or sent over grpc by default
const DefaultMaxMessageLength = 128 * 1024 * 1024

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Read(reader io.Reader, configuration *Configuration) error {
	configurationBytes, err := io.ReadAll(reader)
	if err != nil {
		return errors.Wrap(err, "Failed to read worker configuration")
	}

	if err := yaml.Unmarshal(configurationBytes, configuration); err != nil {
		return errors.Wrap(err, "Failed to parse worker configuration")
	}

	return nil
}

// ReadFileOrDefault reads the configuration at configurationPath and fills whatever it leaves out with defaults.
// An empty path yields the defaults
func (r *Reader) ReadFileOrDefault(configurationPath string) (*Configuration, error) {
	configuration := Configuration{}

	if configurationPath != "" {
		if !common.FileExists(configurationPath) {
			return nil, errors.Errorf("Configuration file %s does not exist", configurationPath)
		}

		configurationFile, err := os.Open(configurationPath)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to open configuration file %s", configurationPath)
		}

		// close after
		defer configurationFile.Close() // nolint: errcheck

		if err := r.Read(configurationFile, &configuration); err != nil {
			return nil, errors.Wrap(err, "Failed to read configuration file")
		}
	}

	if err := r.ApplyDefaults(&configuration); err != nil {
		return nil, errors.Wrap(err, "Failed to apply defaults")
	}

	return &configuration, nil
}

// ApplyDefaults fills zero fields of configuration
func (r *Reader) ApplyDefaults(configuration *Configuration) error {
	defaults := r.GetDefaultConfiguration()

	// mergo descends into pointers and would turn an explicit false into true
	for _, webServers := range [][2]*WebServer{
		{&configuration.HealthCheck, &defaults.HealthCheck},
		{&configuration.Metrics, &defaults.Metrics},
	} {
		if webServers[0].Enabled == nil {
			webServers[0].Enabled = webServers[1].Enabled
		}

		webServers[1].Enabled = nil
	}

	return mergo.Merge(configuration, defaults)
}

func (r *Reader) GetDefaultConfiguration() *Configuration {
	trueValue := true

	return &Configuration{
		WorkerID:  uuid.New().String(),
		RequestID: xid.New().String(),
		Transport: Transport{
			Kind:              GRPCTransportKind,
			Host:              "127.0.0.1",
			Port:              50051,
			Network:           "tcp",
			Encoding:          JSONSocketEncoding,
			MaxMessageLength:  DefaultMaxMessageLength,
			ConnectionTimeout: "30s",
		},
		Logger: Logger{
			Level:    "debug",
			Encoding: "console",
		},
		HealthCheck: WebServer{
			Enabled:       &trueValue,
			ListenAddress: ":8082",
		},
		Metrics: WebServer{
			Enabled:       &trueValue,
			ListenAddress: ":8090",
		},
	}
}
