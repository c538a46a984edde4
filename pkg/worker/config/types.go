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
	"net"
	"strconv"
	"time"

	"github.com/nuclio/errors"
)

// Configuration of the worker process
type Configuration struct {
	WorkerID                 string    `json:"workerId,omitempty"`
	RequestID                string    `json:"requestId,omitempty"`
	Transport                Transport `json:"transport,omitempty"`
	Logger                   Logger    `json:"logger,omitempty"`
	HealthCheck              WebServer `json:"healthCheck,omitempty"`
	Metrics                  WebServer `json:"metrics,omitempty"`
	MaxConcurrentInvocations int       `json:"maxConcurrentInvocations,omitempty"`
}

// DefaultConnectionTimeout bounds how long the worker waits for the host to accept its connection
const DefaultConnectionTimeout = 30 * time.Second

type TransportKind string

const (
	GRPCTransportKind   TransportKind = "grpc"
	SocketTransportKind TransportKind = "socket"
)

type SocketEncoding string

const (
	JSONSocketEncoding    SocketEncoding = "json"
	MsgpackSocketEncoding SocketEncoding = "msgpack"
)

// Transport describes how to reach the host
type Transport struct {
	Kind              TransportKind  `json:"kind,omitempty"`
	Host              string         `json:"host,omitempty"`
	Port              int            `json:"port,omitempty"`
	Network           string         `json:"network,omitempty"`
	SocketPath        string         `json:"socketPath,omitempty"`
	Encoding          SocketEncoding `json:"encoding,omitempty"`
	MaxMessageLength  int            `json:"maxMessageLength,omitempty"`
	ConnectionTimeout string         `json:"connectionTimeout,omitempty"`
}

// Address returns the socket path for unix sockets, host:port otherwise
func (t *Transport) Address() string {
	if t.Network == "unix" {
		return t.SocketPath
	}

	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// GetConnectionTimeout returns the parsed connection timeout, DefaultConnectionTimeout if none is set
func (t *Transport) GetConnectionTimeout() (time.Duration, error) {
	if t.ConnectionTimeout == "" {
		return DefaultConnectionTimeout, nil
	}

	connectionTimeout, err := time.ParseDuration(t.ConnectionTimeout)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to parse connection timeout %q", t.ConnectionTimeout)
	}

	return connectionTimeout, nil
}

type Logger struct {
	Level    string `json:"level,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type WebServer struct {
	Enabled       *bool  `json:"enabled,omitempty"`
	ListenAddress string `json:"listenAddress,omitempty"`
}

func (ws *WebServer) IsEnabled() bool {
	return ws.Enabled != nil && *ws.Enabled
}
