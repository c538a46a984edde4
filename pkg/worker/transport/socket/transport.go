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

package socket

import (
	"context"
	"net"
	"time"

	"github.com/nuclio/rpcworker/pkg/common"
	"github.com/nuclio/rpcworker/pkg/worker/config"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/transport"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

const connectRetryInterval = 250 * time.Millisecond

// Transport speaks framed messages over a unix or tcp socket opened by the host
type Transport struct {
	logger     logger.Logger
	connection net.Conn
	encoder    MessageEncoder
	decoder    MessageDecoder
}

// NewTransport connects to the host's socket, retrying until the connection timeout passes
func NewTransport(ctx context.Context,
	parentLogger logger.Logger,
	configuration *config.Transport) (*Transport, error) {
	connectionTimeout, err := configuration.GetConnectionTimeout()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get connection timeout")
	}

	network := configuration.Network
	if network == "" {
		network = "tcp"
	}

	dialer := net.Dialer{}

	var connection net.Conn
	var dialErr error

	if err := common.RetryUntilSuccessful(connectionTimeout, connectRetryInterval, func() bool {
		if ctx.Err() != nil {
			return true
		}

		connection, dialErr = dialer.DialContext(ctx, network, configuration.Address())
		return dialErr == nil
	}); err != nil {
		if dialErr != nil {
			err = dialErr
		}

		return nil, errors.Wrapf(err, "Failed to connect to %s %s", network, configuration.Address())
	}

	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "Connecting was cancelled")
	}

	return NewTransportFromConnection(parentLogger, connection, configuration)
}

// NewTransportFromConnection wraps an established connection
func NewTransportFromConnection(parentLogger logger.Logger,
	connection net.Conn,
	configuration *config.Transport) (*Transport, error) {
	var err error

	newTransport := &Transport{
		logger:     parentLogger.GetChild("socket"),
		connection: connection,
	}

	newTransport.encoder, err = NewMessageEncoder(configuration.Encoding, connection)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create encoder")
	}

	newTransport.decoder, err = NewMessageDecoder(configuration.Encoding,
		connection,
		configuration.MaxMessageLength)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create decoder")
	}

	newTransport.logger.DebugWith("Connected",
		"remoteAddress", connection.RemoteAddr().String(),
		"encoding", configuration.Encoding)

	return newTransport, nil
}

func (t *Transport) Read() (*protocol.StreamingMessage, error) {
	return t.decoder.Decode()
}

func (t *Transport) Write(message *protocol.StreamingMessage) error {
	return t.encoder.Encode(message)
}

func (t *Transport) Close() error {
	return t.connection.Close()
}

type creator struct{}

func (c *creator) Create(ctx context.Context,
	parentLogger logger.Logger,
	configuration *config.Transport) (transport.Transport, error) {
	return NewTransport(ctx, parentLogger, configuration)
}

func init() {
	transport.RegistrySingleton.Register(string(config.SocketTransportKind), &creator{})
}
