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

package grpcstream

import (
	"context"
	"io"

	"github.com/nuclio/rpcworker/pkg/worker/config"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/transport"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Transport is a worker's side of the grpc event stream
type Transport struct {
	logger       logger.Logger
	connection   *grpc.ClientConn
	stream       grpc.ClientStream
	cancelStream context.CancelFunc
}

// NewTransport dials the host and opens the event stream. dialOptions are appended to the defaults
func NewTransport(ctx context.Context,
	parentLogger logger.Logger,
	configuration *config.Transport,
	dialOptions ...grpc.DialOption) (*Transport, error) {
	newTransport := &Transport{
		logger: parentLogger.GetChild("grpc"),
	}

	connectionTimeout, err := configuration.GetConnectionTimeout()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get connection timeout")
	}

	maxMessageLength := configuration.MaxMessageLength
	if maxMessageLength <= 0 {
		maxMessageLength = config.DefaultMaxMessageLength
	}

	dialContext, cancelDial := context.WithTimeout(ctx, connectionTimeout)
	defer cancelDial()

	newTransport.logger.DebugWith("Dialing host",
		"address", configuration.Address(),
		"maxMessageLength", maxMessageLength)

	options := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(
			grpc.ForceCodec(Codec{}),
			grpc.MaxCallRecvMsgSize(maxMessageLength),
			grpc.MaxCallSendMsgSize(maxMessageLength)),
	}

	newTransport.connection, err = grpc.DialContext(dialContext,
		configuration.Address(),
		append(options, dialOptions...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to dial host at %s", configuration.Address())
	}

	// the stream outlives the dial context and ends on Close
	var streamContext context.Context
	streamContext, newTransport.cancelStream = context.WithCancel(context.Background())

	newTransport.stream, err = newTransport.connection.NewStream(streamContext, &eventStreamDesc, EventStreamMethod)
	if err != nil {
		newTransport.cancelStream()
		newTransport.connection.Close() // nolint: errcheck

		return nil, errors.Wrap(err, "Failed to open event stream")
	}

	return newTransport, nil
}

func (t *Transport) Read() (*protocol.StreamingMessage, error) {
	message := &protocol.StreamingMessage{}

	if err := t.stream.RecvMsg(message); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}

		return nil, errors.Wrap(err, "Failed to receive message")
	}

	return message, nil
}

func (t *Transport) Write(message *protocol.StreamingMessage) error {
	if err := t.stream.SendMsg(message); err != nil {
		return errors.Wrap(err, "Failed to send message")
	}

	return nil
}

func (t *Transport) Close() error {
	t.stream.CloseSend() // nolint: errcheck
	t.cancelStream()

	return t.connection.Close()
}

type creator struct{}

func (c *creator) Create(ctx context.Context,
	parentLogger logger.Logger,
	configuration *config.Transport) (transport.Transport, error) {
	return NewTransport(ctx, parentLogger, configuration)
}

func init() {
	transport.RegistrySingleton.Register(string(config.GRPCTransportKind), &creator{})
}
