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

package transport

import (
	"context"

	"github.com/nuclio/rpcworker/pkg/registry"
	"github.com/nuclio/rpcworker/pkg/worker/config"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// Transport carries envelopes between the worker and its host. Read is called from a single goroutine.
// Write is not safe for concurrent use; wrap the transport with a Writer
type Transport interface {

	// Read blocks until the next inbound message. It returns io.EOF once the host ends the stream
	Read() (*protocol.StreamingMessage, error)

	// Write sends a single message
	Write(message *protocol.StreamingMessage) error

	// Close tears down the connection, unblocking Read
	Close() error
}

// Creator creates a transport of a given kind
type Creator interface {
	Create(ctx context.Context,
		parentLogger logger.Logger,
		configuration *config.Transport) (Transport, error)
}

type Registry struct {
	registry.Registry
}

// RegistrySingleton holds the transport kinds, registered by their packages on init
var RegistrySingleton = Registry{
	Registry: *registry.NewRegistry("transport"),
}

func (r *Registry) NewTransport(ctx context.Context,
	parentLogger logger.Logger,
	configuration *config.Transport) (Transport, error) {

	registree, err := r.Get(string(configuration.Kind))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get transport creator")
	}

	return registree.(Creator).Create(ctx, parentLogger, configuration)
}
