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

package invocation

import (
	"time"

	"github.com/nuclio/rpcworker/pkg/worker/functionregistry"
	"github.com/nuclio/rpcworker/pkg/worker/httpadapter"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/typeddata"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// Builder creates invocation contexts from invocation requests
type Builder struct {
	logger       logger.Logger
	registry     *functionregistry.Registry
	logForwarder *LogForwarder
	emitter      *ResponseEmitter
}

func NewBuilder(parentLogger logger.Logger,
	registry *functionregistry.Registry,
	logForwarder *LogForwarder,
	emitter *ResponseEmitter) *Builder {
	return &Builder{
		logger:       parentLogger.GetChild("builder"),
		registry:     registry,
		logForwarder: logForwarder,
		emitter:      emitter,
	}
}

// Build creates the context of an invocation. It fails only when the function was never loaded, in which
// case the root cause is a *functionregistry.LookupError
func (b *Builder) Build(message *protocol.StreamingMessage) (*Context, error) {
	invocationRequest := message.InvocationRequest
	if invocationRequest == nil {
		return nil, errors.New("Invocation request has no payload")
	}

	metadata, err := b.registry.Lookup(invocationRequest.FunctionID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to resolve invoked function")
	}

	invocationContext := &Context{
		InvocationID:      invocationRequest.InvocationID,
		FunctionID:        metadata.FunctionID,
		FunctionName:      metadata.Name,
		FunctionDirectory: metadata.Directory,
		Inputs:            []interface{}{},
		Bindings:          map[string]interface{}{},
		BindingData:       map[string]interface{}{},
		logger:            b.logger,
		requestID:         message.RequestID,
		startTime:         time.Now(),
		logForwarder:      b.logForwarder,
		emitter:           b.emitter,
	}

	for name, triggerMetadata := range invocationRequest.TriggerMetadata {
		triggerMetadata := triggerMetadata
		invocationContext.BindingData[name] = typeddata.Decode(&triggerMetadata)
	}

	for bindingIndex := range invocationRequest.InputData {
		binding := &invocationRequest.InputData[bindingIndex]

		var value interface{}

		if binding.Data.Kind == protocol.HTTPKind {
			request := httpadapter.FromWire(binding.Data.HTTP)
			invocationContext.TriggerType = protocol.HTTPTriggerType

			if invocationContext.Request == nil {
				invocationContext.Request = request
			}

			if binding.Name == protocol.WebhookRequestBindingName {
				continue
			}

			value = request
		} else {
			value = typeddata.Decode(&binding.Data)
		}

		invocationContext.Inputs = append(invocationContext.Inputs, value)
		invocationContext.Bindings[binding.Name] = value
	}

	return invocationContext, nil
}
