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

package router

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/nuclio/rpcworker/pkg/common"
	"github.com/nuclio/rpcworker/pkg/common/status"
	"github.com/nuclio/rpcworker/pkg/version"
	"github.com/nuclio/rpcworker/pkg/worker/config"
	"github.com/nuclio/rpcworker/pkg/worker/functionregistry"
	"github.com/nuclio/rpcworker/pkg/worker/invocation"
	"github.com/nuclio/rpcworker/pkg/worker/loader"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/transport"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"golang.org/x/sync/semaphore"
)

// Recorder observes everything the router does
type Recorder interface {
	invocation.Recorder
	FunctionLoaded(failed bool)
}

type nopRecorder struct {
	invocation.NopRecorder
}

func (nopRecorder) FunctionLoaded(bool) {}

// Router reads messages from the host and dispatches them by type. Invocations run in their own goroutines;
// everything they write goes through a single Writer
type Router struct {
	logger        logger.Logger
	configuration *config.Configuration
	transport     transport.Transport
	writer        *transport.Writer
	registry      *functionregistry.Registry
	loader        *loader.Loader
	builder       *invocation.Builder
	emitter       *invocation.ResponseEmitter
	recorder      Recorder
	diagnostics   io.Writer
	semaphore     *semaphore.Weighted
	inFlight      sync.WaitGroup
	status        status.Holder
}

func NewRouter(parentLogger logger.Logger,
	configuration *config.Configuration,
	workerTransport transport.Transport,
	functionLoader *loader.Loader,
	recorder Recorder,
	diagnostics io.Writer) *Router {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	newRouter := &Router{
		logger:        parentLogger.GetChild("router"),
		configuration: configuration,
		transport:     workerTransport,
		writer:        transport.NewWriter(workerTransport),
		registry:      functionregistry.NewRegistry(),
		loader:        functionLoader,
		recorder:      recorder,
		diagnostics:   diagnostics,
	}

	newRouter.emitter = invocation.NewResponseEmitter(newRouter.logger, newRouter.writer, recorder)
	newRouter.builder = invocation.NewBuilder(newRouter.logger,
		newRouter.registry,
		invocation.NewLogForwarder(newRouter.writer, recorder),
		newRouter.emitter)

	if configuration.MaxConcurrentInvocations > 0 {
		newRouter.semaphore = semaphore.NewWeighted(int64(configuration.MaxConcurrentInvocations))
	}

	return newRouter
}

// Run sends the handshake and routes inbound messages until the host ends the stream or ctx is done
func (r *Router) Run(ctx context.Context) error {
	runContext, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// closing the transport is the only way to unblock a pending read
	go func() {
		<-runContext.Done()

		if ctx.Err() != nil {
			r.writer.Close() // nolint: errcheck
		}
	}()

	if err := r.writer.Write(&protocol.StreamingMessage{
		RequestID: r.configuration.RequestID,
		Type:      protocol.StartStreamMessageType,
	}); err != nil {
		r.status.SetStatus(status.Error)
		return errors.Wrap(err, "Failed to send handshake")
	}

	r.status.SetStatus(status.Ready)
	r.logger.InfoWith("Stream started",
		"workerID", r.configuration.WorkerID,
		"requestID", r.configuration.RequestID)

	for {
		message, err := r.transport.Read()
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				r.logger.InfoWith("Stream ended")
				r.status.SetStatus(status.Stopped)

				return nil
			}

			r.status.SetStatus(status.Error)
			return errors.Wrap(err, "Failed to read message")
		}

		if err := r.Route(ctx, message); err != nil {
			r.status.SetStatus(status.Error)
			return errors.Wrap(err, "Failed to route message")
		}
	}
}

// Route handles a single inbound message. It returns an error only if writing to the host failed
func (r *Router) Route(ctx context.Context, message *protocol.StreamingMessage) error {
	switch message.Type {
	case protocol.WorkerInitRequestMessageType:
		return r.handleWorkerInit(message)
	case protocol.FunctionLoadRequestMessageType:
		return r.handleFunctionLoad(message)
	case protocol.InvocationRequestMessageType:
		return r.handleInvocation(ctx, message)
	case protocol.InvocationCancelMessageType:
		if message.InvocationCancel != nil {
			r.logger.DebugWith("Ignoring invocation cancellation",
				"invocationID", message.InvocationCancel.InvocationID)
		}

		return nil
	}

	r.logger.WarnWith("Ignoring unsupported message", "type", message.Type, "requestID", message.RequestID)
	return nil
}

// Wait blocks until every accepted invocation has completed or failed
func (r *Router) Wait() {
	r.inFlight.Wait()
}

func (r *Router) GetStatus() status.Status {
	return r.status.GetStatus()
}

// GetRegistry returns the functions loaded so far
func (r *Router) GetRegistry() *functionregistry.Registry {
	return r.registry
}

func (r *Router) handleWorkerInit(message *protocol.StreamingMessage) error {
	if message.WorkerInitRequest != nil {
		r.logger.DebugWith("Received worker init",
			append([]interface{}{"hostVersion", message.WorkerInitRequest.HostVersion},
				common.MapToSlice(message.WorkerInitRequest.Capabilities)...)...)
	}

	return r.writer.Write(&protocol.StreamingMessage{
		RequestID: message.RequestID,
		Type:      protocol.WorkerInitResponseMessageType,
		WorkerInitResponse: &protocol.WorkerInitResponse{
			WorkerVersion: version.Get().Label,
			Capabilities: map[string]string{
				"RawHttpBodyBytes": "true",
			},
			Result: protocol.StatusResult{Status: protocol.StatusSuccess},
		},
	})
}

func (r *Router) handleFunctionLoad(message *protocol.StreamingMessage) error {
	loadRequest := message.FunctionLoadRequest
	if loadRequest == nil {
		r.logger.WarnWith("Ignoring function load without payload", "requestID", message.RequestID)
		return nil
	}

	metadata := functionregistry.NewFunctionMetadata(loadRequest)
	r.registry.Register(loadRequest.FunctionID, metadata)

	response := &protocol.FunctionLoadResponse{
		FunctionID: loadRequest.FunctionID,
		Result:     protocol.StatusResult{Status: protocol.StatusSuccess},
	}

	_, err := r.loader.Load(metadata)
	if err != nil {
		r.logger.WarnWith("Failed to load function",
			"functionID", loadRequest.FunctionID,
			"err", errors.GetErrorStackString(err, 10))

		response.Result = protocol.StatusResult{
			Status:    protocol.StatusFailure,
			Result:    err.Error(),
			Exception: &protocol.RpcException{Message: err.Error()},
		}
	} else {
		r.logger.InfoWith("Loaded function",
			"functionID", loadRequest.FunctionID,
			"name", metadata.Name)
	}

	r.recorder.FunctionLoaded(err != nil)

	return r.writer.Write(&protocol.StreamingMessage{
		RequestID:            message.RequestID,
		Type:                 protocol.FunctionLoadResponseMessageType,
		FunctionLoadResponse: response,
	})
}

func (r *Router) handleInvocation(ctx context.Context, message *protocol.StreamingMessage) error {
	invocationContext, err := r.builder.Build(message)
	if err != nil {
		invocationID := ""
		if message.InvocationRequest != nil {
			invocationID = message.InvocationRequest.InvocationID
		}

		r.logger.WarnWith("Failed to build invocation context",
			"invocationID", invocationID,
			"err", errors.GetErrorStackString(err, 10))

		return r.emitter.EmitFailure(message.RequestID, invocationID, errors.RootCause(err))
	}

	metadata, err := r.registry.Lookup(invocationContext.FunctionID)
	if err != nil {
		return r.emitter.EmitFailure(message.RequestID, invocationContext.InvocationID, err)
	}

	entrypoint, err := r.loader.Load(metadata)
	if err != nil {
		return r.emitter.EmitFailure(message.RequestID, invocationContext.InvocationID, err)
	}

	r.inFlight.Add(1)

	go r.invoke(ctx, invocationContext, entrypoint)

	return nil
}

// invoke runs the function once a concurrency slot is free. The slot and the in-flight count are held until
// the invocation completes, which for deferred functions is when their callback fires
func (r *Router) invoke(ctx context.Context, invocationContext *invocation.Context, entrypoint invocation.Function) {
	if r.semaphore != nil {
		if err := r.semaphore.Acquire(ctx, 1); err != nil {
			r.logger.DebugWith("Dropping invocation, worker is stopping",
				"invocationID", invocationContext.InvocationID)
			r.inFlight.Done()
			return
		}
	}

	invocationContext.OnFinish(func() {
		if r.semaphore != nil {
			r.semaphore.Release(1)
		}

		r.inFlight.Done()
	})

	r.recorder.InvocationStarted(invocationContext.FunctionName)

	result, panicked, err := r.callEntrypoint(invocationContext, entrypoint)

	r.recorder.InvocationReturned(invocationContext.FunctionName)

	if panicked || err == invocation.ErrDeferred {
		return
	}

	if completeErr := invocationContext.Done(err, result); completeErr != nil &&
		completeErr != invocation.ErrAlreadyCompleted {
		r.logger.WarnWith("Failed to complete invocation",
			"invocationID", invocationContext.InvocationID,
			"err", errors.GetErrorStackString(completeErr, 10))
	}
}

func (r *Router) callEntrypoint(invocationContext *invocation.Context,
	entrypoint invocation.Function) (result interface{}, panicked bool, err error) {

	defer func() {
		if recovered := recover(); recovered != nil {
			panicked = true
			stackTrace := fmt.Sprintf("%v\n%s", recovered, debug.Stack())

			fmt.Fprintf(r.diagnostics, // nolint: errcheck
				"Uncaught panic in function %s (invocation %s): %s\n",
				invocationContext.FunctionName,
				invocationContext.InvocationID,
				stackTrace)

			if failErr := invocationContext.Fail(stackTrace); failErr != nil {
				r.logger.WarnWith("Failed to report uncaught failure",
					"invocationID", invocationContext.InvocationID,
					"err", failErr.Error())
			}
		}
	}()

	result, err = entrypoint(invocationContext, invocationContext.Done)
	return result, false, err
}
