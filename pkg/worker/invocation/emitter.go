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

	"github.com/nuclio/rpcworker/pkg/common"
	"github.com/nuclio/rpcworker/pkg/worker/httpadapter"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/typeddata"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// ResponseEmitter writes invocation outcomes to the host
type ResponseEmitter struct {
	logger   logger.Logger
	writer   MessageWriter
	recorder Recorder
}

func NewResponseEmitter(parentLogger logger.Logger, writer MessageWriter, recorder Recorder) *ResponseEmitter {
	if recorder == nil {
		recorder = NopRecorder{}
	}

	return &ResponseEmitter{
		logger:   parentLogger.GetChild("emitter"),
		writer:   writer,
		recorder: recorder,
	}
}

// Complete writes the invocation response: the error and/or result, then every binding of the context
func (re *ResponseEmitter) Complete(invocationContext *Context, err error, result interface{}) error {
	response := &protocol.InvocationResponse{
		InvocationID: invocationContext.InvocationID,
	}

	if err != nil {
		response.Result.Status = protocol.StatusFailure
		response.Result.Result = typeddata.DisplayString(err)
	}

	if result != nil {
		response.Result.Status = protocol.StatusSuccess
		response.Result.Result = typeddata.DisplayString(result)
		response.OutputData = append(response.OutputData, protocol.ParameterBinding{
			Name: protocol.ReturnBindingName,
			Data: *typeddata.Encode(result),
		})
	}

	bindings := invocationContext.snapshotBindings()
	for _, name := range common.SortedKeys(bindings) {
		response.OutputData = append(response.OutputData, protocol.ParameterBinding{
			Name: name,
			Data: *encodeBinding(name, bindings[name]),
		})
	}

	// the status is always reported as success. an error only shows up in the result text
	response.Result.Status = protocol.StatusSuccess

	re.recorder.InvocationCompleted(invocationContext.FunctionName,
		err != nil,
		time.Since(invocationContext.startTime))

	if writeErr := re.writer.Write(&protocol.StreamingMessage{
		RequestID:          invocationContext.requestID,
		Type:               protocol.InvocationResponseMessageType,
		InvocationResponse: response,
	}); writeErr != nil {
		return errors.Wrap(writeErr, "Failed to write invocation response")
	}

	return nil
}

// EmitUncaughtFailure writes a failure response carrying stackTrace, independent of normal completion
func (re *ResponseEmitter) EmitUncaughtFailure(invocationContext *Context, stackTrace string) error {
	re.recorder.UncaughtFailure(invocationContext.FunctionName)

	re.logger.WarnWith("Reporting uncaught failure",
		"invocationID", invocationContext.InvocationID,
		"functionName", invocationContext.FunctionName)

	return re.writeFailure(invocationContext.requestID,
		invocationContext.InvocationID,
		&protocol.RpcException{
			Source:     invocationContext.FunctionName,
			StackTrace: stackTrace,
		})
}

// EmitFailure writes a failure response for an invocation that never got to run
func (re *ResponseEmitter) EmitFailure(requestID string, invocationID string, err error) error {
	return re.writeFailure(requestID, invocationID, &protocol.RpcException{
		Message: err.Error(),
	})
}

func (re *ResponseEmitter) writeFailure(requestID string,
	invocationID string,
	exception *protocol.RpcException) error {
	response := &protocol.InvocationResponse{
		InvocationID: invocationID,
		Result: protocol.StatusResult{
			Status:    protocol.StatusFailure,
			Result:    exception.Message,
			Exception: exception,
		},
	}

	if err := re.writer.Write(&protocol.StreamingMessage{
		RequestID:          requestID,
		Type:               protocol.InvocationResponseMessageType,
		InvocationResponse: response,
	}); err != nil {
		return errors.Wrap(err, "Failed to write failure response")
	}

	return nil
}

func encodeBinding(name string, value interface{}) *protocol.TypedData {
	switch name {
	case protocol.RequestBindingName, protocol.ResponseBindingName:
		return &protocol.TypedData{
			Kind: protocol.HTTPKind,
			HTTP: httpadapter.ToWire(value),
		}
	}

	return typeddata.Encode(value)
}
