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

	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/nuclio/errors"
)

// Function is user code. It either returns its outcome or returns ErrDeferred and reports the outcome
// through done, possibly from another goroutine
type Function func(context *Context, done Callback) (interface{}, error)

// Callback completes an invocation. Only the first completion is sent; later ones return ErrAlreadyCompleted
type Callback func(err error, result interface{}) error

// ErrDeferred is returned by a Function that will complete through its callback
var ErrDeferred = errors.New("Completion deferred to callback")

// ErrAlreadyCompleted is returned when an invocation is completed twice
var ErrAlreadyCompleted = errors.New("Invocation already completed")

// MessageWriter is the single outbound path shared by all invocations. Implementations serialize writes
type MessageWriter interface {
	Write(message *protocol.StreamingMessage) error
}

// Recorder observes invocations, typically for metrics. Started and Returned bracket the call to the
// function; Completed is called once the outcome is written
type Recorder interface {
	InvocationStarted(functionName string)
	InvocationReturned(functionName string)
	InvocationCompleted(functionName string, failed bool, duration time.Duration)
	UncaughtFailure(functionName string)
	LogForwarded(level protocol.LogLevel)
}

// NopRecorder records nothing
type NopRecorder struct{}

func (NopRecorder) InvocationStarted(string) {}
func (NopRecorder) InvocationReturned(string) {}
func (NopRecorder) InvocationCompleted(string, bool, time.Duration) {}
func (NopRecorder) UncaughtFailure(string) {}
func (NopRecorder) LogForwarded(protocol.LogLevel) {}
