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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nuclio/rpcworker/pkg/worker/httpadapter"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/typeddata"

	"github.com/nuclio/logger"
)

// Context is handed to a function for a single invocation.
//
// Inputs holds the decoded input bindings in the order the host sent them. Bindings starts out with the same
// values keyed by name and is what gets sent back as output bindings when the invocation completes, so
// functions set outputs either directly or through Bind. Direct writes to Bindings must not race with Bind
// or completion. BindingData holds the decoded trigger metadata and is read only
type Context struct {
	InvocationID      string
	FunctionID        string
	FunctionName      string
	FunctionDirectory string
	TriggerType       string
	Inputs            []interface{}
	Bindings          map[string]interface{}
	BindingData       map[string]interface{}

	// Request is the first http input, including one passed as webhookReq
	Request *httpadapter.Request

	logger       logger.Logger
	requestID    string
	startTime    time.Time
	bindingsLock sync.Mutex
	completed    bool
	completeLock sync.Mutex
	finishOnce   sync.Once
	onFinish     func()
	logForwarder *LogForwarder
	emitter      *ResponseEmitter
}

// RequestID returns the correlation id of the invocation request
func (c *Context) RequestID() string {
	return c.requestID
}

// Bind merges values into the bindings and calls done, if given, with no error
func (c *Context) Bind(values map[string]interface{}, done func(error)) {
	c.bindingsLock.Lock()
	for name, value := range values {
		c.Bindings[name] = value
	}
	c.bindingsLock.Unlock()

	if done != nil {
		done(nil)
	}
}

// Done completes the invocation with an error and/or a result
func (c *Context) Done(err error, result interface{}) error {
	c.completeLock.Lock()
	if c.completed {
		c.completeLock.Unlock()

		c.logger.WarnWith("Ignoring repeated completion",
			"invocationID", c.InvocationID,
			"functionName", c.FunctionName)

		return ErrAlreadyCompleted
	}

	c.completed = true
	c.completeLock.Unlock()

	defer c.finish()

	return c.emitter.Complete(c, err, result)
}

// Fail reports the invocation as failed with the given stack trace, regardless of completion
func (c *Context) Fail(stackTrace string) error {
	defer c.finish()

	return c.emitter.EmitUncaughtFailure(c, stackTrace)
}

// OnFinish sets a callback fired once, after the first completion or failure has been written. Must be
// set before the function runs
func (c *Context) OnFinish(callback func()) {
	c.onFinish = callback
}

func (c *Context) finish() {
	c.finishOnce.Do(func() {
		if c.onFinish != nil {
			c.onFinish()
		}
	})
}

// Log forwards an informational log line to the host
func (c *Context) Log(args ...interface{}) error {
	return c.forwardLog(protocol.LogLevelInformation, args)
}

func (c *Context) Error(args ...interface{}) error {
	return c.forwardLog(protocol.LogLevelError, args)
}

func (c *Context) Warn(args ...interface{}) error {
	return c.forwardLog(protocol.LogLevelWarning, args)
}

func (c *Context) Info(args ...interface{}) error {
	return c.forwardLog(protocol.LogLevelInformation, args)
}

func (c *Context) Verbose(args ...interface{}) error {
	return c.forwardLog(protocol.LogLevelTrace, args)
}

func (c *Context) forwardLog(level protocol.LogLevel, args []interface{}) error {
	formattedArgs := make([]string, 0, len(args))

	for _, arg := range args {
		formattedArgs = append(formattedArgs, typeddata.DisplayString(arg))
	}

	return c.logForwarder.Forward(c.InvocationID,
		fmt.Sprintf("function.%s", c.FunctionName),
		level,
		strings.Join(formattedArgs, " "))
}

func (c *Context) snapshotBindings() map[string]interface{} {
	c.bindingsLock.Lock()
	defer c.bindingsLock.Unlock()

	snapshot := make(map[string]interface{}, len(c.Bindings))
	for name, value := range c.Bindings {
		snapshot[name] = value
	}

	return snapshot
}
