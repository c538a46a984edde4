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
	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/nuclio/errors"
)

// LogForwarder sends function log lines to the host as uncorrelated log records
type LogForwarder struct {
	writer   MessageWriter
	recorder Recorder
}

func NewLogForwarder(writer MessageWriter, recorder Recorder) *LogForwarder {
	if recorder == nil {
		recorder = NopRecorder{}
	}

	return &LogForwarder{
		writer:   writer,
		recorder: recorder,
	}
}

func (lf *LogForwarder) Forward(invocationID string,
	category string,
	level protocol.LogLevel,
	message string) error {
	lf.recorder.LogForwarded(level)

	if err := lf.writer.Write(&protocol.StreamingMessage{
		Type: protocol.RpcLogMessageType,
		RpcLog: &protocol.RpcLog{
			InvocationID: invocationID,
			Category:     category,
			Level:        level,
			Message:      message,
		},
	}); err != nil {
		return errors.Wrap(err, "Failed to write log record")
	}

	return nil
}
