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
	"sync"

	"github.com/nuclio/rpcworker/pkg/worker/protocol"
)

// Writer is the single outbound path. Responses, log records and the handshake all go through it so no
// two messages interleave on the wire
type Writer struct {
	lock      sync.Mutex
	transport Transport
}

func NewWriter(transport Transport) *Writer {
	return &Writer{
		transport: transport,
	}
}

func (w *Writer) Write(message *protocol.StreamingMessage) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.transport.Write(message)
}

// Close closes the transport without waiting for the write lock, since closing is what unblocks a stuck write
func (w *Writer) Close() error {
	return w.transport.Close()
}
