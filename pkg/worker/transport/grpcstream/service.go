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
	"google.golang.org/grpc"
)

const (
	ServiceName       = "workerrpc.FunctionRpc"
	EventStreamMethod = "/" + ServiceName + "/" + eventStreamName

	eventStreamName = "EventStream"
)

var eventStreamDesc = grpc.StreamDesc{
	StreamName:    eventStreamName,
	ServerStreams: true,
	ClientStreams: true,
}

// EventStreamHandler serves one worker's event stream on the host side
type EventStreamHandler func(stream grpc.ServerStream) error

// RegisterEventStreamServer registers the event stream service on a host's server. The server must be
// created with grpc.ForceServerCodec(Codec{})
func RegisterEventStreamServer(server *grpc.Server, handler EventStreamHandler) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Streams: []grpc.StreamDesc{
			{
				StreamName:    eventStreamName,
				ServerStreams: true,
				ClientStreams: true,
				Handler: func(_ interface{}, stream grpc.ServerStream) error {
					return handler(stream)
				},
			},
		},
	}, nil)
}
