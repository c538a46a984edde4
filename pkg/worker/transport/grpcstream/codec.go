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
	"github.com/nuclio/rpcworker/pkg/common/jsoncodec"

	"google.golang.org/grpc/encoding"
)

// Codec carries protocol messages as JSON over grpc
type Codec struct{}

func (Codec) Marshal(value interface{}) ([]byte, error) {
	return jsoncodec.Marshal(value)
}

func (Codec) Unmarshal(data []byte, value interface{}) error {
	return jsoncodec.Unmarshal(data, value)
}

func (Codec) Name() string {
	return "json"
}

func init() {
	encoding.RegisterCodec(Codec{})
}
