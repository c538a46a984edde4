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

package loader

import (
	"github.com/nuclio/rpcworker/pkg/worker/invocation"
	"github.com/nuclio/rpcworker/pkg/worker/typeddata"

	"github.com/nuclio/nuclio-sdk-go"
)

// BuiltinHandler is a compiled in function that echoes its first input, handy for checking a deployment
const BuiltinHandler = "nuclio:builtin"

func builtinHandler(context *invocation.Context, _ invocation.Callback) (interface{}, error) {
	context.Log("Builtin handler invoked", context.InvocationID) // nolint: errcheck

	if context.Request != nil {
		body := context.Request.RawBody
		if body == nil && context.Request.Body != nil {
			body = []byte(typeddata.DisplayString(context.Request.Body))
		}

		return nuclio.Response{
			StatusCode:  200,
			ContentType: context.Request.Headers["content-type"],
			Body:        body,
		}, nil
	}

	if len(context.Inputs) == 0 {
		return nil, nil
	}

	return context.Inputs[0], nil
}

func init() {
	RegisterEntrypoint(BuiltinHandler, builtinHandler)
}
