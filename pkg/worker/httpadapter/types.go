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

package httpadapter

// RawHeaderName is a response header that, when set to true, forces the body to be sent as bytes
const RawHeaderName = "isRaw"

// Request is the native shape of an http input. Body is nil unless the host sent a structured body, in
// which case RawBody still carries the untouched payload when the host supplied one
type Request struct {
	Method  string                 `json:"method,omitempty"`
	URL     string                 `json:"url,omitempty"`
	Headers map[string]string      `json:"headers,omitempty"`
	Query   map[string]string      `json:"query,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Body    interface{}            `json:"body,omitempty"`
	RawBody []byte                 `json:"rawBody,omitempty"`
}

// Response is what functions bind to "res" or return from http triggered invocations. A zero
// StatusCode is omitted from the wire
type Response struct {
	StatusCode int               `json:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       interface{}       `json:"body,omitempty"`
	IsRaw      bool              `json:"isRaw,omitempty"`
}

// responseFields is the normalized view of any http shaped result. A nil pointer means the field is absent
type responseFields struct {
	Method     *string                `mapstructure:"method"`
	URL        *string                `mapstructure:"url"`
	Headers    map[string]interface{} `mapstructure:"headers"`
	Query      map[string]interface{} `mapstructure:"query"`
	StatusCode *string                `mapstructure:"statusCode"`
	Status     *string                `mapstructure:"status"`
	Body       interface{}            `mapstructure:"body"`
	RawBody    interface{}            `mapstructure:"rawBody"`
	IsRaw      bool                   `mapstructure:"isRaw"`
}
