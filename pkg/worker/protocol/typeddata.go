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

package protocol

// TypedDataKind names the populated variant of TypedData
type TypedDataKind string

const (
	StringKind TypedDataKind = "string"
	JSONKind   TypedDataKind = "json"
	BytesKind  TypedDataKind = "bytes"
	StreamKind TypedDataKind = "stream"
	HTTPKind   TypedDataKind = "http"
	IntKind    TypedDataKind = "int"
	DoubleKind TypedDataKind = "double"
	BoolKind   TypedDataKind = "bool"
)

// TypedData is a tagged union. Int, Double and Bool are accepted on decode only
type TypedData struct {
	Kind   TypedDataKind `json:"kind"`
	String string        `json:"string,omitempty"`
	JSON   string        `json:"json,omitempty"`
	Bytes  []byte        `json:"bytes,omitempty"`
	Stream []byte        `json:"stream,omitempty"`
	HTTP   *RpcHttp      `json:"http,omitempty"`
	Int    int64         `json:"int,omitempty"`
	Double float64       `json:"double,omitempty"`
	Bool   bool          `json:"bool,omitempty"`
}

// KeyValue is an ordered header or query entry
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NamedTypedData is an ordered route parameter
type NamedTypedData struct {
	Key   string    `json:"key"`
	Value TypedData `json:"value"`
}

// RpcHttp is the http sub-message. Either RawBody or Body drives serialization of the payload, and
// RawResponse is only set when the whole result is opaque
type RpcHttp struct {
	Method      string           `json:"method,omitempty"`
	URL         string           `json:"url,omitempty"`
	Headers     []KeyValue       `json:"headers,omitempty"`
	Query       []KeyValue       `json:"query,omitempty"`
	Params      []NamedTypedData `json:"params,omitempty"`
	RawBody     []byte           `json:"rawBody,omitempty"`
	Body        *TypedData       `json:"body,omitempty"`
	StatusCode  string           `json:"statusCode,omitempty"`
	RawResponse *TypedData       `json:"rawResponse,omitempty"`
}
