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

package typeddata

import (
	"fmt"
	"strconv"

	"github.com/nuclio/rpcworker/pkg/common/jsoncodec"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
)

// Decode converts wire typed data to a native value. Bytes and streams are returned untouched; everything
// else is read as text and parsed as JSON when possible, otherwise the text itself is returned. Decode never
// fails
func Decode(data *protocol.TypedData) interface{} {
	if data == nil {
		return nil
	}

	switch data.Kind {
	case protocol.BytesKind:
		return data.Bytes
	case protocol.StreamKind:
		return data.Stream
	}

	return parseText(text(data))
}

// Encode converts a native value to wire typed data. Strings and byte slices keep their shape, anything else
// is stored as its JSON text
func Encode(value interface{}) *protocol.TypedData {
	switch typedValue := value.(type) {
	case string:
		return &protocol.TypedData{Kind: protocol.StringKind, String: typedValue}
	case []byte:
		return &protocol.TypedData{Kind: protocol.BytesKind, Bytes: typedValue}
	}

	encodedValue, err := jsoncodec.MarshalToString(value)
	if err != nil {

		// not serializable (channels, funcs). keep whatever fmt can make of it
		return &protocol.TypedData{Kind: protocol.StringKind, String: fmt.Sprint(value)}
	}

	return &protocol.TypedData{Kind: protocol.JSONKind, JSON: encodedValue}
}

// DisplayString renders a value the way it is reported in a status result
func DisplayString(value interface{}) string {
	switch typedValue := value.(type) {
	case string:
		return typedValue
	case []byte:
		return string(typedValue)
	case error:
		return typedValue.Error()
	case fmt.Stringer:
		return typedValue.String()
	}

	if encodedValue, err := jsoncodec.MarshalToString(value); err == nil {
		return encodedValue
	}

	return fmt.Sprint(value)
}

func text(data *protocol.TypedData) string {
	switch data.Kind {
	case protocol.StringKind:
		return data.String
	case protocol.JSONKind:
		return data.JSON
	case protocol.IntKind:
		return strconv.FormatInt(data.Int, 10)
	case protocol.DoubleKind:
		return strconv.FormatFloat(data.Double, 'g', -1, 64)
	case protocol.BoolKind:
		return strconv.FormatBool(data.Bool)
	}

	// unknown kinds: take whichever text field the sender filled
	if data.String != "" {
		return data.String
	}

	return data.JSON
}

func parseText(value string) interface{} {
	var parsedValue interface{}

	if err := jsoncodec.Unmarshal([]byte(value), &parsedValue); err != nil {
		return value
	}

	return parsedValue
}
