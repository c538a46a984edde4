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

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/nuclio/rpcworker/pkg/common"
	"github.com/nuclio/rpcworker/pkg/common/jsoncodec"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"
	"github.com/nuclio/rpcworker/pkg/worker/typeddata"

	"github.com/mitchellh/mapstructure"
	"github.com/nuclio/nuclio-sdk-go"
	"github.com/samber/lo"
)

// FromWire converts the wire http message to a request. Repeated header and query keys keep their first value
func FromWire(httpMessage *protocol.RpcHttp) *Request {
	request := &Request{
		Headers: map[string]string{},
		Query:   map[string]string{},
		Params:  map[string]interface{}{},
	}

	if httpMessage == nil {
		return request
	}

	request.Method = httpMessage.Method
	request.URL = httpMessage.URL
	request.RawBody = httpMessage.RawBody

	flattenPairs(httpMessage.Headers, request.Headers)
	flattenPairs(httpMessage.Query, request.Query)

	for _, param := range httpMessage.Params {
		if _, found := request.Params[param.Key]; !found {
			paramValue := param.Value
			request.Params[param.Key] = typeddata.Decode(&paramValue)
		}
	}

	if httpMessage.Body != nil {
		request.Body = typeddata.Decode(httpMessage.Body)
	}

	return request
}

// ToWire converts a function result to the wire http message. A result that carries none of the http fields
// is sent whole, as a raw response
func ToWire(result interface{}) *protocol.RpcHttp {
	httpMessage := &protocol.RpcHttp{}
	isRawResponse := true

	if fields := extractFields(result); fields != nil {
		if fields.Method != nil && *fields.Method != "" {
			httpMessage.Method = *fields.Method
			isRawResponse = false
		}

		if rawBody := toBytes(fields.RawBody); rawBody != nil {
			httpMessage.RawBody = rawBody
			isRawResponse = false
		}

		if fields.URL != nil && *fields.URL != "" {
			httpMessage.URL = *fields.URL
			isRawResponse = false
		}

		if len(fields.Headers) > 0 {
			httpMessage.Headers = toPairs(fields.Headers)
			isRawResponse = false
		}

		if len(fields.Query) > 0 {
			httpMessage.Query = toPairs(fields.Query)
			isRawResponse = false
		}

		// status code takes precedence over status
		if fields.StatusCode != nil && *fields.StatusCode != "" {
			httpMessage.StatusCode = *fields.StatusCode
			isRawResponse = false
		} else if fields.Status != nil && *fields.Status != "" {
			httpMessage.StatusCode = *fields.Status
			isRawResponse = false
		}

		if fields.Body != nil {
			isRawResponse = false

			// a supplied raw body always wins
			if httpMessage.RawBody == nil {
				httpMessage.Body = encodeBody(fields)
			}
		}
	}

	if isRawResponse {
		httpMessage.RawResponse = typeddata.Encode(result)
	}

	return httpMessage
}

func extractFields(result interface{}) *responseFields {
	switch typedResult := result.(type) {
	case nil, []byte, string:
		return nil
	case *Request:
		if typedResult == nil {
			return nil
		}
		return requestFields(typedResult)
	case Request:
		return requestFields(&typedResult)
	case *Response:
		if typedResult == nil {
			return nil
		}
		return responseToFields(typedResult)
	case Response:
		return responseToFields(&typedResult)
	case *nuclio.Response:
		if typedResult == nil {
			return nil
		}
		return nuclioResponseFields(typedResult)
	case nuclio.Response:
		return nuclioResponseFields(&typedResult)
	}

	if reflect.ValueOf(result).Kind() != reflect.Map {
		return nil
	}

	fields := responseFields{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &fields,
	})
	if err != nil {
		return nil
	}

	// best effort. fields of the wrong shape are left absent
	decoder.Decode(result) // nolint: errcheck

	return &fields
}

func requestFields(request *Request) *responseFields {
	return &responseFields{
		Method:  &request.Method,
		URL:     &request.URL,
		Headers: stringMapToInterfaceMap(request.Headers),
		Query:   stringMapToInterfaceMap(request.Query),
		Body:    request.Body,
		RawBody: request.RawBody,
	}
}

func responseToFields(response *Response) *responseFields {
	fields := &responseFields{
		Headers: stringMapToInterfaceMap(response.Headers),
		Body:    response.Body,
		IsRaw:   response.IsRaw,
	}

	if response.StatusCode != 0 {
		statusCode := strconv.Itoa(response.StatusCode)
		fields.StatusCode = &statusCode
	}

	return fields
}

func nuclioResponseFields(response *nuclio.Response) *responseFields {
	fields := &responseFields{
		Headers: map[string]interface{}{},
	}

	for headerKey, headerValue := range response.Headers {
		fields.Headers[headerKey] = headerValue
	}

	if response.ContentType != "" {
		fields.Headers["Content-Type"] = response.ContentType
	}

	if response.StatusCode != 0 {
		statusCode := strconv.Itoa(response.StatusCode)
		fields.StatusCode = &statusCode
	}

	if response.Body != nil {
		fields.Body = response.Body
	}

	return fields
}

func encodeBody(fields *responseFields) *protocol.TypedData {
	_, bodyIsBytes := fields.Body.([]byte)

	if fields.IsRaw || headersMarkRaw(fields.Headers) || bodyIsBytes {
		return &protocol.TypedData{
			Kind:  protocol.BytesKind,
			Bytes: toBytes(fields.Body),
		}
	}

	return &protocol.TypedData{
		Kind:   protocol.StringKind,
		String: typeddata.DisplayString(fields.Body),
	}
}

func headersMarkRaw(headers map[string]interface{}) bool {
	for headerKey, headerValue := range headers {
		if !strings.EqualFold(headerKey, RawHeaderName) {
			continue
		}

		switch typedValue := headerValue.(type) {
		case bool:
			return typedValue
		case string:
			isRaw, _ := strconv.ParseBool(typedValue)
			return isRaw
		}
	}

	return false
}

// toBytes returns nil only for nil input
func toBytes(value interface{}) []byte {
	switch typedValue := value.(type) {
	case nil:
		return nil
	case []byte:
		return typedValue
	case string:
		return []byte(typedValue)
	}

	encodedValue, err := jsoncodec.Marshal(value)
	if err != nil {
		return []byte(typeddata.DisplayString(value))
	}

	return encodedValue
}

func toPairs(values map[string]interface{}) []protocol.KeyValue {
	pairs := make([]protocol.KeyValue, 0, len(values))

	for _, key := range common.SortedKeys(values) {
		pairs = append(pairs, protocol.KeyValue{
			Key:   key,
			Value: typeddata.DisplayString(values[key]),
		})
	}

	return pairs
}

func flattenPairs(pairs []protocol.KeyValue, target map[string]string) {
	for _, pair := range pairs {
		if _, found := target[pair.Key]; !found {
			target[pair.Key] = pair.Value
		}
	}
}

func stringMapToInterfaceMap(values map[string]string) map[string]interface{} {
	return lo.MapValues(values, func(value string, _ string) interface{} {
		return value
	})
}
