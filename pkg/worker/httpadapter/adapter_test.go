//go:build test_unit

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
	"testing"

	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/google/go-cmp/cmp"
	"github.com/nuclio/nuclio-sdk-go"
	"github.com/stretchr/testify/suite"
)

type AdapterTestSuite struct {
	suite.Suite
}

func (suite *AdapterTestSuite) TestFromWire() {
	request := FromWire(&protocol.RpcHttp{
		Method: "POST",
		URL:    "http://host/api/orders?id=1",
		Headers: []protocol.KeyValue{
			{Key: "content-type", Value: "application/json"},
			{Key: "x-trace", Value: "first"},
			{Key: "x-trace", Value: "second"},
		},
		Query: []protocol.KeyValue{
			{Key: "id", Value: "1"},
			{Key: "id", Value: "2"},
		},
		Params: []protocol.NamedTypedData{
			{Key: "order", Value: protocol.TypedData{Kind: protocol.StringKind, String: "17"}},
			{Key: "name", Value: protocol.TypedData{Kind: protocol.StringKind, String: "widget"}},
		},
		Body: &protocol.TypedData{Kind: protocol.JSONKind, JSON: `{"qty":2}`},
	})

	expected := &Request{
		Method:  "POST",
		URL:     "http://host/api/orders?id=1",
		Headers: map[string]string{"content-type": "application/json", "x-trace": "first"},
		Query:   map[string]string{"id": "1"},
		Params:  map[string]interface{}{"order": 17.0, "name": "widget"},
		Body:    map[string]interface{}{"qty": 2.0},
	}

	suite.Require().Empty(cmp.Diff(expected, request))
}

func (suite *AdapterTestSuite) TestFromWireRawBodyOnly() {
	request := FromWire(&protocol.RpcHttp{
		Method:  "PUT",
		RawBody: []byte{0x01, 0x02},
	})

	suite.Require().Nil(request.Body)
	suite.Require().Equal([]byte{0x01, 0x02}, request.RawBody)
	suite.Require().NotNil(request.Headers)
}

func (suite *AdapterTestSuite) TestFromWireNil() {
	request := FromWire(nil)
	suite.Require().Empty(request.Method)
	suite.Require().Empty(request.Headers)
}

func (suite *AdapterTestSuite) TestToWireEmptyIsRaw() {
	httpMessage := ToWire(map[string]interface{}{})

	suite.Require().Equal(&protocol.RpcHttp{
		RawResponse: &protocol.TypedData{Kind: protocol.JSONKind, JSON: "{}"},
	}, httpMessage)
}

func (suite *AdapterTestSuite) TestToWireHeadersOnlyIsStructured() {
	httpMessage := ToWire(map[string]interface{}{
		"headers": map[string]interface{}{"a": "b"},
	})

	suite.Require().Nil(httpMessage.RawResponse)
	suite.Require().Nil(httpMessage.Body)
	suite.Require().Equal([]protocol.KeyValue{{Key: "a", Value: "b"}}, httpMessage.Headers)
}

func (suite *AdapterTestSuite) TestToWireBareBytesIsRaw() {
	httpMessage := ToWire([]byte("opaque"))

	suite.Require().Equal(&protocol.RpcHttp{
		RawResponse: &protocol.TypedData{Kind: protocol.BytesKind, Bytes: []byte("opaque")},
	}, httpMessage)
}

func (suite *AdapterTestSuite) TestToWireTextAndUnrelatedObjectsAreRaw() {
	suite.Require().Equal(&protocol.TypedData{Kind: protocol.StringKind, String: "hi"},
		ToWire("hi").RawResponse)

	suite.Require().Equal(&protocol.TypedData{Kind: protocol.JSONKind, JSON: `{"answer":42}`},
		ToWire(map[string]interface{}{"answer": 42}).RawResponse)

	// empty strings do not count as present
	suite.Require().NotNil(ToWire(map[string]interface{}{"method": "", "url": ""}).RawResponse)
}

func (suite *AdapterTestSuite) TestToWireStatus() {
	for _, testCase := range []struct {
		name               string
		result             map[string]interface{}
		expectedStatusCode string
	}{
		{name: "statusCodeNumber", result: map[string]interface{}{"statusCode": 201}, expectedStatusCode: "201"},
		{name: "statusCodeFloat", result: map[string]interface{}{"statusCode": 202.0}, expectedStatusCode: "202"},
		{name: "status", result: map[string]interface{}{"status": "404"}, expectedStatusCode: "404"},
		{
			name:               "statusCodeWins",
			result:             map[string]interface{}{"statusCode": "200", "status": 500},
			expectedStatusCode: "200",
		},
	} {
		suite.Run(testCase.name, func() {
			httpMessage := ToWire(testCase.result)
			suite.Require().Nil(httpMessage.RawResponse)
			suite.Require().Equal(testCase.expectedStatusCode, httpMessage.StatusCode)
		})
	}
}

func (suite *AdapterTestSuite) TestToWireBodyEncoding() {
	for _, testCase := range []struct {
		name            string
		result          map[string]interface{}
		expectedBody    *protocol.TypedData
		expectedRawBody []byte
	}{
		{
			name:         "text",
			result:       map[string]interface{}{"body": "hello"},
			expectedBody: &protocol.TypedData{Kind: protocol.StringKind, String: "hello"},
		},
		{
			name:         "structured",
			result:       map[string]interface{}{"body": map[string]interface{}{"a": 1}},
			expectedBody: &protocol.TypedData{Kind: protocol.StringKind, String: `{"a":1}`},
		},
		{
			name:         "bytes",
			result:       map[string]interface{}{"body": []byte{0x7f}},
			expectedBody: &protocol.TypedData{Kind: protocol.BytesKind, Bytes: []byte{0x7f}},
		},
		{
			name:         "markedRaw",
			result:       map[string]interface{}{"body": "hello", "isRaw": true},
			expectedBody: &protocol.TypedData{Kind: protocol.BytesKind, Bytes: []byte("hello")},
		},
		{
			name: "headerMarkedRaw",
			result: map[string]interface{}{
				"body":    "hello",
				"headers": map[string]interface{}{"isRaw": "true"},
			},
			expectedBody: &protocol.TypedData{Kind: protocol.BytesKind, Bytes: []byte("hello")},
		},
		{
			name:            "rawBodyWins",
			result:          map[string]interface{}{"body": "ignored", "rawBody": []byte("kept")},
			expectedRawBody: []byte("kept"),
		},
	} {
		suite.Run(testCase.name, func() {
			httpMessage := ToWire(testCase.result)
			suite.Require().Nil(httpMessage.RawResponse)
			suite.Require().Equal(testCase.expectedBody, httpMessage.Body)
			suite.Require().Equal(testCase.expectedRawBody, httpMessage.RawBody)
		})
	}
}

func (suite *AdapterTestSuite) TestToWireResponse() {
	httpMessage := ToWire(&Response{
		StatusCode: 201,
		Headers:    map[string]string{"x-b": "2", "x-a": "1"},
		Body:       "created",
	})

	suite.Require().Equal(&protocol.RpcHttp{
		StatusCode: "201",
		Headers:    []protocol.KeyValue{{Key: "x-a", Value: "1"}, {Key: "x-b", Value: "2"}},
		Body:       &protocol.TypedData{Kind: protocol.StringKind, String: "created"},
	}, httpMessage)
}

func (suite *AdapterTestSuite) TestToWireEmptyResponseUsesWireKeys() {
	suite.Require().Equal(&protocol.TypedData{Kind: protocol.JSONKind, JSON: "{}"},
		ToWire(Response{}).RawResponse)

	suite.Require().Equal(&protocol.TypedData{Kind: protocol.JSONKind, JSON: `{"isRaw":true}`},
		ToWire(&Response{IsRaw: true}).RawResponse)
}

func (suite *AdapterTestSuite) TestToWireNuclioResponse() {
	httpMessage := ToWire(nuclio.Response{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"ok":true}`),
	})

	suite.Require().Equal("200", httpMessage.StatusCode)
	suite.Require().Equal([]protocol.KeyValue{{Key: "Content-Type", Value: "application/json"}}, httpMessage.Headers)
	suite.Require().Equal(&protocol.TypedData{Kind: protocol.BytesKind, Bytes: []byte(`{"ok":true}`)},
		httpMessage.Body)
}

func (suite *AdapterTestSuite) TestRequestRoundTrip() {
	original := &protocol.RpcHttp{
		Method:  "GET",
		URL:     "http://host/path",
		Headers: []protocol.KeyValue{{Key: "accept", Value: "*/*"}},
		Query:   []protocol.KeyValue{{Key: "q", Value: "nuclio"}},
		Body:    &protocol.TypedData{Kind: protocol.StringKind, String: "payload"},
	}

	suite.Require().Equal(original, ToWire(FromWire(original)))
}

func TestAdapterTestSuite(t *testing.T) {
	suite.Run(t, new(AdapterTestSuite))
}
