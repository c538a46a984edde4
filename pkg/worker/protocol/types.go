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

// MessageType tags the payload carried by a StreamingMessage
type MessageType string

const (
	StartStreamMessageType          MessageType = "startStream"
	WorkerInitRequestMessageType    MessageType = "workerInitRequest"
	WorkerInitResponseMessageType   MessageType = "workerInitResponse"
	FunctionLoadRequestMessageType  MessageType = "functionLoadRequest"
	FunctionLoadResponseMessageType MessageType = "functionLoadResponse"
	InvocationRequestMessageType    MessageType = "invocationRequest"
	InvocationResponseMessageType   MessageType = "invocationResponse"
	InvocationCancelMessageType     MessageType = "invocationCancel"
	RpcLogMessageType               MessageType = "rpcLog"
)

// reserved binding names
const (
	RequestBindingName        = "req"
	ResponseBindingName       = "res"
	WebhookRequestBindingName = "webhookReq"
	ReturnBindingName         = "$return"
)

// HTTPTriggerType is set on invocation contexts built from an http input
const HTTPTriggerType = "http"

// StreamingMessage is the envelope of everything sent on the stream. Exactly one payload is set,
// matching Type
type StreamingMessage struct {
	RequestID string      `json:"requestId,omitempty"`
	Type      MessageType `json:"type"`

	WorkerInitRequest    *WorkerInitRequest    `json:"workerInitRequest,omitempty"`
	WorkerInitResponse   *WorkerInitResponse   `json:"workerInitResponse,omitempty"`
	FunctionLoadRequest  *FunctionLoadRequest  `json:"functionLoadRequest,omitempty"`
	FunctionLoadResponse *FunctionLoadResponse `json:"functionLoadResponse,omitempty"`
	InvocationRequest    *InvocationRequest    `json:"invocationRequest,omitempty"`
	InvocationResponse   *InvocationResponse   `json:"invocationResponse,omitempty"`
	InvocationCancel     *InvocationCancel     `json:"invocationCancel,omitempty"`
	RpcLog               *RpcLog               `json:"rpcLog,omitempty"`
}

type WorkerInitRequest struct {
	HostVersion  string            `json:"hostVersion,omitempty"`
	Capabilities map[string]string `json:"capabilities,omitempty"`
}

type WorkerInitResponse struct {
	WorkerVersion string            `json:"workerVersion,omitempty"`
	Capabilities  map[string]string `json:"capabilities,omitempty"`
	Result        StatusResult      `json:"result"`
}

type RpcFunctionMetadata struct {
	Name       string `json:"name,omitempty"`
	Directory  string `json:"directory,omitempty"`
	ScriptFile string `json:"scriptFile,omitempty"`
	EntryPoint string `json:"entryPoint,omitempty"`
}

type FunctionLoadRequest struct {
	FunctionID string              `json:"functionId"`
	Metadata   RpcFunctionMetadata `json:"metadata"`
}

type FunctionLoadResponse struct {
	FunctionID string       `json:"functionId"`
	Result     StatusResult `json:"result"`
}

type ParameterBinding struct {
	Name string    `json:"name"`
	Data TypedData `json:"data"`
}

type InvocationRequest struct {
	InvocationID    string               `json:"invocationId"`
	FunctionID      string               `json:"functionId"`
	InputData       []ParameterBinding   `json:"inputData,omitempty"`
	TriggerMetadata map[string]TypedData `json:"triggerMetadata,omitempty"`
}

type InvocationResponse struct {
	InvocationID string             `json:"invocationId"`
	OutputData   []ParameterBinding `json:"outputData,omitempty"`
	Result       StatusResult       `json:"result"`
}

type InvocationCancel struct {
	InvocationID string `json:"invocationId"`
}

// Status is the outcome carried by StatusResult
type Status string

const (
	StatusFailure   Status = "Failure"
	StatusSuccess   Status = "Success"
	StatusCancelled Status = "Cancelled"
)

type StatusResult struct {
	Status    Status        `json:"status"`
	Result    string        `json:"result,omitempty"`
	Exception *RpcException `json:"exception,omitempty"`
}

type RpcException struct {
	Source     string `json:"source,omitempty"`
	StackTrace string `json:"stackTrace,omitempty"`
	Message    string `json:"message,omitempty"`
}

// LogLevel is the severity of a forwarded log record
type LogLevel string

const (
	LogLevelTrace       LogLevel = "Trace"
	LogLevelDebug       LogLevel = "Debug"
	LogLevelInformation LogLevel = "Information"
	LogLevelWarning     LogLevel = "Warning"
	LogLevelError       LogLevel = "Error"
	LogLevelCritical    LogLevel = "Critical"
)

type RpcLog struct {
	InvocationID string   `json:"invocationId,omitempty"`
	Category     string   `json:"category,omitempty"`
	Level        LogLevel `json:"level,omitempty"`
	Message      string   `json:"message"`
}
