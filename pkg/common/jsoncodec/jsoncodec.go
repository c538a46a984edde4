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

// Package jsoncodec is the single JSON entry point of the worker. It is backed by sonic configured
// to behave like encoding/json, so map keys are sorted and HTML is escaped.
package jsoncodec

import (
	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

// Marshal encodes value as JSON
func Marshal(value interface{}) ([]byte, error) {
	return defaultConfig.Marshal(value)
}

// MarshalToString encodes value as a JSON string
func MarshalToString(value interface{}) (string, error) {
	return defaultConfig.MarshalToString(value)
}

// Unmarshal decodes data into value
func Unmarshal(data []byte, value interface{}) error {
	return defaultConfig.Unmarshal(data, value)
}
