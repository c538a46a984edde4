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

package functionregistry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nuclio/rpcworker/pkg/worker/protocol"
)

// FunctionMetadata describes a loaded function. It is immutable once registered
type FunctionMetadata struct {
	FunctionID string
	Name       string
	Directory  string
	ScriptPath string
	EntryPoint string
}

// NewFunctionMetadata creates metadata from a load request
func NewFunctionMetadata(loadRequest *protocol.FunctionLoadRequest) *FunctionMetadata {
	return &FunctionMetadata{
		FunctionID: loadRequest.FunctionID,
		Name:       loadRequest.Metadata.Name,
		Directory:  loadRequest.Metadata.Directory,
		ScriptPath: loadRequest.Metadata.ScriptFile,
		EntryPoint: loadRequest.Metadata.EntryPoint,
	}
}

// LookupError is returned when a function was never loaded
type LookupError struct {
	FunctionID string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("Function %s was not loaded", e.FunctionID)
}

// Registry holds the functions loaded for the lifetime of the worker
type Registry struct {
	lock      sync.RWMutex
	functions map[string]FunctionMetadata
}

func NewRegistry() *Registry {
	return &Registry{
		functions: map[string]FunctionMetadata{},
	}
}

// Register stores metadata under functionID, replacing whatever was there
func (r *Registry) Register(functionID string, metadata *FunctionMetadata) {
	r.lock.Lock()
	defer r.lock.Unlock()

	registered := *metadata
	registered.FunctionID = functionID

	r.functions[functionID] = registered
}

// Lookup returns a copy of the metadata registered under functionID, or a *LookupError
func (r *Registry) Lookup(functionID string) (*FunctionMetadata, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	metadata, found := r.functions[functionID]
	if !found {
		return nil, &LookupError{FunctionID: functionID}
	}

	return &metadata, nil
}

// GetFunctionIDs returns the registered function ids, sorted
func (r *Registry) GetFunctionIDs() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	functionIDs := make([]string, 0, len(r.functions))
	for functionID := range r.functions {
		functionIDs = append(functionIDs, functionID)
	}

	sort.Strings(functionIDs)

	return functionIDs
}
