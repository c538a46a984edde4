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
	"fmt"
	"plugin"
	"strings"
	"sync"

	"github.com/nuclio/rpcworker/pkg/common"
	"github.com/nuclio/rpcworker/pkg/registry"
	"github.com/nuclio/rpcworker/pkg/worker/functionregistry"
	"github.com/nuclio/rpcworker/pkg/worker/invocation"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// DefaultHandler is used when the function metadata names no entrypoint
const DefaultHandler = "main:Handler"

// EntrypointRegistrySingleton holds functions compiled into the worker binary, keyed by handler name
var EntrypointRegistrySingleton = registry.NewRegistry("entrypoint")

// RegisterEntrypoint makes a compiled in function loadable under name. Call it from init()
func RegisterEntrypoint(name string, function invocation.Function) {
	EntrypointRegistrySingleton.Register(name, function)
}

type symbolLookuper interface {
	Lookup(symbolName string) (plugin.Symbol, error)
}

// Loader resolves function metadata to an entrypoint, either a registered one or one exported by a Go plugin
type Loader struct {
	logger      logger.Logger
	entrypoints *registry.Registry
	lock        sync.Mutex
	cache       map[string]invocation.Function
	openPlugin  func(path string) (symbolLookuper, error)
}

func NewLoader(parentLogger logger.Logger, entrypoints *registry.Registry) *Loader {
	return &Loader{
		logger:      parentLogger.GetChild("loader"),
		entrypoints: entrypoints,
		cache:       map[string]invocation.Function{},
		openPlugin: func(path string) (symbolLookuper, error) {
			return plugin.Open(path)
		},
	}
}

// Load returns the entrypoint of a function. Results are cached per script path and entrypoint
func (l *Loader) Load(metadata *functionregistry.FunctionMetadata) (invocation.Function, error) {
	handlerName := metadata.EntryPoint
	if handlerName == "" {
		handlerName = DefaultHandler
	}

	cacheKey := fmt.Sprintf("%s|%s", metadata.ScriptPath, handlerName)

	l.lock.Lock()
	defer l.lock.Unlock()

	if entrypoint, found := l.cache[cacheKey]; found {
		return entrypoint, nil
	}

	moduleName, entrypointName, err := ParseHandler(handlerName)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse handler name")
	}

	var entrypoint invocation.Function

	if strings.HasSuffix(metadata.ScriptPath, ".so") {
		entrypoint, err = l.loadPlugin(metadata.ScriptPath, entrypointName)
	} else {
		entrypoint, err = l.loadRegistered(metadata, handlerName, moduleName, entrypointName)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load function %s", metadata.Name)
	}

	l.logger.DebugWith("Loaded entrypoint",
		"functionName", metadata.Name,
		"scriptPath", metadata.ScriptPath,
		"handler", handlerName)

	l.cache[cacheKey] = entrypoint

	return entrypoint, nil
}

func (l *Loader) loadRegistered(metadata *functionregistry.FunctionMetadata,
	handlerName string,
	moduleName string,
	entrypointName string) (invocation.Function, error) {
	candidates := []string{metadata.ScriptPath, handlerName, entrypointName, metadata.Name}
	if moduleName != "" {
		candidates = append(candidates, fmt.Sprintf("%s:%s", moduleName, entrypointName))
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		registeree, err := l.entrypoints.Get(candidate)
		if err != nil {
			continue
		}

		entrypoint, ok := registeree.(invocation.Function)
		if !ok {
			return nil, errors.Errorf("Entrypoint %s is of wrong type - %T", candidate, registeree)
		}

		return entrypoint, nil
	}

	return nil, errors.Errorf("No entrypoint registered for handler %s (registered: %s)",
		handlerName,
		strings.Join(l.entrypoints.GetKinds(), ", "))
}

func (l *Loader) loadPlugin(path string, entrypointName string) (invocation.Function, error) {
	if !common.IsFile(path) {
		return nil, errors.Errorf("Plugin %s does not exist", path)
	}

	handlerPlugin, err := l.openPlugin(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load plugin at %q", path)
	}

	handlerSymbol, err := handlerPlugin.Lookup(entrypointName)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't find handler %q in %q", entrypointName, path)
	}

	switch typedSymbol := handlerSymbol.(type) {
	case func(*invocation.Context, invocation.Callback) (interface{}, error):
		return typedSymbol, nil
	case *invocation.Function:
		return *typedSymbol, nil
	case *func(*invocation.Context, invocation.Callback) (interface{}, error):
		return *typedSymbol, nil
	}

	return nil, errors.Errorf("%s:%s is of wrong type - %T", path, entrypointName, handlerSymbol)
}

// ParseHandler splits "module:entrypoint" or "entrypoint"
func ParseHandler(handler string) (string, string, error) {
	moduleAndEntrypoint := strings.Split(handler, ":")
	switch len(moduleAndEntrypoint) {

	// entrypoint only
	case 1:
		return "", moduleAndEntrypoint[0], nil

		// module:entrypoint
	case 2:
		return moduleAndEntrypoint[0], moduleAndEntrypoint[1], nil

	default:
		return "", "", errors.Errorf("Invalid handler name %s", handler)
	}
}
