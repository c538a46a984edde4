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

package loader

import (
	"os"
	"path/filepath"
	"plugin"
	"testing"

	"github.com/nuclio/rpcworker/pkg/registry"
	"github.com/nuclio/rpcworker/pkg/worker/functionregistry"
	"github.com/nuclio/rpcworker/pkg/worker/invocation"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/nuclio/errors"
	"github.com/nuclio/nuclio-sdk-go"
	"github.com/nuclio/zap"
	"github.com/stretchr/testify/suite"
)

type fakePlugin struct {
	symbols map[string]plugin.Symbol
}

func (fp *fakePlugin) Lookup(symbolName string) (plugin.Symbol, error) {
	symbol, found := fp.symbols[symbolName]
	if !found {
		return nil, errors.Errorf("symbol %s not found", symbolName)
	}

	return symbol, nil
}

type discardWriter struct {
	count int
}

func (dw *discardWriter) Write(*protocol.StreamingMessage) error {
	dw.count++
	return nil
}

func greet(*invocation.Context, invocation.Callback) (interface{}, error) {
	return "hello", nil
}

type LoaderTestSuite struct {
	suite.Suite
	loader      *Loader
	entrypoints *registry.Registry
	opened      []string
	plugin      *fakePlugin
}

func (suite *LoaderTestSuite) SetupTest() {
	loggerInstance, err := nucliozap.NewNuclioZapTest("test")
	suite.Require().NoError(err)

	suite.entrypoints = registry.NewRegistry("entrypoint")
	suite.entrypoints.Register("main:Handler", invocation.Function(greet))
	suite.entrypoints.Register("orders", invocation.Function(greet))
	suite.entrypoints.Register("broken", "not a function")

	suite.opened = nil
	suite.plugin = &fakePlugin{symbols: map[string]plugin.Symbol{}}

	suite.loader = NewLoader(loggerInstance, suite.entrypoints)
	suite.loader.openPlugin = func(path string) (symbolLookuper, error) {
		suite.opened = append(suite.opened, path)
		return suite.plugin, nil
	}
}

func (suite *LoaderTestSuite) TestLoadDefaultHandler() {
	entrypoint, err := suite.loader.Load(&functionregistry.FunctionMetadata{Name: "anything"})
	suite.Require().NoError(err)

	result, err := entrypoint(nil, nil)
	suite.Require().NoError(err)
	suite.Require().Equal("hello", result)
}

func (suite *LoaderTestSuite) TestLoadByFunctionName() {
	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{Name: "orders", EntryPoint: "Run"})
	suite.Require().NoError(err)
}

func (suite *LoaderTestSuite) TestLoadMissing() {
	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{Name: "unknown", EntryPoint: "Run"})
	suite.Require().Error(err)
}

func (suite *LoaderTestSuite) TestLoadWrongType() {
	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{EntryPoint: "broken"})
	suite.Require().Error(err)
}

func (suite *LoaderTestSuite) TestLoadInvalidHandler() {
	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{EntryPoint: "a:b:c"})
	suite.Require().Error(err)
}

func (suite *LoaderTestSuite) TestLoadPlugin() {
	pluginPath := suite.writePlugin()

	suite.plugin.symbols["Handler"] = greet

	metadata := &functionregistry.FunctionMetadata{ScriptPath: pluginPath}
	entrypoint, err := suite.loader.Load(metadata)
	suite.Require().NoError(err)

	result, err := entrypoint(nil, nil)
	suite.Require().NoError(err)
	suite.Require().Equal("hello", result)

	// second load comes from the cache
	_, err = suite.loader.Load(metadata)
	suite.Require().NoError(err)
	suite.Require().Equal([]string{pluginPath}, suite.opened)
}

func (suite *LoaderTestSuite) TestLoadPluginVariable() {
	pluginPath := suite.writePlugin()

	exported := invocation.Function(greet)
	suite.plugin.symbols["Exported"] = &exported

	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{ScriptPath: pluginPath, EntryPoint: "Exported"})
	suite.Require().NoError(err)
}

func (suite *LoaderTestSuite) TestLoadPluginWrongSymbolType() {
	pluginPath := suite.writePlugin()

	suite.plugin.symbols["Handler"] = func() {}

	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{ScriptPath: pluginPath})
	suite.Require().Error(err)
}

func (suite *LoaderTestSuite) TestLoadPluginMissingFile() {
	_, err := suite.loader.Load(&functionregistry.FunctionMetadata{ScriptPath: "/no/such/handler.so"})
	suite.Require().Error(err)
	suite.Require().Empty(suite.opened)
}

func (suite *LoaderTestSuite) TestBuiltinHandler() {
	loggerInstance, err := nucliozap.NewNuclioZapTest("test")
	suite.Require().NoError(err)

	loader := NewLoader(loggerInstance, EntrypointRegistrySingleton)

	_, err = loader.Load(&functionregistry.FunctionMetadata{ScriptPath: BuiltinHandler})
	suite.Require().NoError(err)

	entrypoint, err := loader.Load(&functionregistry.FunctionMetadata{EntryPoint: BuiltinHandler})
	suite.Require().NoError(err)

	functionRegistry := functionregistry.NewRegistry()
	functionRegistry.Register("f1", &functionregistry.FunctionMetadata{Name: "echo"})

	discard := &discardWriter{}
	builder := invocation.NewBuilder(loggerInstance,
		functionRegistry,
		invocation.NewLogForwarder(discard, nil),
		invocation.NewResponseEmitter(loggerInstance, discard, nil))

	invocationContext, err := builder.Build(&protocol.StreamingMessage{
		RequestID: "r1",
		Type:      protocol.InvocationRequestMessageType,
		InvocationRequest: &protocol.InvocationRequest{
			InvocationID: "i1",
			FunctionID:   "f1",
			InputData: []protocol.ParameterBinding{
				{
					Name: protocol.RequestBindingName,
					Data: protocol.TypedData{
						Kind: protocol.HTTPKind,
						HTTP: &protocol.RpcHttp{
							Method:  "POST",
							Headers: []protocol.KeyValue{{Key: "content-type", Value: "text/plain"}},
							RawBody: []byte("ping"),
						},
					},
				},
			},
		},
	})
	suite.Require().NoError(err)

	result, err := entrypoint(invocationContext, invocationContext.Done)
	suite.Require().NoError(err)
	suite.Require().Equal(nuclio.Response{
		StatusCode:  200,
		ContentType: "text/plain",
		Body:        []byte("ping"),
	}, result)
	suite.Require().Equal(1, discard.count)
}

func (suite *LoaderTestSuite) TestParseHandler() {
	moduleName, entrypointName, err := ParseHandler("handler")
	suite.Require().NoError(err)
	suite.Require().Equal("", moduleName)
	suite.Require().Equal("handler", entrypointName)

	moduleName, entrypointName, err = ParseHandler("main:handler")
	suite.Require().NoError(err)
	suite.Require().Equal("main", moduleName)
	suite.Require().Equal("handler", entrypointName)

	_, _, err = ParseHandler("module:wat:handler")
	suite.Require().Error(err)
}

func (suite *LoaderTestSuite) writePlugin() string {
	pluginPath := filepath.Join(suite.T().TempDir(), "handler.so")
	suite.Require().NoError(os.WriteFile(pluginPath, []byte{}, 0644))

	return pluginPath
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}
