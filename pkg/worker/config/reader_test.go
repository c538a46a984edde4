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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ReaderTestSuite struct {
	suite.Suite
	reader *Reader
}

func (suite *ReaderTestSuite) SetupTest() {
	suite.reader = NewReader()
}

func (suite *ReaderTestSuite) TestDefaults() {
	configuration, err := suite.reader.ReadFileOrDefault("")
	suite.Require().NoError(err)

	suite.Require().NotEmpty(configuration.WorkerID)
	suite.Require().NotEmpty(configuration.RequestID)
	suite.Require().Equal(GRPCTransportKind, configuration.Transport.Kind)
	suite.Require().Equal("127.0.0.1:50051", configuration.Transport.Address())
	suite.Require().Equal(DefaultMaxMessageLength, configuration.Transport.MaxMessageLength)
	suite.Require().True(configuration.HealthCheck.IsEnabled())
	suite.Require().True(configuration.Metrics.IsEnabled())
	suite.Require().Zero(configuration.MaxConcurrentInvocations)

	connectionTimeout, err := configuration.Transport.GetConnectionTimeout()
	suite.Require().NoError(err)
	suite.Require().Equal(30*time.Second, connectionTimeout)
}

func (suite *ReaderTestSuite) TestReadMergesDefaults() {
	configurationPath := filepath.Join(suite.T().TempDir(), "worker.yaml")
	suite.Require().NoError(os.WriteFile(configurationPath, []byte(`
workerId: worker-1
transport:
  kind: socket
  network: unix
  socketPath: /tmp/worker.sock
  encoding: msgpack
metrics:
  enabled: false
maxConcurrentInvocations: 4
`), 0644))

	configuration, err := suite.reader.ReadFileOrDefault(configurationPath)
	suite.Require().NoError(err)

	suite.Require().Equal("worker-1", configuration.WorkerID)
	suite.Require().Equal(SocketTransportKind, configuration.Transport.Kind)
	suite.Require().Equal(MsgpackSocketEncoding, configuration.Transport.Encoding)
	suite.Require().Equal("/tmp/worker.sock", configuration.Transport.Address())
	suite.Require().Equal("30s", configuration.Transport.ConnectionTimeout)
	suite.Require().False(configuration.Metrics.IsEnabled())
	suite.Require().True(configuration.HealthCheck.IsEnabled())
	suite.Require().Equal(":8082", configuration.HealthCheck.ListenAddress)
	suite.Require().Equal(4, configuration.MaxConcurrentInvocations)
}

func (suite *ReaderTestSuite) TestReadInvalid() {
	configuration := Configuration{}
	err := suite.reader.Read(strings.NewReader("transport: [not, a, map]"), &configuration)
	suite.Require().Error(err)
}

func (suite *ReaderTestSuite) TestMissingFile() {
	_, err := suite.reader.ReadFileOrDefault("/no/such/worker.yaml")
	suite.Require().Error(err)
	suite.Require().Contains(err.Error(), "does not exist")
}

func (suite *ReaderTestSuite) TestInvalidConnectionTimeout() {
	transport := Transport{ConnectionTimeout: "soon"}
	_, err := transport.GetConnectionTimeout()
	suite.Require().Error(err)

	transport.ConnectionTimeout = ""
	connectionTimeout, err := transport.GetConnectionTimeout()
	suite.Require().NoError(err)
	suite.Require().Equal(DefaultConnectionTimeout, connectionTimeout)
}

func TestReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ReaderTestSuite))
}
