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

package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type HelperTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *HelperTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *HelperTestSuite) TestIsFile() {
	path := filepath.Join(suite.tempDir, "handler.so")
	suite.Require().NoError(os.WriteFile(path, []byte("x"), 0644))

	suite.Require().True(IsFile(path))
	suite.Require().True(FileExists(path))

	// directories exist but are not files
	suite.Require().False(IsFile(suite.tempDir))
	suite.Require().True(FileExists(suite.tempDir))
}

func (suite *HelperTestSuite) TestFileIsNotExist() {
	path := filepath.Join(suite.tempDir, "missing")

	suite.Require().False(IsFile(path))
	suite.Require().False(FileExists(path))
}

func (suite *HelperTestSuite) TestRetryUntilSuccessful() {
	attempts := 0
	err := RetryUntilSuccessful(time.Second, time.Millisecond, func() bool {
		attempts++
		return attempts == 3
	})
	suite.Require().NoError(err)
	suite.Require().Equal(3, attempts)
}

func (suite *HelperTestSuite) TestRetryUntilSuccessfulTimesOut() {
	err := RetryUntilSuccessful(20*time.Millisecond, 5*time.Millisecond, func() bool {
		return false
	})
	suite.Require().Error(err)
}

type MapTestSuite struct {
	suite.Suite
}

func (suite *MapTestSuite) TestMapToSlice() {
	suite.Require().Equal([]interface{}{"a", 1, "b", 2},
		MapToSlice(map[string]int{"b": 2, "a": 1}))
	suite.Require().Empty(MapToSlice(map[string]string{}))
}

func (suite *MapTestSuite) TestSortedKeys() {
	suite.Require().Equal([]string{"content-type", "x-nuclio"},
		SortedKeys(map[string]interface{}{"x-nuclio": true, "content-type": "text/plain"}))
}

func TestHelperTestSuite(t *testing.T) {
	suite.Run(t, new(HelperTestSuite))
	suite.Run(t, new(MapTestSuite))
}
