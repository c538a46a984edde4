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

package status

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type StatusTestSuite struct {
	suite.Suite
}

func (suite *StatusTestSuite) TestHolderDefaultsToInitializing() {
	holder := Holder{}
	suite.Require().Equal(Initializing, holder.GetStatus())

	holder.SetStatus(Ready)
	suite.Require().Equal(Ready, holder.GetStatus())
	suite.Require().Equal("ready", holder.GetStatus().String())
}

func (suite *StatusTestSuite) TestUnknownString() {
	suite.Require().Equal("Unknown status - 17", Status(17).String())
}

func TestStatusTestSuite(t *testing.T) {
	suite.Run(t, new(StatusTestSuite))
}
