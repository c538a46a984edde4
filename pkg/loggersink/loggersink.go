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

package loggersink

import (
	"io"

	"github.com/nuclio/rpcworker/pkg/worker/config"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"github.com/nuclio/zap"
)

// CreateLogger creates the worker's system logger, writing to writer in the configured encoding and level
func CreateLogger(name string, configuration *config.Logger, writer io.Writer) (logger.Logger, error) {
	encoding := configuration.Encoding
	if encoding == "" {
		encoding = "console"
	}

	// get the default encoding and override line ending to newline
	encoderConfig := nucliozap.NewEncoderConfig()
	encoderConfig.JSON.LineEnding = "\n"

	loggerInstance, err := nucliozap.NewNuclioZap(name,
		encoding,
		encoderConfig,
		writer,
		writer,
		nucliozap.GetLevelByName(configuration.Level))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create logger")
	}

	return loggerInstance, nil
}
