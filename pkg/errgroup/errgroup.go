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

package errgroup

import (
	"context"
	"runtime/debug"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"golang.org/x/sync/errgroup"
)

// Group is an errgroup whose goroutines are named and recovered from panics
type Group struct {
	*errgroup.Group
	logger logger.Logger
}

func WithContext(ctx context.Context, loggerInstance logger.Logger) (*Group, context.Context) {
	newBaseErrgroup, errgroupCtx := errgroup.WithContext(ctx)

	return &Group{
		Group:  newBaseErrgroup,
		logger: loggerInstance,
	}, errgroupCtx
}

// Go runs f in its own goroutine. A panic in f fails the group like a returned error
func (g *Group) Go(actionName string, f func() error) {
	wrapper := func() (err error) {
		defer func() {
			if recoveredErr := recover(); recoveredErr != nil {
				g.logger.ErrorWith("Recovered from panic",
					"actionName", actionName,
					"err", recoveredErr,
					"stack", string(debug.Stack()))

				err = errors.Errorf("%s panicked: %v", actionName, recoveredErr)
			}
		}()

		if err = f(); err != nil {
			g.logger.DebugWith("Action failed", "actionName", actionName, "err", err.Error())
		}

		return
	}

	g.Group.Go(wrapper)
}
