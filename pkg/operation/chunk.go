// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 💥 PanicError is returned when a task panics instead of returning an error
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// ⚡ ProcessInChunks applies fn to every item, chunkSize items at a time.
//
// All items of a chunk run concurrently and the next chunk starts only once every
// task of the current one has returned. When a task fails its siblings still run to
// completion, then the first error is returned and no further chunk is started.
// ctx is only checked between chunks.
func ProcessInChunks[T any](ctx context.Context, items []T, fn func(context.Context, T) error, chunkSize int) error {
	if chunkSize < 1 {
		return errors.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	logger := zerolog.Ctx(ctx)

	for start := 0; start < len(items); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("stopping before item %d: %w", start, err)
		}

		chunk := items[start:min(start+chunkSize, len(items))]
		logger.Debug().Int("start", start).Int("size", len(chunk)).Msg("processing chunk")

		// plain Group, not WithContext: a failure must not cancel its siblings
		var g errgroup.Group
		for _, item := range chunk {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = &PanicError{Value: r, Stack: debug.Stack()}
					}
				}()
				return fn(ctx, item)
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}
