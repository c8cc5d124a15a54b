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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func numbers(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestProcessInChunksCallCount(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		chunkSize int
	}{
		{name: "many_chunks", items: 999, chunkSize: 100},
		{name: "fewer_items_than_chunk", items: 50, chunkSize: 100},
		{name: "exact_multiple", items: 300, chunkSize: 100},
		{name: "chunk_of_one", items: 7, chunkSize: 1},
		{name: "empty", items: 0, chunkSize: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			seen := sync.Map{}

			err := ProcessInChunks(context.Background(), numbers(tt.items), func(ctx context.Context, item int) error {
				calls.Add(1)
				_, dup := seen.LoadOrStore(item, true)
				assert.False(t, dup, "item %d processed twice", item)
				return nil
			}, tt.chunkSize)

			require.NoError(t, err)
			assert.Equal(t, int64(tt.items), calls.Load())
		})
	}
}

func TestProcessInChunksBoundsConcurrency(t *testing.T) {
	const chunkSize = 4

	var active, peak atomic.Int64
	var mu sync.Mutex
	var order []int

	err := ProcessInChunks(context.Background(), numbers(10), func(ctx context.Context, item int) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)

		mu.Lock()
		order = append(order, item)
		mu.Unlock()
		return nil
	}, chunkSize)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(chunkSize), "no more than one chunk should run at once")

	// every item of chunk k finishes before any item of chunk k+1
	require.Len(t, order, 10)
	for i, item := range order {
		assert.Equal(t, i/chunkSize, item/chunkSize, "item %d finished out of its chunk", item)
	}
}

func TestProcessInChunksStopsAfterFailingChunk(t *testing.T) {
	boom := errors.New("boom")

	var calls atomic.Int64
	var siblingFinished atomic.Bool

	err := ProcessInChunks(context.Background(), numbers(10), func(ctx context.Context, item int) error {
		calls.Add(1)
		switch item {
		case 0:
			return boom
		case 1:
			// a slow sibling in the failing chunk still completes
			time.Sleep(20 * time.Millisecond)
			siblingFinished.Store(true)
		}
		return nil
	}, 3)

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, int64(3), calls.Load(), "only the first chunk should run")
	assert.True(t, siblingFinished.Load(), "siblings must not be cancelled")
}

func TestProcessInChunksRecoversPanics(t *testing.T) {
	err := ProcessInChunks(context.Background(), []string{"ok", "bad"}, func(ctx context.Context, item string) error {
		if item == "bad" {
			panic("something odd")
		}
		return nil
	}, 2)

	require.Error(t, err)
	var perr *PanicError
	require.True(t, errors.As(err, &perr), "error should be a *PanicError")
	assert.Equal(t, "something odd", perr.Value)
	assert.NotEmpty(t, perr.Stack)
	assert.Contains(t, err.Error(), "task panicked")
}

func TestProcessInChunksInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		err := ProcessInChunks(context.Background(), numbers(3), func(ctx context.Context, item int) error {
			t.Fatal("fn should not be called")
			return nil
		}, size)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk size must be positive")
	}
}

func TestProcessInChunksCancelledBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	err := ProcessInChunks(ctx, numbers(6), func(ctx context.Context, item int) error {
		calls.Add(1)
		cancel()
		return nil
	}, 2)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int64(2), calls.Load(), "the chunk in flight finishes, the next never starts")
}
