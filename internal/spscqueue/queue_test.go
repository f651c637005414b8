package spscqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_ProducerConsumerOrder(t *testing.T) {
	q := New[int](4)
	const n = 5000
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			require.NoError(t, q.Push(ctx, Record[int]{Cmd: CmdVector, Batch: []int{i}}))
		}
		require.NoError(t, q.Push(ctx, Record[int]{Cmd: CmdFinish}))
	}()

	got := make([]int, 0, n)
	for {
		rec, err := q.Pop(ctx)
		require.NoError(t, err)
		if rec.Cmd == CmdFinish {
			break
		}
		got = append(got, rec.Batch...)
	}
	<-done

	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v, "production order must be preserved")
	}
}

func TestQueue_CapacityMustBePowerOfTwo(t *testing.T) {
	defer func() {
		require.NotNil(t, recover())
	}()
	New[int](3)
}
