package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSlotStore()

	v, err := store.Read(ctx, "quizHighScores")
	require.NoError(t, err)
	require.Nil(t, v, "absent slot should read as nil")

	require.NoError(t, store.Write(ctx, "quizHighScores", []byte(`[]`)))
	require.NoError(t, store.Write(ctx, "quizHighScores", []byte(`[{"name":"a"}]`)))

	v, err = store.Read(ctx, "quizHighScores")
	require.NoError(t, err)
	require.Equal(t, `[{"name":"a"}]`, string(v), "write should replace the previous value")

	v[0] = 'x'
	again, _ := store.Read(ctx, "quizHighScores")
	require.Equal(t, `[{"name":"a"}]`, string(again), "callers must not alias stored bytes")
}
