package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestSlotStoreReadWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewSlotStore(newClient(mr), "trivia")
	ctx := context.Background()

	v, err := store.Read(ctx, "quizHighScores")
	require.NoError(t, err)
	require.Nil(t, v, "missing key should read as absent")

	require.NoError(t, store.Write(ctx, "quizHighScores", []byte(`[{"name":"Ann","percentage":90}]`)))
	require.True(t, mr.Exists("trivia:quizHighScores"))
	require.Zero(t, mr.TTL("trivia:quizHighScores"), "slots should not expire")

	v, err = store.Read(ctx, "quizHighScores")
	require.NoError(t, err)
	require.JSONEq(t, `[{"name":"Ann","percentage":90}]`, string(v))
}

func TestSlotStoreReadError(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewSlotStore(newClient(mr), "")
	mr.Close()

	_, err := store.Read(context.Background(), "quizHighScores")
	require.Error(t, err)
}
