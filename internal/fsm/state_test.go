package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	states := []State{
		AwaitingAccessCode{},
		InProgress{},
		AwaitingTypedAnswer{LessonID: 42, Attempts: 2},
		AwaitingSupport{},
	}

	for _, state := range states {
		raw, err := Marshal(state)
		require.NoError(t, err)

		decoded, err := Unmarshal(raw)
		require.NoError(t, err)
		assert.Equal(t, state, decoded)
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"levitating"}`))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	state, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, state, "unknown user has no state")

	require.NoError(t, store.Set(ctx, 1, AwaitingTypedAnswer{LessonID: 7, Attempts: 1}))
	state, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, AwaitingTypedAnswer{LessonID: 7, Attempts: 1}, state)

	// Another user is untouched
	state, err = store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.Clear(ctx, 1))
	state, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, state)
}
