package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFreshSession(t *testing.T) {
	store := NewMemoryStore()

	st, err := store.Get(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingName, st.Stage)
	assert.Empty(t, st.Symptoms)
	assert.Zero(t, store.Len())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "s", &State{Stage: StageChatting, Name: "Ravi", Symptoms: []string{"cough"}}))

	st, err := store.Get(ctx, "s")
	require.NoError(t, err)
	st.Symptoms[0] = "changed"
	st.Name = "changed"

	again, err := store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", again.Name)
	assert.Equal(t, []string{"cough"}, again.Symptoms)
}

func TestMemoryStoreUpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "s", &State{Stage: StageChatting, Name: "Ravi", Symptoms: []string{}}))

	boom := errors.New("boom")
	err := store.Update(ctx, "s", func(st *State) error {
		st.Symptoms = append(st.Symptoms, "fever")
		st.Stage = StageAwaitingDuration
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err := store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, StageChatting, st.Stage)
	assert.Empty(t, st.Symptoms)
}

func TestMemoryStoreUpdateHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Update(ctx, "s", func(*State) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryStoreConcurrentUpdatesSameSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Update(ctx, "shared", func(st *State) error {
				st.Symptoms = append(st.Symptoms, fmt.Sprintf("s%d", i))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, st.Symptoms, writers)
}

func TestMemoryStoreSessionsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Update(ctx, "slow", func(*State) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	require.NoError(t, store.Update(ctx, "fast", func(st *State) error {
		st.Name = "Meera"
		return nil
	}))
	close(release)
	require.NoError(t, <-done)

	st, err := store.Get(ctx, "fast")
	require.NoError(t, err)
	assert.Equal(t, "Meera", st.Name)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	days := 3
	require.NoError(t, store.Save(ctx, "s", &State{Stage: StageChatting, Name: "Ravi", DurationDays: &days}))

	require.NoError(t, store.Reset(ctx, "s"))

	st, err := store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, NewState(), st)
}

func TestMemoryStoreRejectsBlankID(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionIDRequired)
	assert.ErrorIs(t, store.Save(context.Background(), " ", NewState()), ErrSessionIDRequired)
}
