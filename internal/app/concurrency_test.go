package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scopeKey struct{}

// recordingScope tags each branch context with a sequence number.
type recordingScope struct {
	mu     sync.Mutex
	opened int
	closed int
}

func (s *recordingScope) run(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	s.opened++
	n := s.opened
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.closed++
		s.mu.Unlock()
	}()

	return fn(context.WithValue(ctx, scopeKey{}, n))
}

func TestParallel(t *testing.T) {
	scope := &recordingScope{}

	branch := func(ctx context.Context) (int, error) {
		return ctx.Value(scopeKey{}).(int), nil
	}

	results, err := Parallel(context.Background(), scope.run, branch, branch, branch)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, results)
	assert.Equal(t, 3, scope.closed)
}

func TestParallel_FirstErrorCancelsOthers(t *testing.T) {
	boom := errors.New("boom")

	_, err := Parallel(context.Background(), nil,
		func(context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	)
	require.ErrorIs(t, err, boom)
}

func TestParallel2(t *testing.T) {
	name, count, err := Parallel2(context.Background(), nil,
		func(context.Context) (string, error) { return "lessons", nil },
		func(context.Context) (int, error) { return 4, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "lessons", name)
	assert.Equal(t, 4, count)
}

func TestParallel2_ZeroValuesOnError(t *testing.T) {
	boom := errors.New("boom")

	name, count, err := Parallel2(context.Background(), nil,
		func(context.Context) (string, error) { return "lessons", nil },
		func(context.Context) (int, error) { return 4, boom },
	)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, name)
	assert.Zero(t, count)
}

func TestParallel2_ScopeErrorIsReturned(t *testing.T) {
	unavailable := errors.New("no connection")

	scope := func(context.Context, func(context.Context) error) error {
		return unavailable
	}

	_, _, err := Parallel2(context.Background(), scope,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 2, nil },
	)
	require.ErrorIs(t, err, unavailable)
}
