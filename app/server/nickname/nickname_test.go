package nickname

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePreferredWhenFree(t *testing.T) {
	got, err := Allocate("mimi", func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, "mimi", got)
}

func TestAllocateRandomWhenNoPreference(t *testing.T) {
	got, err := Allocate("", func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.NotContains(t, got, "-")
}

func TestAllocateFallsBackWhenPreferredTaken(t *testing.T) {
	got, err := Allocate("mimi", func(candidate string) (bool, error) {
		return candidate == "mimi", nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, "mimi", got)
	assert.Len(t, got, 4)
}

func TestAllocateSequentialUniqueness(t *testing.T) {
	// 把已分配的昵称反馈给 exists ，后续分配不得重复
	taken := make(map[string]struct{})
	exists := func(candidate string) (bool, error) {
		_, ok := taken[candidate]
		return ok, nil
	}

	for i := 0; i < 200; i++ {
		got, err := Allocate("", exists)
		require.NoError(t, err)

		_, dup := taken[got]
		require.False(t, dup, "duplicate nickname %q", got)
		taken[got] = struct{}{}
	}
}

func TestAllocateExhausted(t *testing.T) {
	// 所有候选都被占用
	calls := 0
	_, err := Allocate("", func(string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.LessOrEqual(t, calls, maxAttempts)
}

func TestAllocatePropagatesCheckError(t *testing.T) {
	boom := errors.New("storage down")
	_, err := Allocate("mimi", func(string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
