//go:build linux || darwin

package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (int, int) {
	t.Helper()

	fds := make([]int, 2)
	require.NoError(t, unix.Pipe(fds))

	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})

	return fds[0], fds[1]
}

func TestReactor_Tick(t *testing.T) {
	t.Run("Idle tick is a no-op", func(t *testing.T) {
		// Given: A pipe registered for reading with nothing written
		r, _ := newPipe(t)
		reactor := NewReactor()

		calls := 0
		require.NoError(t, reactor.Register(r, EventRead, func(int, int16) { calls++ }))

		// When: Ticking without a timeout
		n, err := reactor.Tick(0)

		// Then: Nothing is dispatched
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, calls)
	})

	t.Run("Dispatches readable descriptors", func(t *testing.T) {
		// Given: A pipe with pending bytes
		r, w := newPipe(t)
		reactor := NewReactor()

		var got []int16
		require.NoError(t, reactor.Register(r, EventRead, func(fd int, revents int16) {
			assert.Equal(t, r, fd)
			got = append(got, revents)
		}))

		_, err := unix.Write(w, []byte("x"))
		require.NoError(t, err)

		// When: Ticking
		n, err := reactor.Tick(0)

		// Then: The callback sees read readiness
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.Len(t, got, 1)
		assert.NotZero(t, got[0]&EventRead)
	})

	t.Run("Modify switches interest", func(t *testing.T) {
		// Given: The write end of a pipe registered with no interest
		_, w := newPipe(t)
		reactor := NewReactor()

		calls := 0
		require.NoError(t, reactor.Register(w, 0, func(int, int16) { calls++ }))

		n, err := reactor.Tick(0)
		require.NoError(t, err)
		assert.Zero(t, n)

		// When: Asking for write readiness
		require.NoError(t, reactor.Modify(w, EventWrite))
		n, err = reactor.Tick(0)

		// Then: The empty pipe is writable
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, 1, calls)
	})

	t.Run("Unregistered descriptors are not dispatched", func(t *testing.T) {
		r, w := newPipe(t)
		reactor := NewReactor()

		require.NoError(t, reactor.Register(r, EventRead, func(int, int16) {
			t.Fatal("callback of an unregistered descriptor")
		}))
		require.NoError(t, reactor.Unregister(r))

		_, err := unix.Write(w, []byte("x"))
		require.NoError(t, err)

		n, err := reactor.Tick(0)

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, reactor.Len())
	})

	t.Run("A callback may unregister a later descriptor", func(t *testing.T) {
		// Given: Two readable pipes, the first callback drops the second
		r1, w1 := newPipe(t)
		r2, w2 := newPipe(t)
		reactor := NewReactor()

		require.NoError(t, reactor.Register(r1, EventRead, func(int, int16) {
			require.NoError(t, reactor.Unregister(r2))
		}))
		require.NoError(t, reactor.Register(r2, EventRead, func(int, int16) {
			t.Fatal("second callback ran after being unregistered")
		}))

		for _, w := range []int{w1, w2} {
			_, err := unix.Write(w, []byte("x"))
			require.NoError(t, err)
		}

		// When: Ticking
		n, err := reactor.Tick(0)

		// Then: Only the first callback runs
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestReactor_Registration(t *testing.T) {
	r, _ := newPipe(t)
	reactor := NewReactor()

	require.NoError(t, reactor.Register(r, EventRead, func(int, int16) {}))

	require.ErrorIs(t, reactor.Register(r, EventRead, func(int, int16) {}), ErrAlreadyRegistered)
	require.ErrorIs(t, reactor.Modify(r+1000, EventRead), ErrNotRegistered)
	require.ErrorIs(t, reactor.Unregister(r+1000), ErrNotRegistered)
}
