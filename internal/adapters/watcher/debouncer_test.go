package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/planoci/plano/internal/adapters/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_Add_SinglePath(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var callCount int
		var receivedPaths []string

		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			callCount++
			receivedPaths = paths
		})

		d.Add("/repo/pipeline.yml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 1, callCount)
		require.Len(t, receivedPaths, 1)
		assert.Equal(t, "/repo/pipeline.yml", receivedPaths[0])
	})
}

func TestDebouncer_Add_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var callCount int
		var receivedPaths []string

		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			callCount++
			receivedPaths = paths
		})

		// Several events within the window, one of them repeated.
		d.Add("/repo/pipeline.yml")
		d.Add("/repo/templates/build.yml")
		d.Add("/repo/pipeline.yml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 1, callCount)
		// Repeated paths are deduplicated; order is not guaranteed since
		// pending paths live in a map.
		require.Len(t, receivedPaths, 2)
		assert.Contains(t, receivedPaths, "/repo/pipeline.yml")
		assert.Contains(t, receivedPaths, "/repo/templates/build.yml")
	})
}

func TestDebouncer_Add_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var callCount int

		d := watcher.NewDebouncer(100*time.Millisecond, func([]string) {
			mu.Lock()
			callCount++
			mu.Unlock()
		})

		d.Add("/repo/pipeline.yml")
		time.Sleep(50 * time.Millisecond)

		// The second add restarts the window, so nothing fires at the
		// 100ms mark.
		d.Add("/repo/templates/build.yml")
		time.Sleep(50 * time.Millisecond)
		synctest.Wait()

		mu.Lock()
		count := callCount
		mu.Unlock()
		assert.Equal(t, 0, count)

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		mu.Lock()
		count = callCount
		mu.Unlock()
		require.Equal(t, 1, count)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var callCount int
		var receivedPaths []string

		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			callCount++
			receivedPaths = paths
		})

		d.Add("/repo/pipeline.yml")
		d.Flush()

		// Flush delivers synchronously, before the timer fires.
		require.Equal(t, 1, callCount)
		require.Len(t, receivedPaths, 1)

		// The stopped timer must not deliver the batch a second time.
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 1, callCount)
	})
}

func TestDebouncer_Flush_Empty(t *testing.T) {
	var callCount int

	d := watcher.NewDebouncer(100*time.Millisecond, func([]string) {
		callCount++
	})

	d.Flush()

	assert.Equal(t, 0, callCount)
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)

		d.Add("/repo/pipeline.yml")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		d.Flush()
	})
}

func TestDebouncer_ReusableAfterFire(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var callCount int
		var receivedPaths []string

		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			callCount++
			receivedPaths = paths
		})

		d.Add("/repo/pipeline.yml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, 1, callCount)

		d.Add("/repo/templates/build.yml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 2, callCount)
		require.Len(t, receivedPaths, 1)
		assert.Equal(t, "/repo/templates/build.yml", receivedPaths[0])
	})
}
