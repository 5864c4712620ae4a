package corpus

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "bot.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(target, []byte(`[]`), 0o644))

	var calls atomic.Int32
	changed := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, target, 100*time.Millisecond, func() {
			calls.Add(1)
			changed <- struct{}{}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte(`["ignored"]`), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte(`["更新"]`), 0o644))
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called after writing the watched file")
	}

	// The burst of writes must collapse into a single call.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "bot.json"), time.Millisecond, func() {})
	assert.Error(t, err)
}
