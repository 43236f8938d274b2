package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/georeminder/internal/worker"
)

func TestDo_ReturnsValue(t *testing.T) {
	p := worker.New(2)
	t.Cleanup(p.Close)

	got, err := worker.Do(context.Background(), p, func(context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDo_ReturnsError(t *testing.T) {
	p := worker.New(2)
	t.Cleanup(p.Close)
	boom := errors.New("boom")

	_, err := worker.Do(context.Background(), p, func(context.Context) (string, error) {
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestDo_RecoversPanic(t *testing.T) {
	p := worker.New(1)
	t.Cleanup(p.Close)

	_, err := worker.Do(context.Background(), p, func(context.Context) (int, error) {
		panic("disk on fire")
	})

	var pe *worker.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "disk on fire", pe.Value)
}

// A caller that stops waiting must not cut the task short.
func TestDo_CallerCancelLetsTaskFinish(t *testing.T) {
	p := worker.New(1)
	release := make(chan struct{})
	var finished atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := worker.Do(ctx, p, func(context.Context) (int, error) {
		<-release
		finished.Store(true)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	p.Close()
	assert.True(t, finished.Load(), "task must run to completion after the caller gave up")
}

func TestGo_BoundsConcurrency(t *testing.T) {
	p := worker.New(2)
	var running, peak atomic.Int32
	done := make(chan struct{}, 6)

	for range 6 {
		err := p.Go(context.Background(), func(context.Context) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			done <- struct{}{}
		})
		require.NoError(t, err)
	}
	for range 6 {
		<-done
	}
	p.Close()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestGo_AfterClose(t *testing.T) {
	p := worker.New(1)
	p.Close()

	err := p.Go(context.Background(), func(context.Context) {})

	assert.ErrorIs(t, err, worker.ErrClosed)
}

func TestClose_CancelsTaskContext(t *testing.T) {
	p := worker.New(1)
	started := make(chan struct{})
	var sawCancel atomic.Bool

	require.NoError(t, p.Go(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
	}))
	<-started

	p.Close()

	assert.True(t, sawCancel.Load())
}
