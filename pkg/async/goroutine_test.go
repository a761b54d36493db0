package async

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGo_Success(t *testing.T) {
	done := make(chan struct{})
	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SafeGo did not execute function")
	}
}

func TestSafeGo_LogsErrorsAndPanics(t *testing.T) {
	var buf safeBuffer
	l := logrus.New()
	l.SetOutput(&buf)
	SetLogger(l)
	defer SetLogger(nil)

	errDone := make(chan struct{})
	SafeGo(context.Background(), time.Second, "failing task", func(ctx context.Context) error {
		defer close(errDone)
		return errors.New("test error")
	})
	<-errDone

	panicDone := make(chan struct{})
	SafeGo(context.Background(), time.Second, "panicking task", func(ctx context.Context) error {
		defer close(panicDone)
		panic("test panic")
	})
	<-panicDone

	assert.Eventually(t, func() bool {
		out := buf.String()
		return bytes.Contains([]byte(out), []byte("test error")) && bytes.Contains([]byte(out), []byte("test panic"))
	}, time.Second, 10*time.Millisecond)
}

func TestSafeGo_Timeout(t *testing.T) {
	result := make(chan error, 1)
	SafeGo(context.Background(), 50*time.Millisecond, "test task", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			result <- nil
		case <-ctx.Done():
			result <- ctx.Err()
		}
		return nil
	})

	assert.ErrorIs(t, <-result, context.DeadlineExceeded)
}

func TestSafeGo_NoTimeoutInheritsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	SafeGo(ctx, 0, "test task", func(ctx context.Context) error {
		<-ctx.Done()
		result <- ctx.Err()
		return nil
	})

	cancel()
	assert.ErrorIs(t, <-result, context.Canceled)
}

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, "test pool", time.Second)

	var executed atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}))
	}
	pool.Wait()

	assert.Equal(t, int32(10), executed.Load())
	assert.Empty(t, pool.Errors())
}

func TestWorkerPool_CollectsErrorsAndPanics(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, "test pool", time.Second)
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			return errors.New("test error")
		}))
	}
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		panic("boom")
	}))
	pool.Wait()

	assert.Len(t, pool.Errors(), 5)
}

func TestWorkerPool_Shutdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, "test pool", time.Second)

	var executed atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			executed.Add(1)
			return nil
		}))
	}

	require.NoError(t, pool.Shutdown(time.Second))
	assert.Equal(t, int32(5), executed.Load())

	err := pool.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolShutdown)
}

func TestWorkerPool_TaskTimeout(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test pool", 20*time.Millisecond)
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))
	pool.Wait()

	errs := pool.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.DeadlineExceeded)
}

func TestBatch(t *testing.T) {
	var executed atomic.Int32
	errs := Batch(context.Background(), []int{1, 2, 3, 4, 5}, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		executed.Add(1)
		return nil
	})

	assert.Empty(t, errs)
	assert.Equal(t, int32(5), executed.Load())
}

func TestBatch_WithErrors(t *testing.T) {
	errs := Batch(context.Background(), []int{1, 2, 3, 4, 5}, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		if item%2 == 0 {
			return errors.New("even number error")
		}
		return nil
	})

	assert.Len(t, errs, 2)
}

func TestBatch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed atomic.Int32
	errs := Batch(ctx, []int{1, 2, 3}, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		executed.Add(1)
		return nil
	})

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Zero(t, executed.Load())
}
