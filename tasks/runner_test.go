package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDeferDoesNotBlock(t *testing.T) {
	r := NewRunner(time.Second, quietLogger())
	release := make(chan struct{})
	var ran atomic.Bool

	returned := make(chan struct{})
	go func() {
		r.Defer(context.Background(), "blocked", func(context.Context) error {
			<-release
			ran.Store(true)
			return nil
		})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Defer waited for the task")
	}

	close(release)
	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if !ran.Load() {
		t.Error("task did not run before Drain returned")
	}
}

func TestTaskOutlivesCanceledContext(t *testing.T) {
	r := NewRunner(time.Second, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var sawCancel atomic.Bool
	r.Defer(ctx, "detached", func(taskCtx context.Context) error {
		<-started
		if taskCtx.Err() != nil {
			sawCancel.Store(true)
		}
		return nil
	})

	cancel()
	close(started)

	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if sawCancel.Load() {
		t.Error("task context was canceled along with the request context")
	}
}

func TestTaskTimeout(t *testing.T) {
	r := NewRunner(20*time.Millisecond, quietLogger())
	var deadlineHit atomic.Bool

	r.Defer(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		deadlineHit.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if !deadlineHit.Load() {
		t.Error("task was not bounded by the runner timeout")
	}
}

func TestFailuresAndPanicsAreLogged(t *testing.T) {
	var logs syncBuffer
	r := NewRunner(time.Second, slog.New(slog.NewTextHandler(&logs, nil)))

	r.Defer(context.Background(), "cache put", func(context.Context) error {
		return errors.New("store unavailable")
	})
	r.Defer(context.Background(), "explodes", func(context.Context) error {
		panic("boom")
	})

	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	out := logs.String()
	for _, want := range []string{"store unavailable", "panic: boom", "task=\"cache put\"", "task=explodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestDrainGivesUp(t *testing.T) {
	r := NewRunner(time.Minute, quietLogger())
	release := make(chan struct{})
	defer close(release)

	r.Defer(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := r.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain error = %v, want deadline exceeded", err)
	}
}
