package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-retail-pos/internal/backup"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	kinds []backup.Kind
	err   error
	fired chan struct{}
}

func newFakeRunner(err error) *fakeRunner {
	return &fakeRunner{err: err, fired: make(chan struct{}, 16)}
}

func (f *fakeRunner) CreateBackup(kind backup.Kind) (*backup.Result, error) {
	f.mu.Lock()
	f.kinds = append(f.kinds, kind)
	f.mu.Unlock()
	select {
	case f.fired <- struct{}{}:
	default:
	}
	if f.err != nil {
		return nil, f.err
	}
	return &backup.Result{Path: "backup_auto_test"}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.kinds)
}

func TestSchedulerFiresAutoBackups(t *testing.T) {
	runner := newFakeRunner(nil)
	s := New(runner, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Wait for at least two ticks
	for i := 0; i < 2; i++ {
		select {
		case <-runner.fired:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler never fired")
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	require.GreaterOrEqual(t, runner.count(), 2)
	for _, kind := range runner.kinds {
		assert.Equal(t, backup.KindAuto, kind)
	}
}

func TestSchedulerSwallowsFailures(t *testing.T) {
	// A failing backup must not stop the loop; the next tick fires.
	runner := newFakeRunner(errors.New("disk full"))
	s := New(runner, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-runner.fired:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler stopped after a failure")
		}
	}
}

func TestSchedulerDefaultsInterval(t *testing.T) {
	s := New(newFakeRunner(nil), 0, zerolog.Nop())
	assert.Equal(t, 6*time.Hour, s.interval)
}
