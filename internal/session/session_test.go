package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/process-timeline/internal/layout"
	"github.com/mrzor/process-timeline/internal/traceline"
)

func execLine(pid int, ts, path string) string {
	return fmt.Sprintf(`%d %s execve("%s", [], 0x7ffd /* 0 vars */) = 0`, pid, ts, traceline.Escape(path))
}

func TestSession_LayoutIsSnapshot(t *testing.T) {
	s := New(nil, Options{})

	require.NoError(t, s.HandleLine(execLine(1, "1.0", "/bin/sh")))
	require.NoError(t, s.HandleLine("1 1.5 clone() = 2"))

	first := s.Layout()
	require.NotNil(t, first.Root)
	require.Len(t, first.Root.Children, 1)
	assert.False(t, first.Root.Children[0].Node.Exited)

	require.NoError(t, s.HandleLine("2 2.0 exit_group(0) = ?"))
	require.NoError(t, s.HandleLine("1 3.0 exit_group(0) = ?"))

	assert.False(t, first.Root.Children[0].Node.Exited, "earlier layouts do not see later lines")
	assert.True(t, s.Layout().Root.Children[0].Node.Exited)
	assert.Equal(t, 4, s.Stats().Lines)
}

func TestSession_EmptyLayout(t *testing.T) {
	s := New(nil, Options{})
	assert.True(t, s.Layout().Empty())
}

func TestSession_ConcurrentReaders(t *testing.T) {
	s := New(nil, Options{})
	require.NoError(t, s.HandleLine(execLine(1, "0.0", "/bin/sh")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			pid := 100 + i
			_ = s.HandleLine(fmt.Sprintf("1 %d.0 clone() = %d", i+1, pid))
			_ = s.HandleLine(fmt.Sprintf("%d %d.5 exit_group(0) = ?", pid, i+1))
		}
	}()

	for i := 0; i < 50; i++ {
		out := s.Layout()
		require.NotNil(t, out.Root)
		assert.LessOrEqual(t, out.Rows(), 2)
	}
	wg.Wait()

	assert.Len(t, s.Layout().Root.Children, 200)
}

func TestSession_Watch(t *testing.T) {
	mock := clock.NewMock()
	s := New(nil, Options{Clock: mock})
	require.NoError(t, s.HandleLine(execLine(1, "0.0", "/bin/sh")))

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan layout.Layout, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, time.Second, func(l layout.Layout) { ticks <- l })
	}()

	// Let Watch register its ticker before advancing the mock clock.
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		return len(ticks) > 0
	}, 5*time.Second, 10*time.Millisecond)

	l := <-ticks
	require.NotNil(t, l.Root)
	assert.Equal(t, 1, l.Root.Node.Pid)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
