package recording

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s, err := Open(filepath.Join(t.TempDir(), "sub", "rec.db"), clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clk
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, clk := openTestStore(t)

	rec, err := s.Begin(ctx, []string{"make", "-j4"})
	require.NoError(t, err)

	// More than one batch so both the periodic and the final commit run.
	var want []string
	for i := 0; i < batchSize+10; i++ {
		line := fmt.Sprintf("%d 1.%06d exit_group(0) = ?", 100+i, i)
		want = append(want, line)
		require.NoError(t, rec.RecordLine(line))
	}
	clk.Add(3 * time.Second)
	require.NoError(t, rec.Finish(ctx, 2))

	var got []string
	require.NoError(t, s.Lines(ctx, rec.ID(), func(text string) error {
		got = append(got, text)
		return nil
	}))
	assert.Equal(t, want, got)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID(), list[0].ID)
	assert.Equal(t, "make -j4", list[0].Command)
	assert.Equal(t, 2, list[0].ExitCode)
	assert.Equal(t, batchSize+10, list[0].Lines)
	assert.Equal(t, 3*time.Second, list[0].FinishedAt.Sub(list[0].StartedAt))
}

func TestStore_LatestAndOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.Begin(ctx, []string{"a"})
	require.NoError(t, err)
	second, err := s.Begin(ctx, []string{"b"})
	require.NoError(t, err)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), latest)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID(), list[0].ID)
	assert.Equal(t, first.ID(), list[1].ID)
	assert.True(t, list[1].FinishedAt.IsZero())
	assert.Equal(t, -1, list[1].ExitCode)
}

func TestStore_LinesUnknownRecording(t *testing.T) {
	s, _ := openTestStore(t)
	err := s.Lines(context.Background(), 99, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LinesStopsOnError(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	rec, err := s.Begin(ctx, []string{"x"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, rec.RecordLine(fmt.Sprint(i)))
	}
	require.NoError(t, rec.Finish(ctx, 0))

	boom := errors.New("boom")
	calls := 0
	err = s.Lines(ctx, rec.ID(), func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
