package reaper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunStore struct {
	olderThan time.Duration
	sealed    int64
	err       error
}

func (f *fakeRunStore) ReapOrphanRuns(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return f.sealed, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRunnerRequiresStore(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunnerSealsOrphanRuns(t *testing.T) {
	store := &fakeRunStore{sealed: 3}
	runner, err := NewRunner(RunnerOptions{Store: store, MinAge: 5 * time.Minute, Logger: testLogger()})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 5*time.Minute, store.olderThan)
}

func TestRunnerDefaultsMinAge(t *testing.T) {
	store := &fakeRunStore{}
	runner, err := NewRunner(RunnerOptions{Store: store, Logger: testLogger()})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, time.Minute, store.olderThan)
}

func TestRunnerSweepFailureIsNotFatal(t *testing.T) {
	store := &fakeRunStore{err: errors.New("database locked")}
	runner, err := NewRunner(RunnerOptions{Store: store, Logger: testLogger()})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background()))
}
