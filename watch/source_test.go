package watch_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/ldemailly/coalesce/watch"
)

func TestPollSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "A.java", "class A {}\n")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := watch.NewPollSource(ctx, afs.New(), dir, 10*time.Millisecond)
	require.NoError(t, err)
	defer s.Close()

	writeFile(t, dir, "B.java", "class B {}\n")
	require.NoError(t, s.Wait(ctx))

	// Changes seen by Drain don't trigger the next Wait.
	writeFile(t, dir, "C.java", "class C {}\n")
	s.Drain(ctx)
	short, cancelShort := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancelShort()
	assert.ErrorIs(t, s.Wait(short), context.DeadlineExceeded)
}

func TestPollSourceDrainCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "A.java", "class A {}\n")
	s, err := watch.NewPollSource(context.Background(), afs.New(), dir, 10*time.Millisecond)
	require.NoError(t, err)

	// A cancelled drain keeps the old reference, so the change is still seen
	writeFile(t, dir, "B.java", "class B {}\n")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	s.Drain(cancelled)
	ctx, cancelWait := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelWait()
	require.NoError(t, s.Wait(ctx))
}

func TestPollSourceInvalid(t *testing.T) {
	t.Parallel()

	_, err := watch.NewPollSource(context.Background(), afs.New(), t.TempDir(), 0)
	require.Error(t, err)
	_, err = watch.NewPollSource(context.Background(), afs.New(), filepath.Join(t.TempDir(), "gone"), time.Second)
	require.Error(t, err)
}

func TestNotifySource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := watch.NewNotifySource(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	writeFile(t, dir, "A.java", "class A {}\n")
	require.NoError(t, s.Wait(ctx))

	cancelled, cancelNow := context.WithCancel(ctx)
	cancelNow()
	s.Drain(ctx)
	assert.ErrorIs(t, s.Wait(cancelled), context.Canceled)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Wait(ctx), watch.ErrWatchClosed)
}

func TestNotifySourceMissingDir(t *testing.T) {
	t.Parallel()

	_, err := watch.NewNotifySource(filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
}
