package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCollapsesBursts(t *testing.T) {
	var calls int32
	d := newDebouncer(50*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.trigger()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a burst fires once")
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var calls int32
	d := newDebouncer(50*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	d.trigger()
	d.stop()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWatcherDetectsRewrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "desc.pb")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(target, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(target, []byte("v2"), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("rewrite not detected")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "desc.pb")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(target, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-changed:
		t.Fatal("unrelated file must not trigger regeneration")
	case <-time.After(300 * time.Millisecond):
	}
}
