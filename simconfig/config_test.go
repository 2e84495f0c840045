package simconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/e7canasta/simcore"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	want := simcore.Settings{
		Hz: 1000, MaxFrames: 5000, Adaptive: true, MaxCatchUp: 4,
		Threads: 4, MainHelps: true, ChunkSize: 128,
		DriftLogInterval: 100, SpinMicros: 250,
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hz: [this is not a number"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	initial := simcore.DefaultSettings()
	initial.Hz = 500
	require.NoError(t, Save(path, initial))

	d := simcore.NewDriver(initial)
	defer d.Close()

	w, err := NewWatcher(path, d, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	go w.Start()
	time.Sleep(20 * time.Millisecond) // let fsnotify register the watch

	updated := initial
	updated.Hz = 2000
	require.NoError(t, Save(path, updated))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.Hz() == 2000 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("driver Hz = %v, want 2000 after watched reload", d.Hz())
}
