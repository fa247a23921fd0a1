package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regiontikz/internal/batch"
	"regiontikz/internal/convert"
	"regiontikz/internal/tikz"
)

const sampleResult = `AllSat: 0<=p<=1/2,0<=q<=1;
AllViolated: 1/2<=p<=1,0<=q<=1;
`

const (
	waitFor = 5 * time.Second
	tick    = 25 * time.Millisecond
)

func newTestWatcher(t *testing.T, cfg batch.Config, opts ...Option) *Watcher {
	t.Helper()
	runner := batch.NewRunner(cfg, convert.New(tikz.DefaultConfig()))
	opts = append([]Option{WithDebounce(150 * time.Millisecond)}, opts...)
	w, err := New(cfg.InputDir, cfg.Recursive, runner, opts...)
	require.NoError(t, err)
	t.Cleanup(w.Stop)
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcher_ConvertsOnWrite(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out})
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, filepath.Join(in, "grid.regionresult"), sampleResult)

	output := filepath.Join(out, "grid.tex")
	require.Eventually(t, func() bool {
		_, err := os.Stat(output)
		return err == nil
	}, waitFor, tick, "expected %s to appear", output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rectangle")
	assert.Equal(t, 1, w.GetStats().Converted)
}

func TestWatcher_DebouncesRapidSaves(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out})
	require.NoError(t, w.Start(context.Background()))

	input := filepath.Join(in, "grid.regionresult")
	for i := 0; i < 5; i++ {
		writeFile(t, input, sampleResult)
	}

	require.Eventually(t, func() bool {
		return w.GetStats().Converted > 0
	}, waitFor, tick)

	// All five saves land inside one settle window.
	stats := w.GetStats()
	assert.Equal(t, 1, stats.Converted)
	assert.Equal(t, 1, stats.FilesSeen)
	assert.Equal(t, input, stats.LastEventPath)
}

func TestWatcher_AppliesSkipRules(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(out, "grid.tex"), "handmade")

	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out, NoOverwrite: true})
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, filepath.Join(in, "grid.regionresult"), sampleResult)

	require.Eventually(t, func() bool {
		return w.GetStats().Skipped > 0
	}, waitFor, tick)

	data, err := os.ReadFile(filepath.Join(out, "grid.tex"))
	require.NoError(t, err)
	assert.Equal(t, "handmade", string(data))
	assert.Zero(t, w.GetStats().Converted)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out})
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, filepath.Join(in, "notes.txt"), "not a result")
	writeFile(t, filepath.Join(in, "grid.regionresult"), sampleResult)

	require.Eventually(t, func() bool {
		return w.GetStats().Converted > 0
	}, waitFor, tick)

	assert.Equal(t, 1, w.GetStats().FilesSeen)
	assert.NoFileExists(t, filepath.Join(out, "notes.tex"))
}

func TestWatcher_RecursiveNewDirectory(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out, Recursive: true})
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, filepath.Join(in, "sub", "b.regionresult"), sampleResult)

	output := filepath.Join(out, "sub", "b.tex")
	require.Eventually(t, func() bool {
		_, err := os.Stat(output)
		return err == nil
	}, waitFor, tick, "expected nested output %s", output)
}

func TestWatcher_FailureCounted(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out})
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, filepath.Join(in, "bad.regionresult"), "AllSat 0<=p<=1;\n")

	require.Eventually(t, func() bool {
		return w.GetStats().Failed > 0
	}, waitFor, tick)

	assert.NoFileExists(t, filepath.Join(out, "bad.tex"))
}

func TestWatcher_StartStop(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out})

	assert.False(t, w.IsWatching())
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsWatching())
	assert.Contains(t, w.WatchedDirs(), in)

	// Starting again is a no-op.
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	assert.False(t, w.IsWatching())
	w.Stop() // idempotent
}

func TestWatcher_StartMissingDir(t *testing.T) {
	in := filepath.Join(t.TempDir(), "nope")
	runner := batch.NewRunner(batch.Config{InputDir: in, OutputDir: t.TempDir()}, convert.New(tikz.DefaultConfig()))
	w, err := New(in, false, runner)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
	assert.False(t, w.IsWatching())
}

func TestWatcher_ContextCancellation(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, batch.Config{InputDir: in, OutputDir: out})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Stop did not return after context cancellation")
	}
}
