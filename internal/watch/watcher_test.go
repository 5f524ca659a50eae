package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/ingest"
	"github.com/simiyu-dess/OnboardIQ/internal/service"
)

func TestMain(m *testing.M) {
	// opencensus, pulled in by the genai client, starts a worker in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeIndexer struct {
	mu      sync.Mutex
	calls   int
	clears  int
	noFiles bool
}

func (f *fakeIndexer) IndexFiles(_ context.Context, paths []string, clearExisting bool) (service.IndexReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.noFiles {
		return service.IndexReport{}, fmt.Errorf("%w: %w", domain.ErrIngestion, ingest.ErrNoDocuments)
	}
	return service.IndexReport{Files: 1, Fragments: 1}, nil
}

func (f *fakeIndexer) ClearAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeIndexer) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.clears
}

func startWatcher(t *testing.T, dir string, idx Indexer) *Watcher {
	t.Helper()
	w, err := New(dir, idx, 50*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_ReindexesAfterBurst(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	w := startWatcher(t, dir, idx)

	path := filepath.Join(dir, "notes.md")
	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("edit %d", i)), 0o644))
	}

	require.Eventually(t, func() bool {
		calls, _ := idx.counts()
		return calls >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The burst settles into a single rebuild.
	time.Sleep(200 * time.Millisecond)
	calls, _ := idx.counts()
	assert.Equal(t, 1, calls)
	assert.Equal(t, path, w.Stats().LastPath)
	assert.Equal(t, 1, w.Stats().Reindexes)
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	w := startWatcher(t, dir, idx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)

	calls, _ := idx.counts()
	assert.Zero(t, calls)
	assert.Zero(t, w.Stats().Events)
}

func TestWatcher_SubdirectoryCreatedLater(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	startWatcher(t, dir, idx)

	sub := filepath.Join(dir, "team")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool {
		// Keep writing until the new directory's watch is registered.
		_ = os.WriteFile(filepath.Join(sub, "handbook.txt"), []byte("welcome"), 0o644)
		calls, _ := idx.counts()
		return calls >= 1
	}, 3*time.Second, 100*time.Millisecond)
}

func TestWatcher_ClearsWhenAllFilesRemoved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe"), 0o644))

	idx := &fakeIndexer{noFiles: true}
	startWatcher(t, dir, idx)
	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		_, clears := idx.counts()
		return clears == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := New(t.TempDir(), &fakeIndexer{}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	w.Stop()
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), &fakeIndexer{}, 0, nil)
	require.NoError(t, err)
	defer w.Stop()
	assert.Error(t, w.Start(context.Background()))
}
