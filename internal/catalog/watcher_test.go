package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher("", func(*Document) {}, nil)
	assert.Error(t, err)

	_, err = NewWatcher("catalog.json", nil, nil)
	assert.Error(t, err)

	_, err = NewWatcher("catalog.csv", func(*Document) {}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clips": []}`), 0o644))

	var (
		mu   sync.Mutex
		docs []*Document
	)
	w, err := NewWatcher(path, func(doc *Document) {
		mu.Lock()
		defer mu.Unlock()
		docs = append(docs, doc)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte(jsonCatalog), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(docs) > 0 && len(docs[len(docs)-1].Clips) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_ReportsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clips": []}`), 0o644))

	errs := make(chan error, 8)
	w, err := NewWatcher(path, func(*Document) {}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte(`{"clips": "nope"}`), 0o644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrSchemaViolation)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload error")
	}
}
