package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/objectstore"
)

func newLocal(t *testing.T, baseURL string) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewLocalStorage(&config.Config{LocalStoragePath: dir, LocalStorageBaseURL: baseURL}, zerolog.Nop())
	require.NoError(t, err)
	return storage, dir
}

func TestLocalStorage_PutGet(t *testing.T) {
	storage, dir := newLocal(t, "")
	ctx := context.Background()

	location, err := storage.Put(ctx, "recordings/1-consent.webm", []byte("abc"), "video/webm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location, "file://"))
	assert.True(t, strings.HasSuffix(location, "/recordings/1-consent.webm"))

	data, err := storage.Get(ctx, "recordings/1-consent.webm")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	// Overwrite replaces the whole object and leaves no temp files behind.
	_, err = storage.Put(ctx, "recordings/1-consent.webm", []byte("abcdef"), "video/webm")
	require.NoError(t, err)
	data, err = storage.Get(ctx, "recordings/1-consent.webm")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), data)

	entries, err := os.ReadDir(filepath.Join(dir, "recordings"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1-consent.webm", entries[0].Name())
}

func TestLocalStorage_BaseURLLocation(t *testing.T) {
	storage, _ := newLocal(t, "http://localhost:4000/files/")

	location, err := storage.Put(context.Background(), "ledger/recordings.xlsx", []byte("x"), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/files/ledger/recordings.xlsx", location)
}

func TestLocalStorage_MissingKeyIsNotFound(t *testing.T) {
	storage, _ := newLocal(t, "")

	_, err := storage.Get(context.Background(), "ledger/recordings.xlsx")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	storage, _ := newLocal(t, "")

	for _, key := range []string{"../outside", "a/../../outside", "", "."} {
		_, err := storage.Put(context.Background(), key, []byte("x"), "text/plain")
		assert.ErrorIs(t, err, errInvalidKey, key)
	}
}

func TestLocalStorage_Disabled(t *testing.T) {
	storage, err := NewLocalStorage(&config.Config{}, zerolog.Nop())
	require.NoError(t, err)

	_, err = storage.Put(context.Background(), "k", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, errLocalStorageDisabled)
	assert.Error(t, storage.Health(context.Background()))
}

func TestLocalStorage_Health(t *testing.T) {
	storage, _ := newLocal(t, "")
	assert.NoError(t, storage.Health(context.Background()))
}

func TestLocalStorage_LockWriterIsExclusive(t *testing.T) {
	storage, _ := newLocal(t, "")

	unlock, err := storage.LockWriter()
	require.NoError(t, err)

	_, err = storage.LockWriter()
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())

	unlock, err = storage.LockWriter()
	require.NoError(t, err)
	require.NoError(t, unlock())
}
