package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/objectstore"
)

// fakeS3 serves path-style PutObject and GetObject for one bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	denyGet bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/consent-bucket/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if f.denyGet {
			writeS3Error(w, http.StatusForbidden, "AccessDenied", "Access Denied")
			return
		}
		data, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>`+message+`</Message><RequestId>req</RequestId></Error>`)
}

func newTestS3(t *testing.T) (*S3Storage, *fakeS3) {
	t.Helper()
	backend := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	storage, err := NewS3Storage(context.Background(), &config.Config{
		S3Endpoint:     server.URL,
		S3Region:       "ap-south-1",
		S3Bucket:       "consent-bucket",
		S3AccessKeyID:  "test",
		S3SecretKey:    "secret",
		S3UsePathStyle: true,
	}, zerolog.Nop())
	require.NoError(t, err)
	return storage, backend
}

func TestS3Storage_PutGet(t *testing.T) {
	storage, backend := newTestS3(t)
	ctx := context.Background()

	location, err := storage.Put(ctx, "recordings/1-consent.webm", []byte("abc"), "video/webm")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(location, "/consent-bucket/recordings/1-consent.webm"), location)
	assert.Equal(t, "video/webm", backend.types["recordings/1-consent.webm"])

	data, err := storage.Get(ctx, "recordings/1-consent.webm")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestS3Storage_MissingKeyIsNotFound(t *testing.T) {
	storage, _ := newTestS3(t)

	_, err := storage.Get(context.Background(), "ledger/recordings.xlsx")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestS3Storage_AccessDeniedIsNotNotFound(t *testing.T) {
	storage, backend := newTestS3(t)
	backend.denyGet = true

	_, err := storage.Get(context.Background(), "ledger/recordings.xlsx")
	require.Error(t, err)
	assert.NotErrorIs(t, err, objectstore.ErrNotFound)
}

func TestS3Storage_DisabledWithoutCredentials(t *testing.T) {
	storage, err := NewS3Storage(context.Background(), &config.Config{S3Region: "ap-south-1"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = storage.Put(context.Background(), "k", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, errStorageDisabled)
	_, err = storage.Get(context.Background(), "k")
	assert.ErrorIs(t, err, errStorageDisabled)
}

func TestS3Storage_ObjectURL(t *testing.T) {
	tests := []struct {
		name    string
		storage S3Storage
		want    string
	}{
		{
			name:    "aws virtual hosted",
			storage: S3Storage{bucket: "b", region: "ap-south-1"},
			want:    "https://b.s3.ap-south-1.amazonaws.com/recordings/1-my%20clip.webm",
		},
		{
			name:    "path style endpoint",
			storage: S3Storage{bucket: "b", endpoint: "http://minio:9000", pathStyle: true},
			want:    "http://minio:9000/b/recordings/1-my%20clip.webm",
		},
		{
			name:    "virtual hosted endpoint",
			storage: S3Storage{bucket: "b", endpoint: "https://cdn.example.com"},
			want:    "https://b.cdn.example.com/recordings/1-my%20clip.webm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.storage.ObjectURL("recordings/1-my clip.webm"))
		})
	}
}
