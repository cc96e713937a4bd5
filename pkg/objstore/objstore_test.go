package objstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siqueiraa/FrameFlow/pkg/config"
)

// fakeBucket is a minimal path-style S3 endpoint keeping objects in memory.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		b.objects[r.URL.Path] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := b.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<Error><Code>NoSuchKey</Code></Error>`)
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: make(map[string][]byte)}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), config.S3Config{
		Enabled:   true,
		Bucket:    "frames",
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  srv.URL,
		Prefix:    "runs/",
	})
	require.NoError(t, err)
	return c, bucket
}

func TestKeyUsesPrefix(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Equal(t, "runs/output.i3.bz2", c.Key("output.i3.bz2"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestUploadAndOpen(t *testing.T) {
	c, bucket := newTestClient(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte("frame bytes"), 0o600))

	_, err := c.Upload(ctx, path, "payload.bin")
	require.NoError(t, err)

	bucket.mu.Lock()
	var stored []byte
	for p, data := range bucket.objects {
		if strings.HasSuffix(p, "/frames/runs/payload.bin") {
			stored = data
		}
	}
	bucket.mu.Unlock()
	assert.Equal(t, "frame bytes", string(stored))

	rc, err := c.Open(ctx, "payload.bin")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "frame bytes", string(data))

	_, err = c.Open(ctx, "missing.bin")
	assert.Error(t, err)
}

func TestUploadMissingFile(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope"), "nope")
	assert.Error(t, err)
}
