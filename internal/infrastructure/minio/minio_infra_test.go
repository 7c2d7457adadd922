package minio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

type mockImageRepo struct {
	mu      sync.Mutex
	uploads map[string]string // key -> mimeType
	deletes []string
	delErr  error
}

func newMockImageRepo() *mockImageRepo {
	return &mockImageRepo{uploads: map[string]string{}}
}

func (m *mockImageRepo) Upload(ctx context.Context, key string, data []byte, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[key] = mimeType
	return key, nil
}

func (m *mockImageRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	return m.delErr
}

func newTestMirror(repo *mockImageRepo) *MinioInfrastructure {
	return NewMinioInfrastructure(repo, &cfg.MinIOCfg{
		BucketName:      "product-images",
		DownloadTimeout: 2 * time.Second,
	}, nopLogger{})
}

func imageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
}

func TestMirrorUploadsUnderDeterministicKey(t *testing.T) {
	srv := imageServer(t, "image/png", []byte("png-bytes"))
	defer srv.Close()

	repo := newMockImageRepo()
	key, err := newTestMirror(repo).Mirror(context.Background(), "B08N5WRWNW", srv.URL)
	if err != nil {
		t.Fatalf("Mirror returned error: %v", err)
	}

	if key != "products/B08N5WRWNW.png" {
		t.Fatalf("unexpected object key: %s", key)
	}
	if mime := repo.uploads[key]; mime != "image/png" {
		t.Fatalf("upload must carry the source MIME type, got %q", mime)
	}
}

func TestMirrorCleansUpStaleExtensions(t *testing.T) {
	srv := imageServer(t, "image/png", []byte("png-bytes"))
	defer srv.Close()

	repo := newMockImageRepo()
	if _, err := newTestMirror(repo).Mirror(context.Background(), "B08N5WRWNW", srv.URL); err != nil {
		t.Fatalf("Mirror returned error: %v", err)
	}

	deleted := map[string]bool{}
	for _, k := range repo.deletes {
		deleted[k] = true
	}

	// Копии под другими расширениями устаревают при смене MIME-типа
	if !deleted["products/B08N5WRWNW.jpg"] || !deleted["products/B08N5WRWNW.webp"] {
		t.Fatalf("stale extension variants must be removed, got %v", repo.deletes)
	}
	if deleted["products/B08N5WRWNW.png"] {
		t.Fatal("the freshly uploaded key must not be deleted")
	}
}

func TestMirrorCleanupFailureIsBestEffort(t *testing.T) {
	srv := imageServer(t, "image/jpeg", []byte("jpg-bytes"))
	defer srv.Close()

	repo := newMockImageRepo()
	repo.delErr = errors.New("bucket unavailable")

	key, err := newTestMirror(repo).Mirror(context.Background(), "B08N5WRWNW", srv.URL)
	if err != nil {
		t.Fatalf("cleanup failure must not fail the mirror: %v", err)
	}
	if key != "products/B08N5WRWNW.jpg" {
		t.Fatalf("unexpected object key: %s", key)
	}
}

func TestMirrorRejectsUnsupportedMIME(t *testing.T) {
	srv := imageServer(t, "image/gif", []byte("gif-bytes"))
	defer srv.Close()

	repo := newMockImageRepo()
	_, err := newTestMirror(repo).Mirror(context.Background(), "B08N5WRWNW", srv.URL)
	if !errors.Is(err, e.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
	if len(repo.uploads) != 0 {
		t.Fatal("unsupported media must not be uploaded")
	}
}

func TestMirrorFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := newMockImageRepo()
	if _, err := newTestMirror(repo).Mirror(context.Background(), "B08N5WRWNW", srv.URL); err == nil {
		t.Fatal("non-200 download must fail the mirror")
	}
}
