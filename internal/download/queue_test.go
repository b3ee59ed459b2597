package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quasar/launchercore/internal/hashutil"
)

func sha1Hex(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestQueue_Run_DownloadsAndValidates(t *testing.T) {
	const body = "hello world"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")

	q := NewQueue(4)
	result, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Algorithm: hashutil.SHA1, Hash: sha1Hex(body), Size: int64(len(body))},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !hashutil.Matches(path, hashutil.SHA1, sha1Hex(body)) {
		t.Error("downloaded file does not match expected hash")
	}
}

func TestQueue_Run_SkipsAlreadyValidFile(t *testing.T) {
	const body = "cached"
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")
	os.WriteFile(path, []byte(body), 0o644)

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte("should not be fetched"))
	}))
	defer srv.Close()

	q := NewQueue(1)
	result, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Algorithm: hashutil.SHA1, Hash: sha1Hex(body), Size: int64(len(body))},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed != 1 {
		t.Fatalf("expected 1 completed, got %+v", result)
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Error("expected no HTTP request for an already-valid file")
	}
}

func TestQueue_Run_SkipsExistingConfigExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.txt")
	os.WriteFile(path, []byte("user edited content"), 0o644)

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	q := NewQueue(1)
	_, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Size: 1},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Error("expected config file to be skipped, not refetched")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "user edited content" {
		t.Error("expected config file to remain untouched")
	}
}

func TestQueue_Run_ValidationFailureNotRetried(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte("wrong content"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")

	q := NewQueue(1)
	q.Backoff = func(int) time.Duration { return time.Millisecond }
	result, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Algorithm: hashutil.SHA1, Hash: sha1Hex("expected content"), Size: 13},
	}, nil, nil)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed item, got %+v", result)
	}
	if atomic.LoadInt32(&requests) != 1 {
		t.Errorf("validation failures must not be retried, got %d requests", requests)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("expected no file left on disk after a non-Validation-surviving failure")
	}
}

func TestQueue_Run_RetriesServerErrorThenSucceeds(t *testing.T) {
	const body = "eventually ok"
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")

	var resetsSeen int
	q := NewQueue(1)
	q.Backoff = func(int) time.Duration { return time.Millisecond }
	result, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Algorithm: hashutil.SHA1, Hash: sha1Hex(body), Size: int64(len(body))},
	}, func(p ItemProgress) {
		if p.Transferred == 0 && p.Total == 0 {
			resetsSeen++
		}
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed != 1 {
		t.Fatalf("expected eventual success, got %+v", result)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if resetsSeen != 2 {
		t.Errorf("expected 2 progress resets (one per retry), got %d", resetsSeen)
	}
}

func TestQueue_DefaultMaxAttempts_AppliesBackoffTenTimes(t *testing.T) {
	q := NewQueue(1)

	if got := q.maxAttempts(); got != 11 {
		t.Fatalf("maxAttempts() = %d, want 11 (1 initial + 10 retries)", got)
	}

	// spec.md §4.1 step 6: "2,4,8,...,1024" — backoff(1)..backoff(10).
	if got := q.backoff(10); got != 1024*time.Second {
		t.Errorf("backoff(10) = %v, want 1024s", got)
	}

	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var backoffsApplied int32
	q.Backoff = func(attempt int) time.Duration {
		atomic.AddInt32(&backoffsApplied, 1)
		return time.Microsecond
	}

	dir := t.TempDir()
	_, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: filepath.Join(dir, "asset.bin"), Size: 1},
	}, nil, nil)
	if err == nil {
		t.Fatal("expected an error after exhausting every retry")
	}
	if atomic.LoadInt32(&attempts) != 11 {
		t.Errorf("expected 11 total attempts, got %d", attempts)
	}
	if atomic.LoadInt32(&backoffsApplied) != 10 {
		t.Errorf("expected backoff applied 10 times, got %d", backoffsApplied)
	}
}

func TestQueue_Run_UnlinksPartialFileOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")

	q := NewQueue(1)
	q.MaxAttempts = 1
	_, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Size: 1},
	}, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("expected no file on disk after a fatal failure")
	}
	if _, statErr := os.Stat(path + ".tmp"); !os.IsNotExist(statErr) {
		t.Error("expected no leftover temp file")
	}
}

func TestQueue_Run_AggregateProgressMonotonicModuloResets(t *testing.T) {
	const body = "0123456789"
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")

	q := NewQueue(1)
	q.Backoff = func(int) time.Duration { return time.Millisecond }

	var maxSeen int64
	_, err := q.Run(context.Background(), []Item{
		{URL: srv.URL, Path: path, Algorithm: hashutil.SHA1, Hash: sha1Hex(body), Size: int64(len(body))},
	}, nil, func(p Progress) {
		if p.DownloadedBytes > maxSeen {
			maxSeen = p.DownloadedBytes
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if maxSeen > int64(len(body)) {
		t.Errorf("aggregate progress exceeded total size: %d > %d", maxSeen, len(body))
	}
}
