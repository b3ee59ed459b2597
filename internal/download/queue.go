// Package download implements the single-file download algorithm and the
// bounded-concurrency queue that drives a batch of Items with byte-accurate
// aggregate progress.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/quasar/launchercore/internal/hashutil"
)

// Item is a single file to fetch and validate.
type Item struct {
	URL       string
	Path      string
	Algorithm hashutil.Algorithm // empty: no hash validation
	Hash      string             // lower-case hex digest, empty: no hash validation
	Size      int64
}

// SizeMismatch records an Item whose received byte count disagreed with its
// declared Size. See Queue.StrictSizeValidation.
type SizeMismatch struct {
	Path     string
	Declared int64
	Received int64
}

// ValidationError is a hash mismatch after download. It is never retried.
type ValidationError struct {
	Path     string
	Expected string
	Got      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("download: hash mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// SkipExtensions are user-editable config file extensions the queue must
// never clobber once they exist on disk.
var SkipExtensions = []string{".txt", ".json", ".yml", ".yaml", ".dat"}

// DefaultRetryableErrors is the minimum set of transport error substrings
// the engine retries on. It is a var, not a const, so a collaborator can
// extend it with platform- or CDN-specific codes.
var DefaultRetryableErrors = []string{
	"connection timed out",
	"i/o timeout",
	"connection reset",
	"address already in use",
	"connection refused",
	"no such host",
	"EOF",
	"connection closed",
}

// ItemProgress is a per-asset progress event. A Transferred==0 && Total==0
// event is the single reset marker emitted when an item starts a retry
// attempt; all other events carry monotonically non-decreasing Transferred
// values for that item.
type ItemProgress struct {
	Path        string
	Transferred int64
	Total       int64
}

// Progress is the aggregate, byte-accurate view across every Item in a
// Queue.Run call.
type Progress struct {
	TotalBytes      int64
	DownloadedBytes int64
	TotalItems      int
	CompletedItems  int
}

// Result is the outcome of a Queue.Run call.
type Result struct {
	Completed      int
	Failed         int
	Errors         []error
	SizeMismatches []SizeMismatch
}

// Queue drives a bounded-concurrency worker pool over a batch of Items.
type Queue struct {
	// Concurrency is the number of simultaneous in-flight downloads.
	// Defaults to 15 (spec default) when zero.
	Concurrency int

	// MaxAttempts is the number of download attempts before giving up:
	// the initial try plus every retry. Defaults to 11 when zero (1
	// initial attempt + 10 retries, so backoff is applied 10 times and
	// reaches spec.md §4.1 step 6's literal 2^10 = 1024s interval).
	MaxAttempts int

	// Backoff computes the delay before attempt n+1, given the
	// one-based number n of the attempt just exhausted. Defaults to
	// 2^n seconds (2,4,8,...).
	Backoff func(attempt int) time.Duration

	// StrictSizeValidation promotes a post-download size mismatch (see
	// SizeMismatch) from a diagnostic to a hard Queue.Run error.
	StrictSizeValidation bool

	client *http.Client
}

// NewQueue builds a Queue with the spec's default concurrency and a
// retryablehttp-backed transport configured for per-request timeouts. The
// underlying client performs no library-level retries: Queue.Run's own
// loop owns backoff so it can distinguish Validation failures (never
// retried) from transport failures.
func NewQueue(concurrency int) *Queue {
	if concurrency <= 0 {
		concurrency = 15
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.HTTPClient = cleanhttp.DefaultPooledClient()
	retryClient.HTTPClient.Timeout = 15 * time.Second
	if t, ok := retryClient.HTTPClient.Transport.(*http.Transport); ok {
		t.DialContext = (&net.Dialer{Timeout: 5 * time.Second}).DialContext
	}

	return &Queue{
		Concurrency: concurrency,
		client:      retryClient.StandardClient(),
	}
}

func (q *Queue) maxAttempts() int {
	if q.MaxAttempts > 0 {
		return q.MaxAttempts
	}
	return 11
}

func (q *Queue) backoff(attempt int) time.Duration {
	if q.Backoff != nil {
		return q.Backoff(attempt)
	}
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// Run downloads every item to completion or failure. onItem, if non-nil, is
// called for every per-asset progress event (including the {0,0} retry
// reset); onAggregate, if non-nil, is called with the running cumulative
// total across all items each time any item reports progress.
//
// One asset's fatal failure is propagated through the returned error. Other
// in-flight attempts are allowed to finish, but no new items are started
// once a fatal failure has been observed.
func (q *Queue) Run(ctx context.Context, items []Item, onItem func(ItemProgress), onAggregate func(Progress)) (*Result, error) {
	if len(items) == 0 {
		return &Result{}, nil
	}

	var totalSize int64
	for _, it := range items {
		totalSize += it.Size
	}

	agg := Progress{TotalBytes: totalSize, TotalItems: len(items)}
	var aggMu sync.Mutex
	prevByPath := make(map[string]int64, len(items))

	reportItem := func(p ItemProgress) {
		if onItem != nil {
			onItem(p)
		}
		aggMu.Lock()
		defer aggMu.Unlock()
		prev := prevByPath[p.Path]
		var delta int64
		if p.Transferred == 0 && p.Total == 0 {
			delta = -prev
			prevByPath[p.Path] = 0
		} else {
			delta = p.Transferred - prev
			prevByPath[p.Path] = p.Transferred
		}
		agg.DownloadedBytes += delta
		if onAggregate != nil {
			onAggregate(agg)
		}
	}

	workChan := make(chan Item, len(items))
	for _, it := range items {
		workChan <- it
	}
	close(workChan)

	var (
		completed  int64
		failed     int64
		errMu      sync.Mutex
		errs       []error
		mismatches []SizeMismatch
		aborted    atomic.Bool
	)

	var wg sync.WaitGroup
	concurrency := q.Concurrency
	if concurrency <= 0 {
		concurrency = 15
	}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				if aborted.Load() {
					continue
				}
				select {
				case <-ctx.Done():
					return
				default:
				}

				mismatch, err := q.downloadWithRetry(ctx, item, reportItem)
				if err != nil {
					aborted.Store(true)
					atomic.AddInt64(&failed, 1)
					errMu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", item.URL, err))
					errMu.Unlock()
					continue
				}
				atomic.AddInt64(&completed, 1)
				if mismatch != nil {
					errMu.Lock()
					mismatches = append(mismatches, *mismatch)
					errMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	result := &Result{
		Completed:      int(completed),
		Failed:         int(failed),
		Errors:         errs,
		SizeMismatches: mismatches,
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	if q.StrictSizeValidation && len(mismatches) > 0 {
		return result, fmt.Errorf("download: %d item(s) failed size validation", len(mismatches))
	}
	return result, nil
}

// downloadWithRetry runs the single-file algorithm with the spec's
// retry/backoff contract. A non-nil *SizeMismatch is returned alongside a
// nil error when the file was written successfully but its received byte
// count disagreed with item.Size.
func (q *Queue) downloadWithRetry(ctx context.Context, item Item, report func(ItemProgress)) (*SizeMismatch, error) {
	if skippable(item) {
		report(ItemProgress{Path: item.Path, Transferred: item.Size, Total: item.Size})
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	if item.Hash != "" && hashutil.Matches(item.Path, item.Algorithm, item.Hash) {
		report(ItemProgress{Path: item.Path, Transferred: item.Size, Total: item.Size})
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= q.maxAttempts(); attempt++ {
		received, err := q.attempt(ctx, item, report)
		if err == nil {
			return sizeMismatch(item, received), nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == q.maxAttempts() {
			break
		}
		report(ItemProgress{Path: item.Path, Transferred: 0, Total: 0})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.backoff(attempt)):
		}
	}
	return nil, lastErr
}

func skippable(item Item) bool {
	ext := strings.ToLower(filepath.Ext(item.Path))
	for _, skip := range SkipExtensions {
		if ext == skip {
			if _, err := os.Stat(item.Path); err == nil {
				return true
			}
			return false
		}
	}
	return false
}

func sizeMismatch(item Item, received int64) *SizeMismatch {
	if item.Size > 0 && received != item.Size {
		return &SizeMismatch{Path: item.Path, Declared: item.Size, Received: received}
	}
	return nil
}

// attempt performs exactly one download try: request, stream to a temp
// file while hashing, validate, then atomically rename into place. On any
// failure the partial file is unlinked.
func (q *Queue) attempt(ctx context.Context, item Item, report func(ItemProgress)) (int64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, item.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting %s: %w", item.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return 0, fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmpPath := item.Path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	progressWriter := &countingWriter{onWrite: func(n int64) {
		report(ItemProgress{Path: item.Path, Transferred: n, Total: item.Size})
	}}

	digest, n, err := hashutil.HashReader(io.TeeReader(resp.Body, progressWriter), f, hashAlgoOrDefault(item.Algorithm))
	closeErr := f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("reading response: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing file: %w", closeErr)
	}

	if item.Hash != "" && digest != item.Hash {
		os.Remove(tmpPath)
		return 0, &ValidationError{Path: item.Path, Expected: item.Hash, Got: digest}
	}

	if err := os.Rename(tmpPath, item.Path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming into place: %w", err)
	}

	return n, nil
}

// countingWriter reports cumulative bytes seen so far to onWrite; it
// discards the bytes themselves, since the real destination write happens
// inside hashutil.HashReader.
type countingWriter struct {
	total   int64
	onWrite func(total int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.total += int64(len(p))
	if c.onWrite != nil {
		c.onWrite(c.total)
	}
	return len(p), nil
}

func hashAlgoOrDefault(a hashutil.Algorithm) hashutil.Algorithm {
	if a == "" {
		return hashutil.SHA1
	}
	return a
}

func retryable(err error) bool {
	msg := err.Error()
	for _, substr := range DefaultRetryableErrors {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	if strings.Contains(msg, "status 5") {
		return true
	}
	return false
}
