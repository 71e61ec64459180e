package updater

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// ProgressCallback is called during download with bytes received so far and
// the expected total (-1 when the server sent no length).
type ProgressCallback func(downloaded, total int64)

// Downloader fetches release archives.
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a new Downloader.
func NewDownloader() *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// Download writes url to destPath, reporting progress. A partial file is
// removed on failure.
func (d *Downloader) Download(ctx context.Context, url, destPath string, progress ProgressCallback) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var reader io.Reader = resp.Body
	if progress != nil {
		reader = &progressReader{
			reader:   resp.Body,
			total:    resp.ContentLength,
			callback: progress,
		}
	}

	_, err = io.Copy(out, reader)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	return nil
}

// progressReader wraps an io.Reader to report progress.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressCallback
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}

// progressTracker turns raw byte counts into DownloadProgress events,
// emitting only when the whole percentage changes.
type progressTracker struct {
	emit    func(Event)
	now     func() time.Time
	start   time.Time
	lastPct int
}

func newProgressTracker(emit func(Event), now func() time.Time) *progressTracker {
	return &progressTracker{
		emit:    emit,
		now:     now,
		start:   now(),
		lastPct: -1,
	}
}

func (t *progressTracker) update(downloaded, total int64) {
	if total <= 0 {
		return
	}

	percent := float64(downloaded) / float64(total) * 100
	pct := int(math.Floor(percent))
	if pct == t.lastPct {
		return
	}
	t.lastPct = pct

	var bps int64
	if elapsed := t.now().Sub(t.start).Seconds(); elapsed > 0 {
		bps = int64(float64(downloaded) / elapsed)
	}

	t.emit(DownloadProgress{
		BytesPerSecond: bps,
		Percent:        percent,
		Transferred:    downloaded,
		Total:          total,
	})
}
