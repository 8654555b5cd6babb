package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/samcharles93/indicxlit/internal/logger"
)

const (
	DefaultURL   = "https://github.com/AI4Bharat/IndicXlit/releases/download/v1.0/word_prob_dicts.zip"
	MaxRedirects = 10

	archiveDir = "word_prob_dicts"
)

// Progress receives the bytes downloaded so far and the total, which is 0
// when the server does not send a length.
type Progress func(downloaded, total int64)

// Downloader fetches the dictionary archive and extracts one language.
type Downloader struct {
	URL    string
	Client *http.Client
}

// NewDownloader returns a Downloader for url. An empty url selects DefaultURL.
func NewDownloader(url string) *Downloader {
	if url == "" {
		url = DefaultURL
	}
	return &Downloader{
		URL: url,
		Client: &http.Client{
			CheckRedirect: limitRedirects,
		},
	}
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) > MaxRedirects {
		return ErrTooManyRedirects
	}
	return nil
}

// Download writes the dictionary for lang into store. The archive is spooled
// to a temporary file beside the destination and removed afterwards; the
// dictionary appears under its final name only once fully written.
func (d *Downloader) Download(ctx context.Context, store Store, lang string, progress Progress) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	if err := os.MkdirAll(store.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrExtraction, store.Dir, err)
	}

	archive, size, err := d.fetch(ctx, store.Dir, progress)
	if err != nil {
		return err
	}
	defer func() {
		_ = archive.Close()
		_ = os.Remove(archive.Name())
	}()

	if err := extract(archive, size, lang, store.Path(lang)); err != nil {
		return err
	}
	log.Info("dictionary downloaded", "lang", lang, "bytes", size, "path", store.Path(lang), "elapsed", time.Since(start))
	return nil
}

func (d *Downloader) fetch(ctx context.Context, dir string, progress Progress) (*os.File, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	client := d.Client
	if client == nil {
		client = &http.Client{CheckRedirect: limitRedirects}
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return nil, 0, fmt.Errorf("fetch %s: %w", d.URL, ErrTooManyRedirects)
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: HTTP %d from %s", ErrNetwork, resp.StatusCode, resp.Request.URL)
	}

	tmp, err := os.CreateTemp(dir, ".word_prob_dicts-*.zip.partial")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	fail := func(e error) (*os.File, int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, 0, e
	}

	var w io.Writer = tmp
	if progress != nil {
		w = &countingWriter{w: tmp, total: max(resp.ContentLength, 0), fn: progress}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fail(fmt.Errorf("%w: read body: %w", ErrNetwork, err))
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fail(fmt.Errorf("%w: short body: got %d of %d bytes", ErrNetwork, n, resp.ContentLength))
	}
	return tmp, n, nil
}

func extract(archive io.ReaderAt, size int64, lang, dest string) error {
	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	want := path.Join(archiveDir, FileName(lang))
	for _, f := range zr.File {
		if f.Name != want {
			continue
		}
		return writeEntry(f, dest)
	}
	return fmt.Errorf("%w: %w: %s not in archive", ErrExtraction, ErrNotFound, want)
}

func writeEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrExtraction, f.Name, err)
	}
	defer rc.Close()

	partial := dest + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		_ = os.Remove(partial)
		return fmt.Errorf("%w: write %s: %w", ErrExtraction, dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return nil
}

type countingWriter struct {
	w     io.Writer
	n     int64
	total int64
	fn    Progress
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.fn(c.n, c.total)
	return n, err
}
