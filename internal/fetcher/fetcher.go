// Package fetcher retrieves ingestion source files over HTTP, FTP, or the
// local filesystem.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Fetcher downloads one source location.
type Fetcher interface {
	// Download fetches the location and returns the content stream.
	Download(ctx context.Context, location string) (io.ReadCloser, error)

	// DownloadToFile fetches the location into path. Returns bytes written.
	DownloadToFile(ctx context.Context, location string, path string) (int64, error)
}

// Options configures the scheme dispatcher and its fetchers.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// RequestsPerSecond seeds the per-host HTTP rate limiters.
	RequestsPerSecond float64
}

// Dispatcher routes a source location to the fetcher for its scheme.
// http and https go to the HTTP fetcher, ftp to the FTP fetcher, and
// file:// or bare paths to the local fetcher.
type Dispatcher struct {
	http  *HTTPFetcher
	ftp   *FTPFetcher
	local *LocalFetcher
}

// NewDispatcher builds a dispatcher with fetchers for every supported
// scheme.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{
		http:  NewHTTPFetcher(opts),
		ftp:   NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}),
		local: &LocalFetcher{},
	}
}

// ForLocation returns the fetcher handling the given source location.
func (d *Dispatcher) ForLocation(location string) (Fetcher, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse location %s", location)
	}
	switch u.Scheme {
	case "http", "https":
		return d.http, nil
	case "ftp":
		return d.ftp, nil
	case "file", "":
		return d.local, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q in %s", u.Scheme, location)
	}
}

// Download resolves the scheme and fetches the location.
func (d *Dispatcher) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	f, err := d.ForLocation(location)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, location)
}

// DownloadToFile resolves the scheme and fetches the location into path.
func (d *Dispatcher) DownloadToFile(ctx context.Context, location string, path string) (int64, error) {
	f, err := d.ForLocation(location)
	if err != nil {
		return 0, err
	}
	return f.DownloadToFile(ctx, location, path)
}

// LocalFetcher serves file:// URLs and bare filesystem paths.
type LocalFetcher struct{}

func localPath(location string) string {
	return strings.TrimPrefix(location, "file://")
}

// Download opens the local file.
func (f *LocalFetcher) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "local: cancelled")
	}
	file, err := os.Open(localPath(location))
	if err != nil {
		return nil, eris.Wrapf(err, "local: open %s", location)
	}
	return file, nil
}

// DownloadToFile copies the local file to path.
func (f *LocalFetcher) DownloadToFile(ctx context.Context, location string, path string) (int64, error) {
	src, err := f.Download(ctx, location)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "local: create %s", path)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return n, eris.Wrap(err, "local: copy")
	}
	return n, nil
}
