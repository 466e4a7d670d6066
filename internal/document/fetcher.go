package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"mindflow/internal/safeio"
)

const (
	defaultSniffTimeout    = 10 * time.Second
	defaultDownloadTimeout = 30 * time.Second
	chunkSize              = 8192
	sniffCacheSize         = 512
)

// DefaultAllowedHosts are document hosts accepted without probing.
var DefaultAllowedHosts = []string{"ucarecdn.com", "drive.google.com", "dropbox.com"}

var pdfMagic = []byte("%PDF")

// Fetcher validates document URLs and downloads them into a SafeFS.
type Fetcher struct {
	http            *http.Client
	fs              *safeio.SafeFS
	allowed         []string
	sniffTimeout    time.Duration
	downloadTimeout time.Duration
	sniffed         *lru.Cache[string, bool]
	objects         ObjectStore
	log             *log.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the client used for sniffing requests and downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// WithAllowedHosts replaces the trusted host list.
func WithAllowedHosts(hosts ...string) Option {
	return func(f *Fetcher) { f.allowed = hosts }
}

// WithTimeouts sets the sniff and download deadlines.
func WithTimeouts(sniff, download time.Duration) Option {
	return func(f *Fetcher) {
		if sniff > 0 {
			f.sniffTimeout = sniff
		}
		if download > 0 {
			f.downloadTimeout = download
		}
	}
}

// WithObjectStore serves s3:// URLs from store.
func WithObjectStore(store ObjectStore) Option {
	return func(f *Fetcher) { f.objects = store }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher creates a Fetcher writing into fs.
func NewFetcher(fs *safeio.SafeFS, opts ...Option) (*Fetcher, error) {
	if fs == nil {
		return nil, errors.New("document: downloads directory is required")
	}
	cache, err := lru.New[string, bool](sniffCacheSize)
	if err != nil {
		return nil, err
	}
	f := &Fetcher{
		http:            &http.Client{},
		fs:              fs,
		allowed:         DefaultAllowedHosts,
		sniffTimeout:    defaultSniffTimeout,
		downloadTimeout: defaultDownloadTimeout,
		sniffed:         cache,
		log:             log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// ValidateAndFetch validates rawURL and downloads it. The caller owns the
// returned source and must Close it.
func (f *Fetcher) ValidateAndFetch(ctx context.Context, rawURL string) (*DocumentSource, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return nil, &DownloadError{URL: rawURL, Err: fmt.Errorf("invalid url: %w", errOrDefault(err))}
	}
	if strings.EqualFold(u.Scheme, "s3") {
		return f.fetchObject(ctx, rawURL, u)
	}
	if !f.Validate(ctx, rawURL) {
		return nil, ErrNotDocument
	}
	return f.download(ctx, rawURL)
}

// Validate applies the acceptance rules in order: trusted host, ".pdf"
// extension, HEAD content type, then the first four bytes. Any sniff error
// or non-2xx sniff response counts as valid; the download reports real
// failures.
func (f *Fetcher) Validate(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	if f.trustedHost(u.Hostname()) {
		return true
	}
	if hasPDFExt(u.Path) {
		return true
	}
	if ok, hit := f.sniffed.Get(rawURL); hit {
		return ok
	}
	ok, cacheable := f.sniff(ctx, rawURL)
	if ok && cacheable {
		f.sniffed.Add(rawURL, true)
	}
	return ok
}

func (f *Fetcher) trustedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, h := range f.allowed {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func hasPDFExt(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".pdf")
}

// sniff reports whether rawURL looks like a PDF and whether the answer came
// from the server rather than the assume-valid fallback.
func (f *Fetcher) sniff(ctx context.Context, rawURL string) (ok, definitive bool) {
	ctx, cancel := context.WithTimeout(ctx, f.sniffTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return true, false
	}
	resp, err := f.http.Do(req)
	if err != nil {
		f.log.Printf("document: sniff %s failed, assuming valid: %v", rawURL, err)
		return true, false
	}
	resp.Body.Close()
	if !is2xx(resp.StatusCode) {
		f.log.Printf("document: sniff %s returned %d, assuming valid", rawURL, resp.StatusCode)
		return true, false
	}
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/pdf") {
		return true, true
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return true, false
	}
	req.Header.Set("Range", "bytes=0-3")
	resp, err = f.http.Do(req)
	if err != nil {
		f.log.Printf("document: magic sniff %s failed, assuming valid: %v", rawURL, err)
		return true, false
	}
	defer resp.Body.Close()
	if !is2xx(resp.StatusCode) {
		return true, false
	}
	head := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return true, false
	}
	return string(head[:n]) == string(pdfMagic), true
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*DocumentSource, error) {
	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if !is2xx(resp.StatusCode) {
		return nil, &DownloadError{URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return f.store(rawURL, resp.Body)
}

// store streams r into a fresh local file named after rawURL.
func (f *Fetcher) store(rawURL string, r io.Reader) (*DocumentSource, error) {
	out, path, err := f.fs.SafeCreate(uniqueName(DeriveFilename(rawURL)))
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	_, copyErr := io.CopyBuffer(out, r, make([]byte, chunkSize))
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = f.fs.SafeRemove(path)
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	f.log.Printf("document: downloaded %s to %s", rawURL, path)
	return &DocumentSource{RemoteURL: rawURL, LocalPath: path, Validated: true, fs: f.fs}, nil
}

func is2xx(code int) bool { return code >= 200 && code < 300 }

func errOrDefault(err error) error {
	if err != nil {
		return err
	}
	return errors.New("missing scheme")
}
