package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetch defaults.
const (
	DefaultBaseURL      = "https://docs.google.com"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 50 << 20 // 50MB
)

// ErrBodyTooLarge is wrapped in a FetchError when the export exceeds the
// configured size limit.
var ErrBodyTooLarge = errors.New("response body too large")

// FetchError reports a failed download. StatusCode is zero when no response
// was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the download gave up waiting.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// NotFound reports whether the sheet does not exist or is not published.
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// Options configures a Fetcher. Zero fields take the package defaults.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Client       *http.Client // overrides Timeout when set
}

// Fetcher downloads the CSV export of a sheet tab. It is safe for
// concurrent use.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	maxBody   int64
	userAgent string
}

// NewFetcher creates a Fetcher. Redirects are followed.
func NewFetcher(opts Options) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Fetcher{
		client:    client,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		maxBody:   opts.MaxBodyBytes,
		userAgent: opts.UserAgent,
	}
}

// CSVURL returns the CSV export address of src.
//
// Published ids use the "Publish to web" endpoint, which omits gid for the
// first tab. Document ids use the export endpoint, which needs the link to
// be viewable by anyone.
func (f *Fetcher) CSVURL(src Source) string {
	id := url.PathEscape(src.ID)

	if src.Published {
		q := url.Values{}
		if src.GID != "" && src.GID != DefaultGID {
			q.Set("gid", src.GID)
		}
		q.Set("single", "true")
		q.Set("output", "csv")
		return fmt.Sprintf("%s/spreadsheets/d/e/%s/pub?%s", f.baseURL, id, encodeOrdered(q, "gid", "single", "output"))
	}

	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", orDefaultGID(src.GID))
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", f.baseURL, id, encodeOrdered(q, "format", "gid"))
}

// FetchText downloads the CSV export of src as text.
func (f *Fetcher) FetchText(ctx context.Context, src Source) (string, error) {
	target := f.CSVURL(src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", &FetchError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return "", &FetchError{URL: target, Err: fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.maxBody)}
	}

	return string(body), nil
}

// encodeOrdered encodes q with keys in the given order. url.Values.Encode
// sorts keys, which reads oddly for these endpoints.
func encodeOrdered(q url.Values, keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := q[k]; ok && len(v) > 0 {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v[0]))
		}
	}
	return strings.Join(parts, "&")
}
