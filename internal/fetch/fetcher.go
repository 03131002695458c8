// Package fetch downloads chart images and decodes them into rasters.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/FranksOps/riceplot/internal/fingerprint"
	"github.com/FranksOps/riceplot/pkg/httpclient"
	"github.com/FranksOps/riceplot/pkg/proxy"
	"github.com/FranksOps/riceplot/pkg/useragent"
)

type contextKey string

// proxyKey carries the active proxy for one request. Rotation happens per
// request by reading this from the request context; mutating Transport.Proxy
// concurrently is not safe.
const proxyKey contextKey = "proxy_url"

// StatusError reports a non-2xx response for an image URL.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// DecodeError reports a response body that is not a decodable image.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Download records one completed (or failed) image download, for logging and
// metrics. It is never persisted.
type Download struct {
	ID         string
	URL        string
	StatusCode int
	Bytes      int
	Duration   time.Duration
}

// Config configures a Fetcher.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	Fingerprint  fingerprint.Profile
	UAPool       *useragent.Pool
	Proxies      *proxy.Pool
	Logger       *slog.Logger
}

// Fetcher downloads images over a single client so connections are reused
// across the two chart downloads of each tick.
type Fetcher struct {
	cfg    Config
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher builds a Fetcher from cfg.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var proxyFunc func(*http.Request) (*url.URL, error)
	if cfg.Proxies != nil {
		proxyFunc = func(req *http.Request) (*url.URL, error) {
			if v := req.Context().Value(proxyKey); v != nil {
				if u, ok := v.(*url.URL); ok {
					return u, nil
				}
			}
			return nil, nil
		}
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("fetch: transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: client: %w", err)
	}

	return &Fetcher{cfg: cfg, client: client, logger: cfg.Logger}, nil
}

// FetchImage GETs rawURL and decodes the body into a raster. Non-2xx
// responses yield a *StatusError, undecodable bodies a *DecodeError. There
// are no retries; the first failure is returned to the caller. The returned
// Download is populated on both success and failure.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) (image.Image, *Download, error) {
	dl := &Download{
		ID:  uuid.New().String(),
		URL: rawURL,
	}
	start := time.Now()

	// Pick the proxy for this request and hand it to the transport via the
	// context, so an unhealthy proxy can be marked and skipped next time.
	var activeProxy *url.URL
	if f.cfg.Proxies != nil {
		activeProxy = f.cfg.Proxies.Next()
		if activeProxy != nil {
			ctx = context.WithValue(ctx, proxyKey, activeProxy)
		}
	}

	header := http.Header{}
	header.Set("User-Agent", f.cfg.UAPool.Next())
	header.Set("Accept", "image/avif,image/webp,image/png,image/*;q=0.8,*/*;q=0.5")
	header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Get(ctx, rawURL, header)
	if err != nil {
		if activeProxy != nil {
			f.cfg.Proxies.MarkFailure(activeProxy)
		}
		dl.Duration = time.Since(start)
		return nil, dl, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		f.cfg.Proxies.MarkSuccess(activeProxy)
	}

	dl.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		dl.Duration = time.Since(start)
		return nil, dl, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		dl.Duration = time.Since(start)
		return nil, dl, fmt.Errorf("fetch %s: read body: %w", rawURL, err)
	}
	dl.Bytes = len(body)
	dl.Duration = time.Since(start)

	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, dl, &DecodeError{URL: rawURL, Err: err}
	}

	f.logger.Debug("downloaded chart image",
		"id", dl.ID,
		"url", rawURL,
		"bytes", dl.Bytes,
		"duration", dl.Duration,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
	)

	return img, dl, nil
}
