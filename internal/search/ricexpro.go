package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// BaseURL is the RiceXPro RXP_4001 field-transcriptome search page. The
// selectors below are integration contracts with the site's current markup
// and are deliberately not configurable.
const BaseURL = "https://ricexpro.dna.affrc.go.jp/RXP_4001/"

const (
	keywordSelector = `input[name="keyword"]`
	submitSelector  = `input[type="submit"][value="Search"]`
	resultClass     = "graph-link"
	devAttr         = "dev_barimg"
	tissueAttr      = "tissue_barimg"
)

const (
	navPollInterval = 100 * time.Millisecond
	navTimeout      = 30 * time.Second
)

// DriverConfig configures the browser-backed search driver.
type DriverConfig struct {
	// Headless runs Chrome without a visible window.
	Headless bool
	// Timeout bounds a single search round trip. Zero means no bound beyond
	// the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Driver owns one Chrome session for the lifetime of the run. The session is
// reused across loop ticks and released exactly once by Close.
type Driver struct {
	cfg    DriverConfig
	logger *slog.Logger

	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	closeOnce     sync.Once
}

// NewDriver launches the browser allocator and a browser context. The caller
// must Close the driver on every exit path.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1400, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &Driver{
		cfg:           cfg,
		logger:        cfg.Logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// Close releases the browser session. Safe to call more than once.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.logger.Debug("closing browser session")
		d.browserCancel()
		d.allocCancel()
	})
	return nil
}

// Search loads the search page, submits the gene name and parses the rendered
// results. A page without a result element yields Found=false, nil error;
// navigation and DOM failures are returned as errors.
func (d *Driver) Search(ctx context.Context, gene string) (*Result, error) {
	runCtx, cancel := context.WithCancel(d.browserCtx)
	defer cancel()
	if d.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, d.cfg.Timeout)
		defer cancel()
	}
	// Propagate caller cancellation into the browser context.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	d.logger.Debug("submitting search", "gene", gene)

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(BaseURL),
		chromedp.WaitVisible(keywordSelector, chromedp.ByQuery),
		chromedp.SendKeys(keywordSelector, gene, chromedp.ByQuery),
		chromedp.Click(submitSelector, chromedp.ByQuery),
		waitForResults(),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		// Report the caller's cancellation rather than the derived context's.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("search for %q: %w", gene, err)
	}

	return parseResult(html, BaseURL)
}

// waitForResults blocks until the form submission has navigated away from the
// search page and the results document has finished loading. A miss has no
// result element to wait on, so navigation plus readyState is the only
// reliable signal; reading the DOM earlier could mistake a still-loading page
// for a miss. A page that never navigates within the budget is a driver
// failure, not a miss.
func waitForResults() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		deadline := time.Now().Add(navTimeout)
		for {
			var href, ready string
			if err := chromedp.Location(&href).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Evaluate(`document.readyState`, &ready).Do(ctx); err != nil {
				return err
			}
			if resultsLoaded(href, ready) {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("results page did not load within %s", navTimeout)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(navPollInterval):
			}
		}
	})
}

// resultsLoaded reports whether the browser has left the search form and the
// results document is complete.
func resultsLoaded(href, readyState string) bool {
	return href != BaseURL && readyState == "complete"
}

// parseResult extracts the two chart attributes from the first result element
// and resolves them against base. No result element means no hits.
func parseResult(html, base string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	sel := doc.Find("." + resultClass).First()
	if sel.Length() == 0 {
		return &Result{Found: false}, nil
	}

	dev, ok := sel.Attr(devAttr)
	if !ok {
		return nil, fmt.Errorf("result element missing %s attribute", devAttr)
	}
	tissue, ok := sel.Attr(tissueAttr)
	if !ok {
		return nil, fmt.Errorf("result element missing %s attribute", tissueAttr)
	}

	devURL, err := resolveURL(base, dev)
	if err != nil {
		return nil, err
	}
	tissueURL, err := resolveURL(base, tissue)
	if err != nil {
		return nil, err
	}

	return &Result{
		Found:          true,
		DevChartURL:    devURL,
		TissueChartURL: tissueURL,
	}, nil
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse image path %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
