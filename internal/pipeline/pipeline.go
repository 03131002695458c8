// Package pipeline runs the search → fetch → compose → display loop.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/FranksOps/riceplot/internal/compose"
	"github.com/FranksOps/riceplot/internal/display"
	"github.com/FranksOps/riceplot/internal/fetch"
	"github.com/FranksOps/riceplot/internal/metrics"
	"github.com/FranksOps/riceplot/internal/search"
	"github.com/FranksOps/riceplot/pkg/ratelimit"
)

// ImageFetcher is the slice of fetch.Fetcher the pipeline needs.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, *fetch.Download, error)
}

// Pipeline repeats the same gene search until it stops matching. Each tick
// that matches downloads both chart images, concatenates them and hands the
// composite to the sink. Every component failure ends the run immediately;
// only "no hits" is handled as a normal outcome.
type Pipeline struct {
	Searcher search.Provider
	Fetcher  ImageFetcher
	Sink     display.Sink
	// Pacer spaces out loop ticks. Optional.
	Pacer  *ratelimit.Pacer
	Logger *slog.Logger
	// Out receives the user-facing "no hits" notice. Defaults to stdout.
	Out io.Writer
}

// Run executes the loop for gene. Returns nil once the search reports no
// hits, the first component error otherwise.
func (p *Pipeline) Run(ctx context.Context, gene string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}

	for tick := 1; ; tick++ {
		if tick > 1 {
			if err := p.Pacer.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		res, err := p.Searcher.Search(ctx, gene)
		if err != nil {
			metrics.RecordSearch("error", time.Since(start))
			return fmt.Errorf("search failed: %w", err)
		}

		if !res.Found {
			metrics.RecordSearch("miss", time.Since(start))
			logger.Info("search returned no hits, stopping", "gene", gene, "tick", tick)
			fmt.Fprintf(out, "No hits for %s\n", gene)
			return nil
		}
		metrics.RecordSearch("hit", time.Since(start))
		logger.Debug("search hit",
			"gene", gene,
			"tick", tick,
			"dev_url", res.DevChartURL,
			"tissue_url", res.TissueChartURL,
		)

		dev, dl, err := p.Fetcher.FetchImage(ctx, res.DevChartURL)
		if err != nil {
			return fmt.Errorf("developmental-stage chart: %w", err)
		}
		metrics.RecordFetch("dev", dl.Bytes, dl.Duration)

		tissue, dl, err := p.Fetcher.FetchImage(ctx, res.TissueChartURL)
		if err != nil {
			return fmt.Errorf("tissue chart: %w", err)
		}
		metrics.RecordFetch("tissue", dl.Bytes, dl.Duration)

		combined := compose.ConcatHorizontal(dev, tissue)

		if err := p.Sink.Show(ctx, combined); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		metrics.RecordDisplay()

		logger.Info("displayed combined charts",
			"gene", gene,
			"tick", tick,
			"width", combined.Bounds().Dx(),
			"height", combined.Bounds().Dy(),
		)
	}
}
