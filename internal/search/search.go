// Package search drives the RiceXPro search form and extracts chart image
// URLs from the results page.
package search

import "context"

// Result is the outcome of one search. Found=false is the expected "no hits"
// case and is not an error; the two URL fields are only set when Found.
type Result struct {
	Found          bool
	DevChartURL    string
	TissueChartURL string
}

// Provider runs a gene search and reports whether it matched. Implementations
// own whatever session state the search needs for the lifetime of the run.
type Provider interface {
	Search(ctx context.Context, gene string) (*Result, error)
}
