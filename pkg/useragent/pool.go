package useragent

import (
	"math/rand/v2"
	"sync/atomic"
)

// defaults is a small set of current desktop browser User-Agents. The chart
// endpoints serve plain image resources, so the string only has to look like
// a browser, not match the TLS fingerprint exactly.
var defaults = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
}

// Pool rotates over a fixed set of User-Agent strings. Safe for concurrent use.
type Pool struct {
	uas  []string
	next atomic.Uint64
}

// NewPool builds a pool from the given strings, falling back to the built-in
// defaults when the slice is empty.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = defaults
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied}
}

// Next returns the next User-Agent in round-robin order.
func (p *Pool) Next() string {
	idx := p.next.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// Random returns a uniformly chosen User-Agent from the pool.
func (p *Pool) Random() string {
	return p.uas[rand.IntN(len(p.uas))]
}

// Len reports how many User-Agents the pool holds.
func (p *Pool) Len() int {
	return len(p.uas)
}
