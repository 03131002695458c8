// Package proxy provides a rotating pool of outbound HTTP proxies.
package proxy

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
)

// maxConsecutiveFailures marks a proxy dead after this many failures in a row.
const maxConsecutiveFailures = 3

type entry struct {
	url      *url.URL
	failures int
}

// Pool hands out proxies in round-robin order, skipping proxies that have
// failed repeatedly. When every proxy is dead the pool resets all failure
// counts rather than returning nothing; a dead proxy may have recovered and
// the alternative is making no progress at all. Safe for concurrent use.
type Pool struct {
	next atomic.Uint64

	mu      sync.Mutex
	entries []*entry
}

// NewPool parses the given proxy URLs into a pool. Schemes http, https and
// socks5 are accepted.
func NewPool(raw []string) (*Pool, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("proxy: no proxy URLs given")
	}
	entries := make([]*entry, 0, len(raw))
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("proxy: invalid proxy URL %q: %w", r, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("proxy: unsupported scheme %q in %q", u.Scheme, r)
		}
		entries = append(entries, &entry{url: u})
	}
	return &Pool{entries: entries}, nil
}

// Next returns the next healthy proxy in rotation.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.entries {
		idx := p.next.Add(1) - 1
		e := p.entries[idx%uint64(len(p.entries))]
		if e.failures < maxConsecutiveFailures {
			return e.url
		}
	}

	// All dead: reset and hand out the next one anyway.
	for _, e := range p.entries {
		e.failures = 0
	}
	idx := p.next.Add(1) - 1
	return p.entries[idx%uint64(len(p.entries))].url
}

// MarkFailure records a failed request through the given proxy.
func (p *Pool) MarkFailure(u *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(u); e != nil {
		e.failures++
	}
}

// MarkSuccess clears the failure streak for the given proxy.
func (p *Pool) MarkSuccess(u *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(u); e != nil {
		e.failures = 0
	}
}

// Len reports the number of proxies in the pool, healthy or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *Pool) find(u *url.URL) *entry {
	if u == nil {
		return nil
	}
	for _, e := range p.entries {
		if e.url.String() == u.String() {
			return e
		}
	}
	return nil
}
