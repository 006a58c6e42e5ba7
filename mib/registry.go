package mib

import (
	"github.com/duniansampa/priot/ber"
)

// Registry holds the per-context forest of Subtree nodes and the lookup
// caches, per spec §4.2. The zero value is not usable; construct one with
// NewRegistry.
type Registry struct {
	nodes   []Subtree
	live    []bool
	context map[string]*contextState

	opts options
}

type contextState struct {
	head  int // first sibling index, or noIndex
	cache *lookupCache
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	cacheSize int
}

var defaultOptions = options{cacheSize: 8}

// WithCacheSize bounds the per-context lookup cache (spec §3, 0..32).
// 0 disables caching entirely; values above 32 are clamped to 32.
func WithCacheSize(n int) Option {
	return func(o *options) {
		switch {
		case n < 0:
			n = defaultOptions.cacheSize
		case n > 32:
			n = 32
		}
		o.cacheSize = n
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions
	for _, apply := range opts {
		apply(&o)
	}
	return &Registry{
		context: make(map[string]*contextState),
		opts:    o,
	}
}

func (r *Registry) alloc(n Subtree) int {
	n.next, n.prev = noIndex, noIndex
	r.nodes = append(r.nodes, n)
	r.live = append(r.live, true)
	return len(r.nodes) - 1
}

func (r *Registry) get(i int) *Subtree { return &r.nodes[i] }

func (r *Registry) free(i int) {
	r.live[i] = false
	r.nodes[i] = Subtree{}
}

func (r *Registry) ctx(name string, create bool) *contextState {
	cs, ok := r.context[name]
	if !ok {
		if !create {
			return nil
		}
		cs = &contextState{head: noIndex, cache: newLookupCache(r.opts.cacheSize)}
		r.context[name] = cs
	}
	return cs
}

// endOf computes the half-open end of a single-node registration: name
// with its last subidentifier incremented by one.
func endOf(name ber.OID) ber.OID {
	end := name.Clone()
	end[len(end)-1]++
	return end
}

func lessOID(a, b ber.OID) bool { return a.Compare(b) < 0 }
