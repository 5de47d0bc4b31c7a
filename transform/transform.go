// Package transform implements a per-lexicon function hook, looked up by
// lexicon name, applied bottom-up to a Context's already-transformed
// children and cached by the Context's own identity.
//
// True weak-reference cache keys aren't available portably across
// pre-`weak`-package Go versions, so eviction is explicit rather than
// finalizer-driven: a worker.Invalidate event walks the node's ancestor
// chain and deletes each one's cache entry. This is recorded as an Open
// Question resolution in DESIGN.md. The cache map itself, guarded by a
// mutex and keyed by pointer, follows the struct-cache shape common
// across the pack (map keyed by identity, one mutex, lazy fill).
package transform

import (
	"log/slog"
	"sync"

	"github.com/opencodelex/parce"
)

// Func transforms one context given its already-transformed children.
// children[i] is the result of transforming node.Children()[i] if that
// child was itself a *parce.Context, or the child's *parce.Token unchanged
// otherwise: leaves are never transformed, only contexts are.
type Func func(node *parce.Context, children []interface{}) interface{}

// Transformer holds one Func per lexicon name and caches results by
// context identity.
type Transformer struct {
	mu    sync.Mutex
	funcs map[string]Func
	cache map[*parce.Context]interface{}
}

// New creates an empty Transformer. Register lexicon transforms with Set.
func New() *Transformer {
	return &Transformer{
		funcs: map[string]Func{},
		cache: map[*parce.Context]interface{}{},
	}
}

// Set registers fn as the transform for every context whose Lexicon.Name
// is lexiconName. A lexicon with no registered Func is passed through
// unchanged: Transform returns the context itself as its own result.
func (t *Transformer) Set(lexiconName string, fn Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[lexiconName] = fn
}

// Transform computes (or returns the cached) result for root, recursing
// into subcontexts first so a context's Func always sees already-
// transformed children. Tokens are passed to their parent's Func
// unchanged; they are never cached or transformed themselves.
func (t *Transformer) Transform(root *parce.Context) interface{} {
	if v, ok := t.lookup(root); ok {
		return v
	}
	children := root.Children()
	out := make([]interface{}, len(children))
	for i, c := range children {
		switch n := c.(type) {
		case *parce.Context:
			out[i] = t.Transform(n)
		case *parce.Token:
			out[i] = n
		}
	}

	t.mu.Lock()
	fn := t.funcs[root.Lexicon.Name]
	t.mu.Unlock()

	var result interface{}
	if fn != nil {
		result = fn(root, out)
	} else {
		result = root
	}
	t.store(root, result)
	return result
}

// Recompute walks the tree rooted at root and fills in any cache entries
// missing since the last invalidate, leaving entries already present
// untouched — position changes alone do not invalidate. Positions are
// not part of a Context's cache key (the key is pointer identity, which a
// rebuild never reuses for a node whose content changed), so this is
// simply Transform run over every context that doesn't already have an
// entry.
func (t *Transformer) Recompute(root *parce.Context) {
	t.Transform(root)
}

// Invalidate evicts node and all of its ancestors from the cache. Call
// this for every worker.Invalidate event before the next Recompute.
func (t *Transformer) Invalidate(node *parce.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for cur := node; cur != nil; cur = cur.Parent() {
		if _, ok := t.cache[cur]; ok {
			delete(t.cache, cur)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("transform cache evicted", "lexicon", node.Lexicon.String(), "entries", evicted)
	}
}

func (t *Transformer) lookup(node *parce.Context) (interface{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.cache[node]
	return v, ok
}

func (t *Transformer) store(node *parce.Context, v interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[node] = v
}
