package symtab

import (
	"slices"

	"github.com/dolthub/swiss"
)

// postings maps a key to the ordered set of handles filed under it.
type postings[K comparable] struct {
	m *swiss.Map[K, []SymbolID]
	// retainEmpty keeps keys whose set became empty instead of dropping them.
	retainEmpty bool
}

func newPostings[K comparable](size int, retainEmpty bool) *postings[K] {
	return &postings[K]{
		m:           swiss.NewMap[K, []SymbolID](uint32(size)),
		retainEmpty: retainEmpty,
	}
}

// add files id under k. It returns false if id was already there.
func (p *postings[K]) add(k K, id SymbolID) bool {
	ids, _ := p.m.Get(k)
	if slices.Contains(ids, id) {
		return false
	}
	p.m.Put(k, append(ids, id))
	return true
}

// remove drops every occurrence of id under k.
func (p *postings[K]) remove(k K, id SymbolID) bool {
	ids, ok := p.m.Get(k)
	if !ok {
		return false
	}
	n := len(ids)
	ids = slices.DeleteFunc(ids, func(x SymbolID) bool { return x == id })
	if len(ids) == n {
		return false
	}
	if len(ids) == 0 && !p.retainEmpty {
		p.m.Delete(k)
		return true
	}
	p.m.Put(k, ids)
	return true
}

func (p *postings[K]) get(k K) []SymbolID {
	ids, _ := p.m.Get(k)
	return ids
}

func (p *postings[K]) has(k K) bool {
	return p.m.Has(k)
}

func (p *postings[K]) contains(k K, id SymbolID) bool {
	return slices.Contains(p.get(k), id)
}

func (p *postings[K]) keys() int {
	return p.m.Count()
}

// entries counts handles over all keys.
func (p *postings[K]) entries() int {
	n := 0
	p.m.Iter(func(_ K, ids []SymbolID) bool {
		n += len(ids)
		return false
	})
	return n
}
