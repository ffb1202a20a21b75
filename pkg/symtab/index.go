package symtab

import "slices"

// indexSet holds the keyed views over live symbols. It is not safe for concurrent
// use; Symtab serializes access.
//
// Undefined dynamic symbols are only filed by name in undefDyn. Every other live
// symbol is in defined exactly once and in each keyed view exactly once, under
// its current keys.
type indexSet struct {
	arena *arena

	defined    []SymbolID
	definedSet map[SymbolID]struct{}
	userAdded  []SymbolID
	undefDyn   map[string]SymbolID

	byOffset  *postings[uint64]
	byMangled *postings[string]
	byPretty  *postings[string]
	byTyped   *postings[string]
}

func newIndexSet(a *arena, size int, retainEmpty bool) *indexSet {
	return &indexSet{
		arena:      a,
		defined:    make([]SymbolID, 0, size),
		definedSet: make(map[SymbolID]struct{}, size),
		undefDyn:   make(map[string]SymbolID),
		byOffset:   newPostings[uint64](size, retainEmpty),
		byMangled:  newPostings[string](size, retainEmpty),
		byPretty:   newPostings[string](size, retainEmpty),
		byTyped:    newPostings[string](size, retainEmpty),
	}
}

// isLive reports whether id is reachable through any view.
func (ix *indexSet) isLive(id SymbolID, sym *Symbol) bool {
	if _, ok := ix.definedSet[id]; ok {
		return true
	}
	cur, ok := ix.undefDyn[sym.MangledName()]
	return ok && cur == id
}

// register files sym under its current keys. Every insertion is idempotent, so
// registering a live symbol again creates no duplicates; it returns false then.
func (ix *indexSet) register(id SymbolID, sym *Symbol) bool {
	if sym.isUndefinedDynamic() {
		name := sym.MangledName()
		prev, ok := ix.undefDyn[name]
		if ok && prev == id {
			return false
		}
		ix.undefDyn[name] = id
		if ok {
			// The replaced record is unreachable from now on.
			ix.userAdded = slices.DeleteFunc(ix.userAdded, func(x SymbolID) bool { return x == prev })
		}
		return true
	}
	added := false
	if _, ok := ix.definedSet[id]; !ok {
		ix.definedSet[id] = struct{}{}
		ix.defined = append(ix.defined, id)
		added = true
	}
	ix.byOffset.add(sym.Offset(), id)
	ix.byMangled.add(sym.MangledName(), id)
	ix.byPretty.add(sym.PrettyName(), id)
	ix.byTyped.add(sym.TypedName(), id)
	return added
}

func (ix *indexSet) addUserAdded(id SymbolID) {
	if !slices.Contains(ix.userAdded, id) {
		ix.userAdded = append(ix.userAdded, id)
	}
}

// unregister removes sym from every view. It returns false if nothing referenced it.
func (ix *indexSet) unregister(id SymbolID, sym *Symbol) bool {
	removed := false
	if _, ok := ix.definedSet[id]; ok {
		delete(ix.definedSet, id)
		ix.defined = slices.DeleteFunc(ix.defined, func(x SymbolID) bool { return x == id })
		removed = true
	}
	if i := slices.Index(ix.userAdded, id); i >= 0 {
		ix.userAdded = slices.Delete(ix.userAdded, i, i+1)
		removed = true
	}
	// Another record may own the name by now; it stays.
	if cur, ok := ix.undefDyn[sym.MangledName()]; ok && cur == id {
		delete(ix.undefDyn, sym.MangledName())
		removed = true
	}
	if ix.byOffset.remove(sym.Offset(), id) {
		removed = true
	}
	if ix.byMangled.remove(sym.MangledName(), id) {
		removed = true
	}
	if ix.byPretty.remove(sym.PrettyName(), id) {
		removed = true
	}
	if ix.byTyped.remove(sym.TypedName(), id) {
		removed = true
	}
	return removed
}

// rekey moves a defined symbol from oldOffset to its current offset.
func (ix *indexSet) rekey(id SymbolID, sym *Symbol, oldOffset uint64) bool {
	if _, ok := ix.definedSet[id]; !ok {
		return false
	}
	ix.byOffset.remove(oldOffset, id)
	ix.byOffset.add(sym.Offset(), id)
	return true
}

func (ix *indexSet) definedSymbols() []*Symbol {
	return ix.arena.resolve(ix.defined)
}

func (ix *indexSet) userAddedSymbols() []*Symbol {
	return ix.arena.resolve(ix.userAdded)
}

func (ix *indexSet) findByOffset(offset uint64) []*Symbol {
	return ix.arena.resolve(ix.byOffset.get(offset))
}

func (ix *indexSet) findByMangledName(name string) []*Symbol {
	return ix.arena.resolve(ix.byMangled.get(name))
}

func (ix *indexSet) findByPrettyName(name string) []*Symbol {
	return ix.arena.resolve(ix.byPretty.get(name))
}

func (ix *indexSet) findByTypedName(name string) []*Symbol {
	return ix.arena.resolve(ix.byTyped.get(name))
}

func (ix *indexSet) findUndefinedDynamic(name string) (*Symbol, bool) {
	id, ok := ix.undefDyn[name]
	if !ok {
		return nil, false
	}
	return ix.arena.get(id), true
}
