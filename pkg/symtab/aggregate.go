package symtab

import (
	"cmp"
	"slices"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Aggregate groups the symbols that denote one entity at one offset.
//
// An aggregate stays around after its last symbol is removed; callers must not
// assume that an empty aggregate disappears. Reads take the owning table's lock,
// so an aggregate may be inspected while the table is being edited.
type Aggregate struct {
	offset  uint64
	members []SymbolID
	arena   *arena
	mtx     *sync.RWMutex
}

func (a *Aggregate) Offset() uint64 { return a.offset }

func (a *Aggregate) Symbols() []*Symbol {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return a.symbols()
}

func (a *Aggregate) Len() int {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return len(a.members)
}

func (a *Aggregate) MangledNames() []string {
	return lo.Map(a.Symbols(), func(s *Symbol, _ int) string { return s.MangledName() })
}

func (a *Aggregate) PrettyNames() []string {
	return lo.Uniq(lo.Map(a.Symbols(), func(s *Symbol, _ int) string { return s.PrettyName() }))
}

func (a *Aggregate) TypedNames() []string {
	return lo.Uniq(lo.Map(a.Symbols(), func(s *Symbol, _ int) string { return s.TypedName() }))
}

// Module is the module of the first member, nil for empty aggregates.
func (a *Aggregate) Module() *Module {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	if len(a.members) == 0 {
		return nil
	}
	return a.arena.get(a.members[0]).Module()
}

// Size is the largest size any member reports.
func (a *Aggregate) Size() uint64 {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return a.size()
}

// symbols and size expect the caller to hold the table lock.
func (a *Aggregate) symbols() []*Symbol { return a.arena.resolve(a.members) }

func (a *Aggregate) size() uint64 {
	return lo.Max(lo.Map(a.symbols(), func(s *Symbol, _ int) uint64 { return s.Size() }))
}

func (a *Aggregate) contains(id SymbolID) bool {
	return slices.Contains(a.members, id)
}

func (a *Aggregate) addSymbol(id SymbolID) bool {
	if a.contains(id) {
		return false
	}
	a.members = append(a.members, id)
	return true
}

func (a *Aggregate) removeSymbol(id SymbolID) bool {
	n := len(a.members)
	a.members = slices.DeleteFunc(a.members, func(x SymbolID) bool { return x == id })
	return len(a.members) != n
}

type Function struct {
	Aggregate
}

func (f *Function) EntryOffset() uint64 { return f.offset }

type Variable struct {
	Aggregate
}

// aggregateKind is the aggregate a symbol type is collected into.
type aggregateKind uint8

const (
	kindNone aggregateKind = iota
	kindFunction
	kindVariable
)

func (k aggregateKind) String() string {
	switch k {
	case kindFunction:
		return "function"
	case kindVariable:
		return "variable"
	default:
		return "none"
	}
}

// Module symbols are not aggregated.
func kindOf(t SymbolType) aggregateKind {
	switch t {
	case TypeFunction:
		return kindFunction
	case TypeObject, TypeTLS:
		return kindVariable
	default:
		return kindNone
	}
}

type aggregates struct {
	arena *arena
	mtx   *sync.RWMutex

	funcs     map[uint64]*Function
	funcOrder []*Function
	// funcsByEntry is kept sorted by entry offset.
	funcsByEntry []*Function

	vars     map[uint64]*Variable
	varOrder []*Variable
}

func newAggregates(a *arena, mtx *sync.RWMutex) *aggregates {
	return &aggregates{
		arena: a,
		mtx:   mtx,
		funcs: make(map[uint64]*Function),
		vars:  make(map[uint64]*Variable),
	}
}

func (ag *aggregates) findFunctionByEntryOffset(offset uint64) (*Function, bool) {
	f, ok := ag.funcs[offset]
	return f, ok
}

func (ag *aggregates) findVariableByOffset(offset uint64) (*Variable, bool) {
	v, ok := ag.vars[offset]
	return v, ok
}

func (ag *aggregates) function(offset uint64) *Function {
	if f, ok := ag.funcs[offset]; ok {
		return f
	}
	f := &Function{Aggregate{offset: offset, arena: ag.arena, mtx: ag.mtx}}
	ag.funcs[offset] = f
	ag.funcOrder = append(ag.funcOrder, f)
	i, _ := slices.BinarySearchFunc(ag.funcsByEntry, offset, func(e *Function, t uint64) int {
		return cmp.Compare(e.offset, t)
	})
	ag.funcsByEntry = slices.Insert(ag.funcsByEntry, i, f)
	return f
}

func (ag *aggregates) variable(offset uint64) *Variable {
	if v, ok := ag.vars[offset]; ok {
		return v
	}
	v := &Variable{Aggregate{offset: offset, arena: ag.arena, mtx: ag.mtx}}
	ag.vars[offset] = v
	ag.varOrder = append(ag.varOrder, v)
	return v
}

// attach adds sym to the aggregate matching its type and offset, creating the
// aggregate if needed. Undefined symbols are never aggregated.
func (ag *aggregates) attach(id SymbolID, sym *Symbol) bool {
	if sym.IsUndefined() {
		return false
	}
	switch kindOf(sym.Type()) {
	case kindFunction:
		return ag.function(sym.Offset()).addSymbol(id)
	case kindVariable:
		return ag.variable(sym.Offset()).addSymbol(id)
	}
	return false
}

// detach removes id from the aggregate of kind k at offset. found is false when
// no such aggregate exists.
func (ag *aggregates) detach(id SymbolID, k aggregateKind, offset uint64) (found bool) {
	switch k {
	case kindFunction:
		if f, ok := ag.findFunctionByEntryOffset(offset); ok {
			f.removeSymbol(id)
			return true
		}
	case kindVariable:
		if v, ok := ag.findVariableByOffset(offset); ok {
			v.removeSymbol(id)
			return true
		}
	}
	return false
}

// functionContaining returns the closest function with an entry at or below
// addr that still has symbols. Functions with a known size must also cover addr.
func (ag *aggregates) functionContaining(addr uint64) (*Function, bool) {
	fs := ag.funcsByEntry
	i := sort.Search(len(fs), func(i int) bool {
		return addr < fs[i].offset
	})
	for i--; i >= 0 && len(fs[i].members) == 0; i-- {
	}
	if i < 0 {
		return nil, false
	}
	f := fs[i]
	if size := f.size(); size != 0 && addr >= f.offset+size {
		return nil, false
	}
	return f, true
}
