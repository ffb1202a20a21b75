package symtab

import (
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/samber/lo"

	"github.com/grafana/symtab/pkg/symtab/demangle"
)

// Demangler computes the pretty and typed names of a mangled name.
type Demangler interface {
	Demangle(name string) (pretty, typed string)
}

type Options struct {
	Metrics *Metrics // may be nil for tests
	// Demangler defaults to a demangle.Demangler built from Config.Demangle.
	Demangler Demangler
	// ModuleResolver defaults to the LinkedFile the table is built from.
	ModuleResolver ModuleResolver
}

// Symtab indexes the symbols of one linked file and groups them into functions
// and variables. Every method is safe for concurrent use, and so are the
// methods of the functions and variables it returns. The symbols themselves
// are not guarded: callers mutating a symbol must not race with readers of it.
type Symtab struct {
	mtx sync.RWMutex

	file     *LinkedFile
	arena    *arena
	index    *indexSet
	aggs     *aggregates
	resolver ModuleResolver
	demangle Demangler

	cfg     Config
	logger  log.Logger
	metrics *Metrics
}

// New builds a table over every symbol the file owns.
func New(logger log.Logger, cfg Config, file *LinkedFile, options Options) (*Symtab, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("linked file is nil")
	}
	if options.Metrics == nil {
		options.Metrics = NewMetrics(nil)
	}
	if options.Demangler == nil {
		d, err := demangle.New(cfg.Demangle, nil)
		if err != nil {
			return nil, fmt.Errorf("create demangler %w", err)
		}
		options.Demangler = d
	}
	if options.ModuleResolver == nil {
		options.ModuleResolver = file
	}

	parsed := file.Symbols()
	a := newArena(len(parsed))
	t := &Symtab{
		file:     file,
		arena:    a,
		index:    newIndexSet(a, len(parsed), cfg.RetainEmptyKeys),
		resolver: options.ModuleResolver,
		demangle: options.Demangler,
		cfg:      cfg,
		logger:   log.With(logger, "file", file.Name()),
		metrics:  options.Metrics,
	}
	t.aggs = newAggregates(a, &t.mtx)
	t.load(parsed)
	return t, nil
}

func (t *Symtab) load(parsed []*Symbol) {
	loaded := 0
	for _, sym := range parsed {
		if sym == nil {
			continue
		}
		id := t.arena.intern(sym)
		if t.index.isLive(id, sym) {
			level.Debug(t.logger).Log("msg", "skipping duplicate parsed symbol", "sym", sym)
			continue
		}
		t.prepare(sym)
		t.index.register(id, sym)
		t.aggs.attach(id, sym)
		loaded++
	}
	t.metrics.SymbolsAdded.WithLabelValues("parsed").Add(float64(loaded))
	level.Debug(t.logger).Log("msg", "loaded symbols", "count", loaded)
}

// prepare applies the module and naming policy shared by parsing and AddSymbol.
func (t *Symtab) prepare(sym *Symbol) {
	t.resolver.FixModule(sym)
	if sym.PrettyName() == "" {
		pretty, typed := t.demangle.Demangle(sym.MangledName())
		sym.setPrettyName(pretty)
		if sym.TypedName() == "" {
			sym.setTypedName(typed)
		}
	}
}

func (t *Symtab) File() *LinkedFile { return t.file }

// DefinedSymbols returns every defined symbol in registration order.
func (t *Symtab) DefinedSymbols() []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.definedSymbols()
}

// UserAddedSymbols returns the symbols added after the initial parse.
func (t *Symtab) UserAddedSymbols() []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.userAddedSymbols()
}

func (t *Symtab) FindSymbolsByOffset(offset uint64) []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.findByOffset(offset)
}

func (t *Symtab) FindSymbolsByMangledName(name string) []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.findByMangledName(name)
}

func (t *Symtab) FindSymbolsByPrettyName(name string) []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.findByPrettyName(name)
}

func (t *Symtab) FindSymbolsByTypedName(name string) []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.findByTypedName(name)
}

// FindUndefinedDynamic returns the undefined dynamic symbol filed under name.
func (t *Symtab) FindUndefinedDynamic(name string) (*Symbol, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.index.findUndefinedDynamic(name)
}

type NameType uint8

const (
	NameMangled NameType = iota
	NamePretty
	NameTyped
	NameAny
)

// FindSymbols looks name up in the views selected by nt and keeps the symbols of
// type typ. TypeUnknown matches every type.
func (t *Symtab) FindSymbols(name string, nt NameType, typ SymbolType) []*Symbol {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	var found []*Symbol
	if nt == NameMangled || nt == NameAny {
		found = append(found, t.index.findByMangledName(name)...)
	}
	if nt == NamePretty || nt == NameAny {
		found = append(found, t.index.findByPrettyName(name)...)
	}
	if nt == NameTyped || nt == NameAny {
		found = append(found, t.index.findByTypedName(name)...)
	}
	found = lo.Uniq(found)
	if typ == TypeUnknown {
		return found
	}
	return lo.Filter(found, func(s *Symbol, _ int) bool { return s.Type() == typ })
}

func (t *Symtab) FindFunctionByEntryOffset(offset uint64) (*Function, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.aggs.findFunctionByEntryOffset(offset)
}

func (t *Symtab) FindVariableByOffset(offset uint64) (*Variable, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.aggs.findVariableByOffset(offset)
}

// FindFunctionContaining returns the function whose body covers addr.
func (t *Symtab) FindFunctionContaining(addr uint64) (*Function, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.aggs.functionContaining(addr)
}

// Functions returns every function, including empty ones, in creation order.
func (t *Symtab) Functions() []*Function {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return append([]*Function(nil), t.aggs.funcOrder...)
}

// Variables returns every variable, including empty ones, in creation order.
func (t *Symtab) Variables() []*Variable {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return append([]*Variable(nil), t.aggs.varOrder...)
}

func (t *Symtab) Modules() []*Module {
	return t.file.Modules()
}
