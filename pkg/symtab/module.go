package symtab

import (
	"path"
	"sync"
)

// ModuleResolver assigns the owning module of a symbol. The same policy is used
// for parsed symbols and for symbols added later.
type ModuleResolver interface {
	FixModule(sym *Symbol)
}

// Module is a compilation unit (or a whole object file) symbols belong to.
type Module struct {
	fullName string
	file     *LinkedFile
}

func (m *Module) FullName() string { return m.fullName }

// Exec returns the linked file that issued the module. It may be nil for modules
// created outside of any file.
func (m *Module) Exec() *LinkedFile { return m.file }

// NewModule creates a module that does not belong to any linked file yet.
// LinkedFile.FixModule rehomes such symbols into the file's module of the same name.
func NewModule(name string) *Module {
	return &Module{fullName: name}
}

// LinkedFile owns the symbol records parsed from one object file. Records stay
// alive here regardless of their membership in a Symtab.
type LinkedFile struct {
	name string

	mtx      sync.Mutex
	symbols  []*Symbol
	modules  []*Module
	byName   map[string]*Module
	defModID int
}

func NewLinkedFile(name string) *LinkedFile {
	return &LinkedFile{
		name:     name,
		byName:   make(map[string]*Module),
		defModID: -1,
	}
}

func (f *LinkedFile) Name() string { return f.name }

// Adopt takes ownership of parsed symbols.
func (f *LinkedFile) Adopt(syms ...*Symbol) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.symbols = append(f.symbols, syms...)
}

func (f *LinkedFile) Symbols() []*Symbol {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]*Symbol(nil), f.symbols...)
}

func (f *LinkedFile) Modules() []*Module {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]*Module(nil), f.modules...)
}

// Module returns the module with the given name, creating it if needed.
func (f *LinkedFile) Module(name string) *Module {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.moduleLocked(name)
}

func (f *LinkedFile) moduleLocked(name string) *Module {
	if m, ok := f.byName[name]; ok {
		return m
	}
	m := &Module{fullName: name, file: f}
	f.byName[name] = m
	f.modules = append(f.modules, m)
	return m
}

// DefaultModule is the module named after the file itself. Symbols that carry no
// compilation unit information end up there.
func (f *LinkedFile) DefaultModule() *Module {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.defaultModuleLocked()
}

func (f *LinkedFile) defaultModuleLocked() *Module {
	if f.defModID >= 0 {
		return f.modules[f.defModID]
	}
	m := f.moduleLocked(path.Base(f.name))
	for i := range f.modules {
		if f.modules[i] == m {
			f.defModID = i
		}
	}
	return m
}

// FixModule makes sure the symbol refers to one of this file's modules.
func (f *LinkedFile) FixModule(sym *Symbol) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	m := sym.Module()
	switch {
	case m == nil || m.FullName() == "":
		sym.SetModule(f.defaultModuleLocked())
	case m.file == f:
	default:
		sym.SetModule(f.moduleLocked(m.FullName()))
	}
}
