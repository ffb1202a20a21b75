package symtab

import "fmt"

// SymbolType is the classification of a symbol.
type SymbolType uint8

const (
	TypeUnknown SymbolType = iota
	TypeFunction
	TypeObject
	TypeModule
	TypeTLS
	TypeOther
)

func (t SymbolType) String() string {
	switch t {
	case TypeFunction:
		return "function"
	case TypeObject:
		return "object"
	case TypeModule:
		return "module"
	case TypeTLS:
		return "tls"
	case TypeOther:
		return "other"
	default:
		return "unknown"
	}
}

// Linkage and Visibility are carried through from the parser untouched.
type (
	Linkage    uint8
	Visibility uint8
)

const (
	LinkageUnknown Linkage = iota
	LinkageLocal
	LinkageGlobal
	LinkageWeak
)

// Symbol is one named, addressed entry of a binary's symbol table.
//
// Names are fixed once the symbol is registered in a Symtab. Type and offset may
// change, but the owning Symtab must be told about it: see Symtab.ChangeType and
// Symtab.Rekey.
type Symbol struct {
	mangledName string
	prettyName  string
	typedName   string

	typ    SymbolType
	offset uint64
	size   uint64

	linkage    Linkage
	visibility Visibility

	undefined   bool
	inSymtab    bool
	inDynSymtab bool

	module *Module

	versionFileName string
	versions        []string
}

type SymbolOption func(*Symbol)

func WithPrettyName(name string) SymbolOption {
	return func(s *Symbol) { s.prettyName = name }
}

func WithTypedName(name string) SymbolOption {
	return func(s *Symbol) { s.typedName = name }
}

func WithModule(m *Module) SymbolOption {
	return func(s *Symbol) { s.module = m }
}

func WithSize(size uint64) SymbolOption {
	return func(s *Symbol) { s.size = size }
}

func WithLinkage(l Linkage) SymbolOption {
	return func(s *Symbol) { s.linkage = l }
}

func WithVisibility(v Visibility) SymbolOption {
	return func(s *Symbol) { s.visibility = v }
}

func WithVersions(versions ...string) SymbolOption {
	return func(s *Symbol) { s.versions = append([]string(nil), versions...) }
}

func WithVersionFileName(name string) SymbolOption {
	return func(s *Symbol) { s.versionFileName = name }
}

// Undefined marks the symbol as a reference resolved elsewhere.
func Undefined() SymbolOption {
	return func(s *Symbol) { s.undefined = true }
}

// InDynSymtab marks the symbol as coming from the dynamic symbol table
// instead of the static one.
func InDynSymtab() SymbolOption {
	return func(s *Symbol) {
		s.inSymtab = false
		s.inDynSymtab = true
	}
}

// NewSymbol creates a symbol found in the static symbol table.
func NewSymbol(name string, typ SymbolType, offset uint64, opts ...SymbolOption) *Symbol {
	s := &Symbol{
		mangledName: name,
		typ:         typ,
		offset:      offset,
		inSymtab:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Symbol) MangledName() string { return s.mangledName }
func (s *Symbol) PrettyName() string  { return s.prettyName }
func (s *Symbol) TypedName() string   { return s.typedName }
func (s *Symbol) Type() SymbolType    { return s.typ }
func (s *Symbol) Offset() uint64      { return s.offset }
func (s *Symbol) Size() uint64        { return s.size }
func (s *Symbol) Linkage() Linkage    { return s.linkage }
func (s *Symbol) Visibility() Visibility {
	return s.visibility
}
func (s *Symbol) IsUndefined() bool { return s.undefined }
func (s *Symbol) InSymtab() bool    { return s.inSymtab }
func (s *Symbol) InDynSymtab() bool { return s.inDynSymtab }
func (s *Symbol) Module() *Module   { return s.module }

// ModuleName returns the full name of the owning module, or "" if there is none.
func (s *Symbol) ModuleName() string {
	if s.module == nil {
		return ""
	}
	return s.module.FullName()
}

// SetType changes the classification. Call Symtab.ChangeType afterwards.
func (s *Symbol) SetType(t SymbolType) { s.typ = t }

// SetOffset moves the symbol. Call Symtab.Rekey afterwards.
func (s *Symbol) SetOffset(offset uint64) { s.offset = offset }

func (s *Symbol) SetModule(m *Module) { s.module = m }

func (s *Symbol) SetVersionFileName(name string) { s.versionFileName = name }

// VersionFileName returns the file that defines the symbol version, if any.
func (s *Symbol) VersionFileName() (string, bool) {
	if s.versionFileName == "" {
		return "", false
	}
	return s.versionFileName, true
}

func (s *Symbol) SetVersions(versions []string) {
	s.versions = append([]string(nil), versions...)
}

// Versions returns a copy of the symbol version list.
func (s *Symbol) Versions() []string {
	if len(s.versions) == 0 {
		return nil
	}
	return append([]string(nil), s.versions...)
}

func (s *Symbol) setPrettyName(name string) { s.prettyName = name }
func (s *Symbol) setTypedName(name string)  { s.typedName = name }

func (s *Symbol) clearIsInSymtab() { s.inSymtab = false }
func (s *Symbol) setDynSymtab()    { s.inDynSymtab = true }

// isUndefinedDynamic reports whether the symbol is filed by name only.
func (s *Symbol) isUndefinedDynamic() bool {
	return s.undefined && s.inDynSymtab
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s@0x%x(%s)", s.mangledName, s.offset, s.typ)
}
