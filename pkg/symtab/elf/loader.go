package elf

import (
	"bytes"
	"debug/elf"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"

	"github.com/grafana/symtab/pkg/symtab"
)

// symbols from .symtab, .dynsym and optionally .gnu_debugdata

type Options struct {
	Logger log.Logger // may be nil
	// MiniDebugInfo reads .gnu_debugdata when the file has no .symtab.
	MiniDebugInfo bool
}

// Open parses the symbols of the ELF file at path into a new linked file.
func Open(path string, opts Options) (*symtab.LinkedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open elf")
	}
	defer f.Close()
	return Load(path, f, opts)
}

// Load parses the symbols of an ELF image. The returned linked file owns them.
func Load(name string, r io.ReaderAt, opts Options) (*symtab.LinkedFile, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse elf %s", name)
	}
	defer ef.Close()

	l := &loader{
		file:   symtab.NewLinkedFile(name),
		logger: log.With(opts.Logger, "f", name),
	}
	sym, err := ef.Symbols()
	switch {
	case err == nil:
		l.add(sym, false)
	case errors.Is(err, elf.ErrNoSymbols):
		if opts.MiniDebugInfo {
			if err := l.addMiniDebugInfo(ef); err != nil {
				level.Debug(l.logger).Log("msg", "no mini debug info", "err", err)
			}
		}
	default:
		return nil, errors.Wrap(err, "read .symtab")
	}

	dynsym, err := ef.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, errors.Wrap(err, "read .dynsym")
	}
	l.add(dynsym, true)

	level.Debug(l.logger).Log("msg", "loaded elf symbols", "symtab", len(sym), "dynsym", len(dynsym))
	return l.file, nil
}

type loader struct {
	file   *symtab.LinkedFile
	logger log.Logger
}

func (l *loader) add(syms []elf.Symbol, dynamic bool) {
	res := make([]*symtab.Symbol, 0, len(syms))
	// Local symbols that follow an STT_FILE entry belong to that compilation unit.
	var cu *symtab.Module
	for i := range syms {
		s := &syms[i]
		if s.Name == "" {
			// An unnamed STT_FILE closes the previous compilation unit.
			if elf.ST_TYPE(s.Info) == elf.STT_FILE {
				cu = nil
			}
			continue
		}
		mod := l.file.DefaultModule()
		switch {
		case dynamic:
		case elf.ST_TYPE(s.Info) == elf.STT_FILE:
			cu = l.file.Module(s.Name)
			mod = cu
		case cu != nil && elf.ST_BIND(s.Info) == elf.STB_LOCAL:
			mod = cu
		}
		res = append(res, newSymbol(s, dynamic, mod))
	}
	l.file.Adopt(res...)
}

func newSymbol(s *elf.Symbol, dynamic bool, mod *symtab.Module) *symtab.Symbol {
	opts := []symtab.SymbolOption{
		symtab.WithModule(mod),
		symtab.WithSize(s.Size),
		symtab.WithLinkage(linkage(elf.ST_BIND(s.Info))),
		symtab.WithVisibility(symtab.Visibility(elf.ST_VISIBILITY(s.Other))),
	}
	if dynamic {
		opts = append(opts, symtab.InDynSymtab())
	}
	if s.Section == elf.SHN_UNDEF {
		opts = append(opts, symtab.Undefined())
	}
	if s.Version != "" {
		opts = append(opts, symtab.WithVersions(s.Version))
	}
	if s.Library != "" {
		opts = append(opts, symtab.WithVersionFileName(s.Library))
	}
	return symtab.NewSymbol(s.Name, symbolType(elf.ST_TYPE(s.Info)), s.Value, opts...)
}

func symbolType(t elf.SymType) symtab.SymbolType {
	switch t {
	case elf.STT_FUNC, elf.STT_LOOS: // STT_GNU_IFUNC
		return symtab.TypeFunction
	case elf.STT_OBJECT, elf.STT_COMMON:
		return symtab.TypeObject
	case elf.STT_TLS:
		return symtab.TypeTLS
	case elf.STT_FILE:
		return symtab.TypeModule
	case elf.STT_NOTYPE:
		return symtab.TypeUnknown
	default:
		return symtab.TypeOther
	}
}

func linkage(b elf.SymBind) symtab.Linkage {
	switch b {
	case elf.STB_LOCAL:
		return symtab.LinkageLocal
	case elf.STB_GLOBAL:
		return symtab.LinkageGlobal
	case elf.STB_WEAK:
		return symtab.LinkageWeak
	default:
		return symtab.LinkageUnknown
	}
}

func (l *loader) addMiniDebugInfo(ef *elf.File) error {
	miniDebugSection := ef.Section(".gnu_debugdata")
	if miniDebugSection == nil {
		return elf.ErrNoSymbols
	}
	data, err := miniDebugSection.Data()
	if err != nil {
		return errors.Wrap(err, "read .gnu_debugdata")
	}
	reader, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "open xz stream")
	}
	uncompressed, err := io.ReadAll(reader)
	if err != nil {
		return errors.Wrap(err, "decompress .gnu_debugdata")
	}
	miniDebugElf, err := elf.NewFile(bytes.NewReader(uncompressed))
	if err != nil {
		return errors.Wrap(err, "parse mini debug info elf")
	}
	syms, err := miniDebugElf.Symbols()
	if err != nil {
		return err
	}
	l.add(syms, false)
	return nil
}
