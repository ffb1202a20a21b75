package kallsyms

import (
	"bytes"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/grafana/symtab/pkg/symtab"
)

const FileName = "/proc/kallsyms"

var kernelModule = []byte("kernel")

type Options struct {
	// MinAddress drops symbols below the kernel address space.
	MinAddress uint64
}

func ReadFile(path string, opts Options) (*symtab.LinkedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read kallsyms")
	}
	return Parse(path, data, opts)
}

// Parse reads the /proc/kallsyms text format. A table whose addresses are all
// zero (kptr_restrict) yields a file without symbols.
func Parse(fileName string, kallsyms []byte, opts Options) (*symtab.LinkedFile, error) {
	type entry struct {
		name, mod string
		typ       byte
		addr      uint64
	}
	var entries []entry
	allZeros := true
	lineNo := 0
	for len(kallsyms) > 0 {
		lineNo++
		i := bytes.IndexByte(kallsyms, '\n')
		var line []byte
		if i == -1 {
			line = kallsyms
			kallsyms = nil
		} else {
			line = kallsyms[:i]
			kallsyms = kallsyms[i+1:]
		}

		if len(line) == 0 {
			continue
		}
		space := bytes.IndexByte(line, ' ')
		if space == -1 {
			return nil, errors.Errorf("line %d: no space found", lineNo)
		}
		addr := line[:space]
		line = line[space+1:]

		space = bytes.IndexByte(line, ' ')
		if space < 1 {
			return nil, errors.Errorf("line %d: no symbol type found", lineNo)
		}
		typ := line[0]
		line = line[space+1:]

		var name []byte
		mod := kernelModule
		if tab := bytes.IndexByte(line, '\t'); tab != -1 {
			name = line[:tab]
			mod = line[tab+1:]
		} else {
			name = line
		}
		if bytes.HasPrefix(mod, []byte{'['}) && bytes.HasSuffix(mod, []byte{']'}) {
			mod = mod[1 : len(mod)-1]
		}

		istart, err := strconv.ParseUint(string(addr), 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if istart < opts.MinAddress {
			continue
		}
		if istart != 0 {
			allZeros = false
		}
		entries = append(entries, entry{name: string(name), mod: string(mod), typ: typ, addr: istart})
	}

	file := symtab.NewLinkedFile(fileName)
	if allZeros {
		return file, nil
	}
	syms := make([]*symtab.Symbol, 0, len(entries))
	for _, e := range entries {
		syms = append(syms, symtab.NewSymbol(e.name, symbolType(e.typ), e.addr,
			symtab.WithLinkage(linkage(e.typ)),
			symtab.WithModule(file.Module(e.mod)),
		))
	}
	file.Adopt(syms...)
	return file, nil
}

func symbolType(t byte) symtab.SymbolType {
	switch t {
	case 't', 'T', 'w', 'W':
		return symtab.TypeFunction
	case 'b', 'B', 'd', 'D', 'r', 'R':
		return symtab.TypeObject
	default:
		return symtab.TypeOther
	}
}

func linkage(t byte) symtab.Linkage {
	switch {
	case t == 'w' || t == 'W' || t == 'v' || t == 'V':
		return symtab.LinkageWeak
	case t >= 'A' && t <= 'Z':
		return symtab.LinkageGlobal
	default:
		return symtab.LinkageLocal
	}
}
